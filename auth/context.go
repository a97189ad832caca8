package auth

import (
	"context"

	"github.com/tasknest/tasknest/tracker"
)

type (
	key byte
)

var (
	identityKey = key(1)
)

func WithIdentity(ctx context.Context, user tracker.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

func IdentityFrom(ctx context.Context) (tracker.User, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return tracker.User{}, false
	}
	return v.(tracker.User), true
}
