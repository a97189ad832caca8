package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tasknest/tasknest/tracker"
)

// Authenticate resolves a username/password pair to an identity. Unknown
// usernames and wrong passwords collapse into the same InvalidCredentials
// value so the response never confirms that a username exists. The
// returned identity has its password hash stripped, nothing downstream
// needs it. Authenticate never mutates state.
func Authenticate(ctx context.Context, store *tracker.Store, hasher Hasher, username, password string) (tracker.User, error) {
	user, err := store.FindUserByUsername(ctx, username)
	var notFound tracker.UserNotFound
	if errors.As(err, &notFound) {
		return tracker.User{}, tracker.InvalidCredentials{}
	} else if err != nil {
		return tracker.User{}, fmt.Errorf("unable to authenticate %v, cause %w", username, err)
	}
	ok, err := hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return tracker.User{}, fmt.Errorf("unable to authenticate %v, cause %w", username, err)
	}
	if !ok {
		return tracker.User{}, tracker.InvalidCredentials{}
	}
	user.PasswordHash = ""
	return user, nil
}
