package testutil

import (
	"context"
	"io/ioutil"
	"os"

	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/tracker"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// TestHasher uses the cheapest bcrypt cost the library accepts, tests
// hash a lot of throwaway passwords and never need the latency.
func TestHasher() auth.Hasher {
	return auth.NewHasher(4)
}

func AcquireStore(ctx context.Context, t TestLog) (*tracker.Store, func()) {
	dir, err := ioutil.TempDir("", "tasknest-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := tracker.Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// RegisterUser creates an identity straight through the store, tests that
// are not about signup should not have to go through the HTTP surface.
func RegisterUser(ctx context.Context, t TestLog, store *tracker.Store, username, password string) tracker.User {
	digest, err := TestHasher().Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.CreateUser(ctx, username, digest, nil)
	if err != nil {
		t.Fatal(err)
	}
	return user
}
