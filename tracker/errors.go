package tracker

import "fmt"

type (
	UsernameTaken struct {
		Username string
	}

	UserNotFound struct {
		Ref string
	}

	TaskNotFound struct {
		ID string
	}

	SessionNotFound struct{}

	InvalidStatus struct {
		Value string
	}

	InvalidCredentials struct{}
)

func (u UsernameTaken) Error() string {
	return fmt.Sprintf("username %v is already taken", u.Username)
}

func (u UserNotFound) Error() string {
	return fmt.Sprintf("user %v not found", u.Ref)
}

func (t TaskNotFound) Error() string {
	return fmt.Sprintf("task %v not found", t.ID)
}

func (s SessionNotFound) Error() string {
	return "session not found"
}

func (i InvalidStatus) Error() string {
	return fmt.Sprintf("status %v is not a valid task status", i.Value)
}

func (i InvalidCredentials) Error() string {
	return "invalid username or password"
}
