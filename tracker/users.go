package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

type (
	User struct {
		ID           string    `json:"id"`
		Username     string    `json:"username"`
		Name         *string   `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}
)

// CreateUser stores a new identity. Username uniqueness is enforced by the
// unique constraint on the users table rather than a lookup beforehand,
// so two concurrent signups with the same username cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, username string, passwordHash string, name *string) (User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx, `insert into users (user_id, username, password_hash, display_name, created_at, updated_at)
	values (?, ?, ?, ?, ?, ?)`, u.ID, u.Username, u.PasswordHash, nullable(u.Name), now.Unix(), now.Unix())
	if isUniqueViolation(err) {
		return User{}, UsernameTaken{Username: username}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to store user %v, cause %w", username, err)
	}
	return u, nil
}

// FindUserByUsername returns the identity with the given username, password
// hash included. It exists for credential verification and nothing else,
// the hash never leaves the process because of the json:"-" tag.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	var name sql.NullString
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `select user_id, username, password_hash, display_name, created_at, updated_at
	from users where username = ?`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{Ref: username}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to lookup user %v, cause %w", username, err)
	}
	u.Name = fromNullable(name)
	u.CreatedAt = time.Unix(created, 0).UTC()
	u.UpdatedAt = time.Unix(updated, 0).UTC()
	return u, nil
}

// FindUserByID returns the identity with the given id, without its
// password hash.
func (s *Store) FindUserByID(ctx context.Context, id string) (User, error) {
	var u User
	var name sql.NullString
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `select user_id, username, display_name, created_at, updated_at
	from users where user_id = ?`, id).Scan(&u.ID, &u.Username, &name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{Ref: id}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to lookup user %v, cause %w", id, err)
	}
	u.Name = fromNullable(name)
	u.CreatedAt = time.Unix(created, 0).UTC()
	u.UpdatedAt = time.Unix(updated, 0).UTC()
	return u, nil
}

// ListUsers returns every identity ordered from newest to oldest,
// password hashes excluded.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `select user_id, username, display_name, created_at, updated_at
	from users order by created_at desc, rowid desc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		var name sql.NullString
		var created, updated int64
		err = rows.Scan(&u.ID, &u.Username, &name, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("unable to scan user row, cause %v", err)
		}
		u.Name = fromNullable(name)
		u.CreatedAt = time.Unix(created, 0).UTC()
		u.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqerr sqlite3.Error
	return errors.As(err, &sqerr) && sqerr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullable(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
