// Package tracker persists identities, tasks and sessions in a single
// sqlite database.
//
// The access rules are deliberately simple: every task query carries the
// owner in its predicate, so a row that belongs to somebody else behaves
// exactly like a row that does not exist. Whatever sits on top of this
// package cannot leak another user's data by accident because there is
// no code path that fetches first and filters later.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type (
	Store struct {
		db *sql.DB
	}
)

func openTrackerDatabase(ctx context.Context, dir string) (*sql.DB, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store tracker data, cause %w", dir, err)
	}
	dbfile := filepath.Join(dir, "nest.db")
	connstr := fmt.Sprintf("file:%v?_journal=wal&_foreign_keys=on&_busy_timeout=5000&mode=rwc", dbfile)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", dbfile, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping tracker database %v, cause %v", dbfile, err)
	}
	return conn, nil
}

func Open(ctx context.Context, dir string) (*Store, error) {
	conn, err := openTrackerDatabase(ctx, dir)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn}
	err = s.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init tracker database at %v, cause %v", dir, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists users(
			user_id text not null primary key,
			username text not null unique,
			password_hash text not null,
			display_name text,
			created_at integer not null,
			updated_at integer not null
		)`,
		`create table if not exists tasks(
			task_id text not null primary key,
			owner_id text not null,
			title text not null,
			description text,
			status text not null default 'PENDING'
				check (status in ('PENDING', 'COMPLETED')),
			created_at integer not null,
			updated_at integer not null,
			foreign key (owner_id) references users(user_id) on delete cascade
		)`,
		`create index if not exists idx_tasks_owner_id
			on tasks(owner_id)
		`,
		`create table if not exists sessions(
			token text not null primary key,
			token_hash64 integer not null,
			user_id text not null,
			state text not null default '',
			created_at integer not null,
			expires_at integer not null,
			foreign key (user_id) references users(user_id) on delete cascade
		)`,
		`create index if not exists idx_sessions_token_hash64
			on sessions(token_hash64)
		`,
		`create index if not exists idx_sessions_expires_at
			on sessions(expires_at)
		`,
	} {
		_, err := s.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
