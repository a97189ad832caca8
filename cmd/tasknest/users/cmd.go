package users

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tasknest/tasknest/auth"
	"github.com/tasknest/tasknest/internal/cmdflags"
	"github.com/tasknest/tasknest/tracker"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var store *tracker.Store
	var dataDir string
	return &cli.Command{
		Name:  "users",
		Usage: "Operator commands against the credential store",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			store, err = tracker.Open(ctx.Context, dataDir)
			return err
		},
		After: func(ctx *cli.Context) error {
			if store != nil {
				return store.Close()
			}
			return nil
		},
		Subcommands: []*cli.Command{
			registerCmd(&store),
			listCmd(&store),
		},
	}
}

func registerCmd(store **tracker.Store) *cli.Command {
	var username string
	var name string
	cost := auth.DefaultCost
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user to register",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "name",
				Usage:       "Optional display name",
				Destination: &name,
			},
			&cli.IntFlag{
				Name:        "bcrypt-cost",
				Usage:       "Cost factor for password hashing",
				Value:       cost,
				Destination: &cost,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			digest, err := auth.NewHasher(cost).Hash(password)
			if err != nil {
				return err
			}
			var displayName *string
			if name != "" {
				displayName = &name
			}
			user, err := (*store).CreateUser(ctx.Context, username, digest, displayName)
			if err != nil {
				return err
			}
			fmt.Println(user.ID)
			return nil
		},
	}
}

func listCmd(store **tracker.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every registered user, newest first",
		Action: func(ctx *cli.Context) error {
			users, err := (*store).ListUsers(ctx.Context)
			if err != nil {
				return err
			}
			for _, u := range users {
				name := ""
				if u.Name != nil {
					name = *u.Name
				}
				fmt.Printf("%v\t%v\t%v\t%v\n", u.ID, u.Username, name, u.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
