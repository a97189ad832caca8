package sessions

import (
	"fmt"

	"github.com/tasknest/tasknest/internal/cmdflags"
	"github.com/tasknest/tasknest/tracker"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var dataDir string
	return &cli.Command{
		Name:  "sessions",
		Usage: "Operator commands against the session store",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
		},
		Subcommands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Remove every expired session record",
				Action: func(ctx *cli.Context) error {
					store, err := tracker.Open(ctx.Context, dataDir)
					if err != nil {
						return err
					}
					defer store.Close()
					purged, err := store.PurgeExpiredSessions(ctx.Context)
					if err != nil {
						return err
					}
					fmt.Printf("purged %v expired sessions\n", purged)
					return nil
				},
			},
		},
	}
}
