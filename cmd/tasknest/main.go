package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tasknest/tasknest/cmd/tasknest/serve"
	"github.com/tasknest/tasknest/cmd/tasknest/sessions"
	"github.com/tasknest/tasknest/cmd/tasknest/users"
	"github.com/tasknest/tasknest/internal/logutil"
	"github.com/urfave/cli/v2"
)

func main() {
	// missing .env is fine, flags and real env vars still apply
	godotenv.Load()
	logLevel := "info"
	app := &cli.App{
		Name:  "tasknest",
		Usage: "Keep track of your tasks, keep them to yourself!",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (trace, debug, info, warn, error)",
				EnvVars:     []string{"TASKNEST_LOG_LEVEL"},
				Value:       logLevel,
				Destination: &logLevel,
			},
		},
		Before: func(ctx *cli.Context) error {
			logutil.Configure(logLevel)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
			sessions.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
