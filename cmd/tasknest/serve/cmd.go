package serve

import (
	"context"
	"time"

	"github.com/tasknest/tasknest/api"
	"github.com/tasknest/tasknest/auth"
	authapi "github.com/tasknest/tasknest/auth/api"
	"github.com/tasknest/tasknest/internal/cmdflags"
	"github.com/tasknest/tasknest/internal/httpserver"
	"github.com/tasknest/tasknest/internal/logutil"
	"github.com/tasknest/tasknest/tracker"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7020"
	var dataDir string
	sessionTTL := authapi.DefaultSessionTTL
	purgeEvery := time.Hour
	bcryptCost := auth.DefaultCost
	secureCookies := false
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the TaskNest HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind the API server to",
				EnvVars:     []string{"TASKNEST_BIND"},
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.DataDir(&dataDir),
			&cli.DurationFlag{
				Name:        "session-ttl",
				Usage:       "Fixed lifetime of a session, counted from login",
				EnvVars:     []string{"TASKNEST_SESSION_TTL"},
				Value:       sessionTTL,
				Destination: &sessionTTL,
			},
			&cli.DurationFlag{
				Name:        "purge-interval",
				Usage:       "How often expired sessions are swept from the store",
				Value:       purgeEvery,
				Destination: &purgeEvery,
			},
			&cli.IntFlag{
				Name:        "bcrypt-cost",
				Usage:       "Cost factor for password hashing",
				EnvVars:     []string{"TASKNEST_BCRYPT_COST"},
				Value:       bcryptCost,
				Destination: &bcryptCost,
			},
			&cli.BoolFlag{
				Name:        "secure-cookies",
				Usage:       "Mark session cookies as Secure (enable behind TLS)",
				EnvVars:     []string{"TASKNEST_SECURE_COOKIES"},
				Value:       secureCookies,
				Destination: &secureCookies,
			},
		},
		Action: func(ctx *cli.Context) error {
			store, err := tracker.Open(ctx.Context, dataDir)
			if err != nil {
				return err
			}
			defer store.Close()
			sessions, err := auth.NewCachedSessions(store)
			if err != nil {
				return err
			}
			realm := authapi.NewSecurityRealm(store,
				sessions,
				auth.NewHasher(bcryptCost),
				sessionTTL, secureCookies)
			go sweepSessions(ctx.Context, store, purgeEvery)
			return httpserver.Serve(ctx.Context, bindAddr, api.Handler(store, realm))
		},
	}
}

// sweepSessions keeps the sessions table from accumulating records that
// expired without an explicit logout.
func sweepSessions(ctx context.Context, store *tracker.Store, every time.Duration) {
	log := logutil.GetOrDefault(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Unable to purge expired sessions")
				continue
			}
			if purged > 0 {
				log.Info().Int64("sessions", purged).Msg("Purged expired sessions")
			}
		}
	}
}
