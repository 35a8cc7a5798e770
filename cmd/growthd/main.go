package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/postloop/growthd/growth"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/models"
	"github.com/postloop/growthd/util"
	"github.com/postloop/growthd/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "growthd",
		Usage:   "adaptive growth controller daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = globalFlags()

	app.Commands = []*cli.Command{
		runCmd,
		planCmd,
		showPlanCmd,
		recordIncidentCmd,
		migrateCmd,
	}

	return app.Run(args)
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database connection string for telemetry, plans and audit events",
			Value:   "sqlite://data/growthd/growthd.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   20,
		},
		&cli.BoolFlag{
			Name:    "db-tracing",
			Usage:   "emit OpenTelemetry spans for database queries",
			EnvVars: []string{"GROWTHD_DB_TRACING"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis server for the incident log and job heartbeats (optional; database used if not set)",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"GROWTHD_LOG_LEVEL", "LOG_LEVEL"},
		},
	}
}

func configLogging(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel: cctx.String("log-level"),
	})
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the hourly controller, with the plan API and metrics",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3990",
			EnvVars: []string{"GROWTHD_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"GROWTHD_METRICS_LISTEN"},
		},
		&cli.BoolFlag{
			Name:    "run-at-start",
			Usage:   "compute the plan for the current hour immediately, instead of waiting for the next hour",
			Value:   true,
			EnvVars: []string{"GROWTHD_RUN_AT_START"},
		},
	}, engineFlags()...),
	Action: func(cctx *cli.Context) error {
		logger, err := configLogging(cctx)
		if err != nil {
			return err
		}

		shutdownOTEL, err := configOTEL(cctx.Context, "growthd")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(cctx, logger)
		if err != nil {
			return err
		}
		defer srv.Close()

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.RunScheduler(gctx, cctx.Bool("run-at-start"))
		})
		g.Go(func() error {
			return srv.RunAPI(gctx, cctx.String("bind"))
		})
		g.Go(func() error {
			return srv.RunMetrics(gctx, cctx.String("metrics-listen"))
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to run growth controller: %w", err)
		}
		logger.Info("graceful shutdown complete")
		return nil
	},
}

var planCmd = &cli.Command{
	Name:      "plan",
	Usage:     "compute and commit the plan for a single hourly window",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "at",
			Usage: "timestamp inside the window to plan (default: now)",
		},
	}, engineFlags()...),
	Action: func(cctx *cli.Context) error {
		logger, err := configLogging(cctx)
		if err != nil {
			return err
		}
		now := time.Now()
		if raw := cctx.String("at"); raw != "" {
			now, err = util.ParseTimestamp(raw)
			if err != nil {
				return err
			}
		}

		srv, err := NewServer(cctx, logger)
		if err != nil {
			return err
		}
		defer srv.Close()

		plan, err := srv.engine.RunPlan(cctx.Context, now)
		if err != nil {
			return err
		}
		return printJSON(plan)
	},
}

var showPlanCmd = &cli.Command{
	Name:      "show-plan",
	Usage:     "print a committed plan as JSON",
	ArgsUsage: "[<window-start>]",
	Action: func(cctx *cli.Context) error {
		if _, err := configLogging(cctx); err != nil {
			return err
		}
		db, err := openDatabase(cctx)
		if err != nil {
			return err
		}
		defer closeDatabase(slog.Default(), db)
		plans := planstore.NewGormPlanStore(db)

		var plan *models.GrowthPlan
		if cctx.Args().Len() > 0 {
			ts, err := util.ParseTimestamp(cctx.Args().First())
			if err != nil {
				return err
			}
			plan, err = plans.Get(cctx.Context, growth.WindowStart(ts))
			if err != nil {
				return err
			}
		} else {
			plan, err = plans.Latest(cctx.Context)
			if err != nil {
				return err
			}
		}
		return printJSON(plan)
	},
}

var recordIncidentCmd = &cli.Command{
	Name:      "record-incident",
	Usage:     "append a platform resistance incident to the incident log",
	ArgsUsage: "<CONSENT_WALL|POST_FAILURE|CHALLENGE>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "detail",
			Usage: "free-form description of the incident",
		},
		&cli.StringFlag{
			Name:  "at",
			Usage: "when the incident happened (default: now)",
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogging(cctx)
		if err != nil {
			return err
		}
		if cctx.Args().Len() != 1 {
			return fmt.Errorf("expected exactly one incident type argument")
		}
		typ, err := models.ParseIncidentType(cctx.Args().First())
		if err != nil {
			return err
		}
		at := time.Now().UTC()
		if raw := cctx.String("at"); raw != "" {
			at, err = util.ParseTimestamp(raw)
			if err != nil {
				return err
			}
		}

		db, err := openDatabase(cctx)
		if err != nil {
			return err
		}
		defer closeDatabase(logger, db)
		incidents, err := incidentStore(cctx, db)
		if err != nil {
			return err
		}
		defer closeIncidentStore(logger, incidents)
		inc := models.Incident{
			CreatedAt: at,
			Type:      typ,
			Detail:    cctx.String("detail"),
		}
		if err := incidents.Record(cctx.Context, inc); err != nil {
			return err
		}
		logger.Info("recorded incident", "type", typ, "at", at)
		return nil
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create or update database tables",
	Action: func(cctx *cli.Context) error {
		logger, err := configLogging(cctx)
		if err != nil {
			return err
		}
		db, err := openDatabase(cctx)
		if err != nil {
			return err
		}
		defer closeDatabase(logger, db)
		if err := models.RunAllMigrations(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("migrations complete")
		return nil
	},
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
