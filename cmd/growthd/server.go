package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/postloop/growthd/growth"
	"github.com/postloop/growthd/growth/aggstore"
	"github.com/postloop/growthd/growth/eventlog"
	"github.com/postloop/growthd/growth/incidentstore"
	"github.com/postloop/growthd/growth/jobhealth"
	"github.com/postloop/growthd/growth/notify"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/growth/report"
	"github.com/postloop/growthd/growth/telemetry"
	"github.com/postloop/growthd/models"
	"github.com/postloop/growthd/util"
	"github.com/postloop/growthd/util/cliutil"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Server struct {
	logger     *slog.Logger
	db         *gorm.DB
	engine     *growth.Engine
	plans      planstore.PlanStore
	heartbeats jobhealth.HeartbeatStore
	jobName    string

	echo  *echo.Echo
	httpd *http.Server

	// closed on shutdown (redis clients)
	closers []func() error
}

func openDatabase(cctx *cli.Context) (*gorm.DB, error) {
	return cliutil.SetupDatabase(cctx.String("database-url"), cliutil.DatabaseOptions{
		MaxConnections: cctx.Int("max-db-connections"),
		Tracing:        cctx.Bool("db-tracing"),
	})
}

// incident log lives in redis when configured, otherwise in the database
func incidentStore(cctx *cli.Context, db *gorm.DB) (incidentstore.IncidentStore, error) {
	if cctx.String("redis-url") == "" {
		return incidentstore.NewGormIncidentStore(db), nil
	}
	ris, err := incidentstore.NewRedisIncidentStore(cctx.String("redis-url"))
	if err != nil {
		return nil, fmt.Errorf("connecting to redis for incidents: %w", err)
	}
	return ris, nil
}

func NewServer(cctx *cli.Context, logger *slog.Logger) (*Server, error) {
	return newServer(cctx, logger, prometheus.DefaultRegisterer)
}

func newServer(cctx *cli.Context, logger *slog.Logger, reg prometheus.Registerer) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	config, err := growthConfig(cctx)
	if err != nil {
		return nil, fmt.Errorf("invalid growth config: %w", err)
	}

	db, err := openDatabase(cctx)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		logger:  logger,
		db:      db,
		plans:   planstore.NewGormPlanStore(db),
		jobName: config.JobName,
	}
	if err := srv.setupEngine(cctx, config); err != nil {
		srv.Close()
		return nil, err
	}
	srv.setupAPI(reg)
	return srv, nil
}

func (s *Server) setupEngine(cctx *cli.Context, config growth.Config) error {
	if err := models.RunAllMigrations(s.db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	incidents, err := incidentStore(cctx, s.db)
	if err != nil {
		return err
	}
	var heartbeats jobhealth.HeartbeatStore
	if ris, ok := incidents.(*incidentstore.RedisIncidentStore); ok {
		s.closers = append(s.closers, ris.Close)
		rhs, err := jobhealth.NewRedisHeartbeatStore(cctx.String("redis-url"))
		if err != nil {
			return fmt.Errorf("connecting to redis for heartbeats: %w", err)
		}
		s.closers = append(s.closers, rhs.Client.Close)
		heartbeats = rhs
		s.logger.Info("using redis for incidents and heartbeats")
	} else {
		heartbeats = jobhealth.NewGormHeartbeatStore(s.db)
	}
	s.heartbeats = heartbeats

	eng := growth.Engine{
		Logger:     s.logger,
		Config:     config,
		Telemetry:  telemetry.NewGormStore(s.db),
		Incidents:  incidents,
		Aggregates: aggstore.NewGormAggregateStore(s.db),
		Feeds:      &growth.StaticFeedWeights{Weights: config.FeedWeights},
		Plans:      s.plans,
		Events:     eventlog.NewGormEventLog(s.db),
		Heartbeats: heartbeats,
	}
	if path := cctx.String("report-path"); path != "" {
		eng.Report = report.NewFileReport(path)
	}
	if url := cctx.String("slack-webhook-url"); url != "" {
		sn := notify.NewSlackNotifier(url, util.RobustHTTPClient(s.logger))
		// at most two messages per 15 minutes
		sn.Limiter = rate.NewLimiter(rate.Every(15*time.Minute), 2)
		eng.Notifier = sn
	}
	s.engine = &eng
	return nil
}

func (s *Server) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.logger.Warn("failed to close client", "err", err)
		}
	}
	closeDatabase(s.logger, s.db)
}

func closeDatabase(logger *slog.Logger, db *gorm.DB) {
	if db == nil {
		return
	}
	sqldb, err := db.DB()
	if err != nil {
		return
	}
	if err := sqldb.Close(); err != nil {
		logger.Warn("failed to close database", "err", err)
	}
}

// closes the incident store's client, if it holds one
func closeIncidentStore(logger *slog.Logger, s incidentstore.IncidentStore) {
	c, ok := s.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close incident store", "err", err)
	}
}

func (s *Server) runOnce(ctx context.Context, now time.Time) {
	// failures are already logged and recorded by the engine; the next hour
	// gets a fresh attempt
	_, _ = s.engine.RunPlan(ctx, now)
}

// RunScheduler computes a plan at the top of every hour until ctx is done.
func (s *Server) RunScheduler(ctx context.Context, runAtStart bool) error {
	if runAtStart {
		s.runOnce(ctx, time.Now())
	}
	for {
		next := growth.WindowStart(time.Now()).Add(time.Hour)
		s.logger.Debug("waiting for next window", "next", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			s.runOnce(ctx, time.Now())
		}
	}
}

// RunAPI serves the plan API until ctx is done, then shuts down gracefully.
func (s *Server) RunAPI(ctx context.Context, bind string) error {
	s.httpd = &http.Server{
		Handler:        s.echo,
		Addr:           bind,
		WriteTimeout:   time.Minute,
		ReadTimeout:    time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	return s.serve(ctx, s.httpd, "api")
}

func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return s.serve(ctx, &http.Server{Addr: listen, Handler: mux}, "metrics")
}

func (s *Server) serve(ctx context.Context, httpd *http.Server, name string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "name", name, "bind", httpd.Addr)
		if err := httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("%s server: %w", name, err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpd.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "name", name, "err", err)
	}
	return nil
}
