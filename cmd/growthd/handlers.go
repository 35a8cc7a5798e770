package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/postloop/growthd/growth"
	"github.com/postloop/growthd/growth/jobhealth"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/models"
	"github.com/postloop/growthd/util"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthStatus struct {
	Status    string               `json:"status"`
	Message   string               `json:"msg,omitempty"`
	Heartbeat *models.JobHeartbeat `json:"heartbeat,omitempty"`
}

// plan consumers are read-only; there are no write endpoints
func (s *Server) setupAPI(reg prometheus.Registerer) {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("growthd"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "growthd",
		Registerer: reg,
	}))
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/_health", s.HandleHealthCheck)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/plan/current", s.HandlePlanCurrent)
	e.GET("/plan/:window_start", s.HandlePlanWindow)
	s.echo = e
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var msg string
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		s.logger.Warn("growthd-http-internal-error", "err", err)
		msg = "internal server error"
	}
	if !c.Response().Committed {
		_ = c.JSON(code, GenericError{Error: http.StatusText(code), Message: msg})
	}
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	if s.db != nil {
		sqldb, err := s.db.DB()
		if err == nil {
			err = sqldb.PingContext(ctx)
		}
		if err != nil {
			s.logger.Error("database health check failed", "err", err)
			return c.JSON(http.StatusServiceUnavailable, HealthStatus{Status: "error", Message: "database not available"})
		}
	}
	resp := HealthStatus{Status: "ok"}
	if s.heartbeats != nil {
		hb, err := s.heartbeats.Get(ctx, s.jobName)
		if err != nil && !errors.Is(err, jobhealth.ErrUnknownJob) {
			resp.Message = "heartbeat not available"
		}
		resp.Heartbeat = hb
	}
	return c.JSON(http.StatusOK, resp)
}

// HandlePlanCurrent returns the plan for the current hour, falling back to the
// most recent committed plan.
func (s *Server) HandlePlanCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	plan, err := s.plans.Get(ctx, growth.WindowStart(time.Now()))
	if errors.Is(err, planstore.ErrNotFound) {
		plan, err = s.plans.Latest(ctx)
	}
	if errors.Is(err, planstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no plan has been committed yet")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// HandlePlanWindow returns the plan for the hour containing the given
// timestamp.
func (s *Server) HandlePlanWindow(c echo.Context) error {
	ts, err := util.ParseTimestamp(c.Param("window_start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	plan, err := s.plans.Get(c.Request().Context(), growth.WindowStart(ts))
	if errors.Is(err, planstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no plan for window")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}
