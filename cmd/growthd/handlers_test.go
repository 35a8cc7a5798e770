package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/postloop/growthd/growth"
	"github.com/postloop/growthd/growth/jobhealth"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, *planstore.MemPlanStore) {
	plans := planstore.NewMemPlanStore()
	srv := &Server{
		logger:     slog.Default(),
		plans:      plans,
		heartbeats: jobhealth.NewMemHeartbeatStore(),
		jobName:    "growth_plan",
	}
	srv.setupAPI(prometheus.NewRegistry())
	return srv, plans
}

func doGet(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandlePlanWindow(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, plans := testServer(t)
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	require.NoError(plans.Upsert(context.Background(), &models.GrowthPlan{
		WindowStart:   start,
		WindowEnd:     start.Add(time.Hour),
		TargetPosts:   3,
		TargetReplies: 6,
	}))

	rec := doGet(srv, "/plan/2026-03-10T14:25:00Z")
	assert.Equal(http.StatusOK, rec.Code)
	var plan models.GrowthPlan
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(3, plan.TargetPosts)
	assert.True(plan.WindowStart.Equal(start))

	rec = doGet(srv, "/plan/2026-03-10T16:00:00Z")
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = doGet(srv, "/plan/yesterday")
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestHandlePlanCurrent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, plans := testServer(t)
	rec := doGet(srv, "/plan/current")
	assert.Equal(http.StatusNotFound, rec.Code)

	// only an old plan: served as the latest
	old := growth.WindowStart(time.Now()).Add(-3 * time.Hour)
	require.NoError(plans.Upsert(context.Background(), &models.GrowthPlan{WindowStart: old, WindowEnd: old.Add(time.Hour), TargetPosts: 1}))
	rec = doGet(srv, "/plan/current")
	assert.Equal(http.StatusOK, rec.Code)
	var plan models.GrowthPlan
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(1, plan.TargetPosts)
}

func TestHandleHealthCheck(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv, _ := testServer(t)
	rec := doGet(srv, "/_health")
	assert.Equal(http.StatusOK, rec.Code)

	require.NoError(srv.heartbeats.Record(context.Background(), "growth_plan", models.JobSucceeded, "", time.Now()))
	rec = doGet(srv, "/_health")
	assert.Equal(http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal("ok", status.Status)
	require.NotNil(status.Heartbeat)
	assert.Equal(models.JobSucceeded, status.Heartbeat.Status)
}
