package jobhealth

import (
	"context"
	"testing"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testHeartbeats(t *testing.T, s HeartbeatStore) {
	assert := assert.New(t)
	ctx := context.Background()
	t0 := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Get(ctx, "growth_plan")
	assert.ErrorIs(err, ErrUnknownJob)

	assert.NoError(s.Record(ctx, "growth_plan", models.JobStarted, "", t0))
	assert.NoError(s.Record(ctx, "growth_plan", models.JobFailed, "upsert failed", t0.Add(time.Second)))

	hb, err := s.Get(ctx, "growth_plan")
	require.NoError(t, err)
	assert.Equal(models.JobFailed, hb.Status)
	assert.Equal("upsert failed", hb.LastError)
	assert.True(hb.LastStartedAt.Equal(t0))
	assert.True(hb.LastFailedAt.Equal(t0.Add(time.Second)))

	assert.NoError(s.Record(ctx, "growth_plan", models.JobStarted, "", t0.Add(time.Hour)))
	assert.NoError(s.Record(ctx, "growth_plan", models.JobSucceeded, "", t0.Add(time.Hour+time.Second)))
	hb, err = s.Get(ctx, "growth_plan")
	require.NoError(t, err)
	assert.Equal(models.JobSucceeded, hb.Status)
	assert.Empty(hb.LastError)
	// failure marker from the earlier run is kept
	assert.True(hb.LastFailedAt.Equal(t0.Add(time.Second)))
	assert.True(hb.LastSucceededAt.Equal(t0.Add(time.Hour + time.Second)))
}

func TestMemHeartbeatStore(t *testing.T) {
	s := NewMemHeartbeatStore()
	testHeartbeats(t, s)
	assert.Equal(t, 4, len(s.History["growth_plan"]))
}

func TestGormHeartbeatStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqldb, err := db.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	require.NoError(t, models.RunAllMigrations(db))
	testHeartbeats(t, NewGormHeartbeatStore(db))
}

func TestRedisHeartbeatStore(t *testing.T) {
	t.Skip("live test, need redis running locally")
	s, err := NewRedisHeartbeatStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}
	s.Client.Del(context.Background(), redisJobPrefix+"growth_plan")
	testHeartbeats(t, s)
}
