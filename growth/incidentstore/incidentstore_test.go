package incidentstore

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testStoreBasics(t *testing.T, s IncidentStore) {
	assert := assert.New(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.NoError(s.Record(ctx, models.Incident{
			Type:      models.IncidentConsentWall,
			CreatedAt: now.Add(-time.Duration(i*10) * time.Minute),
			Detail:    "consent dialog",
		}))
	}
	// outside the trailing hour
	assert.NoError(s.Record(ctx, models.Incident{
		Type:      models.IncidentConsentWall,
		CreatedAt: now.Add(-2 * time.Hour),
	}))
	assert.NoError(s.Record(ctx, models.Incident{
		Type:      models.IncidentChallenge,
		CreatedAt: now.Add(-5 * time.Minute),
	}))

	n, err := s.Count(ctx, models.IncidentConsentWall, now.Add(-time.Hour), now.Add(time.Second))
	assert.NoError(err)
	assert.Equal(3, n)

	n, err = s.Count(ctx, models.IncidentChallenge, now.Add(-time.Hour), now.Add(time.Second))
	assert.NoError(err)
	assert.Equal(1, n)

	n, err = s.Count(ctx, models.IncidentPostFailure, now.Add(-time.Hour), now.Add(time.Second))
	assert.NoError(err)
	assert.Equal(0, n)

	// identical reports are separate incidents, and one at "now" is inside
	// the trailing window ending just after now
	for i := 0; i < 2; i++ {
		assert.NoError(s.Record(ctx, models.Incident{
			Type:      models.IncidentPostFailure,
			CreatedAt: now,
			Detail:    "x",
		}))
	}
	n, err = s.Count(ctx, models.IncidentPostFailure, now.Add(-time.Hour), now.Add(time.Nanosecond))
	assert.NoError(err)
	assert.Equal(2, n)

	n, err = s.Count(ctx, models.IncidentPostFailure, now.Add(-time.Hour), now)
	assert.NoError(err)
	assert.Equal(0, n)

	assert.Error(s.Record(ctx, models.Incident{Type: "BOGUS", CreatedAt: now}))
}

func TestMemIncidentStore(t *testing.T) {
	testStoreBasics(t, NewMemIncidentStore())
}

func TestGormIncidentStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqldb, err := db.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	require.NoError(t, models.RunAllMigrations(db))
	testStoreBasics(t, NewGormIncidentStore(db))
}

func TestRedisIncidentStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisIncidentStore("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer s.Client.Close()
	testStoreBasics(t, s)
}

func TestRedisScoreRange(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)

	min, max := scoreRange(now.Add(-time.Hour), now)
	assert.Equal(strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10), min)
	assert.Equal("("+strconv.FormatInt(now.UnixMilli(), 10), max)

	_, max = scoreRange(now.Add(-time.Hour), now.Add(time.Nanosecond))
	assert.Equal(strconv.FormatInt(now.UnixMilli(), 10), max)
}
