package eventlog

import (
	"context"
	"testing"

	"github.com/postloop/growthd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormEventLog(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqldb, err := db.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	require.NoError(t, models.RunAllMigrations(db))

	l := NewGormEventLog(db)
	assert.NoError(l.Emit(ctx, "growth_plan.created", map[string]any{"target_posts": 3}))
	assert.NoError(l.Emit(ctx, "growth_plan.reasoning", map[string]any{"trend": "flat"}))

	var events []models.AuditEvent
	require.NoError(t, db.Order("id asc").Find(&events).Error)
	assert.Equal(2, len(events))
	assert.Equal("growth_plan.created", events[0].Kind)
	// numbers come back from JSON as float64
	assert.Equal(3.0, events[0].Payload["target_posts"])
	assert.Equal("flat", events[1].Payload["trend"])
}

func TestMemEventLog(t *testing.T) {
	l := NewMemEventLog()
	assert.NoError(t, l.Emit(context.Background(), "a", nil))
	assert.NoError(t, l.Emit(context.Background(), "b", nil))
	assert.Equal(t, []string{"a", "b"}, l.Kinds())
}
