package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *models.GrowthPlan {
	start := time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC)
	return &models.GrowthPlan{
		WindowStart:     start,
		WindowEnd:       start.Add(time.Hour),
		TargetPosts:     3,
		TargetReplies:   6,
		ExplorationRate: 0.2,
		ReasonSummary:   "Trend increasing.",
		StrategyWeights: models.StrategyWeights{
			Topics: []models.WeightEntry{
				{Value: "sleep", Weight: 0.6},
				{Value: "nutrition", Weight: 0.4},
			},
		},
	}
}

func TestRenderBlock(t *testing.T) {
	assert := assert.New(t)
	plan := samplePlan()

	out, err := RenderBlock(plan, plan.WindowStart.Add(time.Minute))
	require.NoError(t, err)
	assert.Contains(out, "2026-10-01T14:00:00Z to 2026-10-01T15:00:00Z")
	assert.Contains(out, "Targets: 3 posts/hour, 6 replies/hour")
	assert.Contains(out, "Exploration rate: 0.20")
	assert.Contains(out, "Top topics: sleep (0.600), nutrition (0.400)")
	assert.Contains(out, "Top formats: none yet")
	assert.NotContains(out, "Backoff:")

	plan.BackoffApplied = true
	plan.BackoffReason = "CHALLENGE detected: 1 in last hour"
	out, err = RenderBlock(plan, plan.WindowStart)
	require.NoError(t, err)
	assert.Contains(out, "Backoff: CHALLENGE detected: 1 in last hour")
}

func TestFileReportAppends(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports", "growth.txt")

	r := NewFileReport(path)
	assert.NoError(r.Append(ctx, "first block"))
	assert.NoError(r.Append(ctx, "second block\n"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("first block\n\nsecond block\n\n", string(b))
	assert.Equal(2, strings.Count(string(b), "block"))
}
