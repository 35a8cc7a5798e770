package growth

import (
	"testing"
	"time"

	"github.com/postloop/growthd/models"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())
	assert.InDelta(1.0, cfg.FeedWeights.Sum(), 1e-9)

	cfg = DefaultConfig()
	cfg.Posts.Max = 0
	assert.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.Replies.Step = 0
	assert.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.ConsentWallThreshold = 0
	assert.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.RecentWindow = 96 * time.Hour
	assert.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.JobName = ""
	assert.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.FeedWeights = models.FeedWeights{CuratedAccounts: 1, KeywordSearch: 1, ViralWatcher: 1, NewAccounts: 1}
	assert.NoError(cfg.Validate())
	assert.InDelta(0.25, cfg.FeedWeights.ViralWatcher, 1e-9)
}
