package main

import (
	"github.com/postloop/growthd/growth"
	"github.com/postloop/growthd/models"

	cli "github.com/urfave/cli/v2"
)

// flags for commands which run the controller. Fresh values each call, since
// urfave/cli writes env values back into flag structs.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "posts-min",
			Value:   growth.DefaultConfig().Posts.Min,
			EnvVars: []string{"GROWTH_POSTS_MIN"},
		},
		&cli.IntFlag{
			Name:    "posts-max",
			Value:   growth.DefaultConfig().Posts.Max,
			EnvVars: []string{"GROWTH_POSTS_MAX"},
		},
		&cli.IntFlag{
			Name:    "posts-step",
			Usage:   "largest change in posts per hour between adjacent windows",
			Value:   growth.DefaultConfig().Posts.Step,
			EnvVars: []string{"GROWTH_POSTS_STEP"},
		},
		&cli.IntFlag{
			Name:    "posts-baseline",
			Usage:   "posts per hour assumed when no earlier plan exists",
			Value:   growth.DefaultConfig().Posts.Baseline,
			EnvVars: []string{"GROWTH_POSTS_BASELINE"},
		},
		&cli.IntFlag{
			Name:    "replies-min",
			Value:   growth.DefaultConfig().Replies.Min,
			EnvVars: []string{"GROWTH_REPLIES_MIN"},
		},
		&cli.IntFlag{
			Name:    "replies-max",
			Value:   growth.DefaultConfig().Replies.Max,
			EnvVars: []string{"GROWTH_REPLIES_MAX"},
		},
		&cli.IntFlag{
			Name:    "replies-step",
			Value:   growth.DefaultConfig().Replies.Step,
			EnvVars: []string{"GROWTH_REPLIES_STEP"},
		},
		&cli.IntFlag{
			Name:    "replies-baseline",
			Value:   growth.DefaultConfig().Replies.Baseline,
			EnvVars: []string{"GROWTH_REPLIES_BASELINE"},
		},
		&cli.IntFlag{
			Name:    "consent-wall-threshold",
			Usage:   "consent walls in the last hour which trigger a backoff",
			Value:   growth.DefaultConfig().ConsentWallThreshold,
			EnvVars: []string{"GROWTH_CONSENT_WALL_THRESHOLD"},
		},
		&cli.IntFlag{
			Name:    "post-failure-threshold",
			Usage:   "post failures in the last hour which trigger a backoff",
			Value:   growth.DefaultConfig().PostFailureThreshold,
			EnvVars: []string{"GROWTH_POST_FAILURE_THRESHOLD"},
		},
		&cli.Float64Flag{
			Name:    "feed-weight-curated",
			Value:   growth.DefaultFeedWeights().CuratedAccounts,
			EnvVars: []string{"GROWTH_FEED_WEIGHT_CURATED"},
		},
		&cli.Float64Flag{
			Name:    "feed-weight-keyword",
			Value:   growth.DefaultFeedWeights().KeywordSearch,
			EnvVars: []string{"GROWTH_FEED_WEIGHT_KEYWORD"},
		},
		&cli.Float64Flag{
			Name:    "feed-weight-viral",
			Value:   growth.DefaultFeedWeights().ViralWatcher,
			EnvVars: []string{"GROWTH_FEED_WEIGHT_VIRAL"},
		},
		&cli.Float64Flag{
			Name:    "feed-weight-new",
			Value:   growth.DefaultFeedWeights().NewAccounts,
			EnvVars: []string{"GROWTH_FEED_WEIGHT_NEW"},
		},
		&cli.StringFlag{
			Name:    "report-path",
			Usage:   "text file to append a block to for every plan (optional)",
			Value:   "data/growthd/growth_report.txt",
			EnvVars: []string{"GROWTHD_REPORT_PATH"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook, notified when a plan backs off",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
	}
}

func growthConfig(cctx *cli.Context) (growth.Config, error) {
	cfg := growth.DefaultConfig()
	cfg.Posts = growth.CadenceBounds{
		Min:      cctx.Int("posts-min"),
		Max:      cctx.Int("posts-max"),
		Step:     cctx.Int("posts-step"),
		Baseline: cctx.Int("posts-baseline"),
	}
	cfg.Replies = growth.CadenceBounds{
		Min:      cctx.Int("replies-min"),
		Max:      cctx.Int("replies-max"),
		Step:     cctx.Int("replies-step"),
		Baseline: cctx.Int("replies-baseline"),
	}
	cfg.ConsentWallThreshold = cctx.Int("consent-wall-threshold")
	cfg.PostFailureThreshold = cctx.Int("post-failure-threshold")
	cfg.FeedWeights = models.FeedWeights{
		CuratedAccounts: cctx.Float64("feed-weight-curated"),
		KeywordSearch:   cctx.Float64("feed-weight-keyword"),
		ViralWatcher:    cctx.Float64("feed-weight-viral"),
		NewAccounts:     cctx.Float64("feed-weight-new"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
