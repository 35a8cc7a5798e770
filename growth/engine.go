package growth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postloop/growthd/growth/aggstore"
	"github.com/postloop/growthd/growth/eventlog"
	"github.com/postloop/growthd/growth/incidentstore"
	"github.com/postloop/growthd/growth/jobhealth"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/growth/report"
	"github.com/postloop/growthd/growth/telemetry"
	"github.com/postloop/growthd/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	EventPlanCreated   = "growth_plan.created"
	EventPlanReasoning = "growth_plan.reasoning"
)

type Stage string

// A run moves through these stages in order. Any stage may exit to
// StageFailed, but only persist is allowed to fail.
const (
	StageStart            Stage = "start"
	StageAnalyze          Stage = "analyze"
	StageDetectResistance Stage = "detect_resistance"
	StageRecommend        Stage = "recommend"
	StageNormalizeWeights Stage = "normalize_weights"
	StageAssemble         Stage = "assemble"
	StagePersist          Stage = "persist"
	StageTrace            Stage = "trace"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

type Notifier interface {
	NotifyBackoff(ctx context.Context, plan *models.GrowthPlan) error
}

// Engine computes and commits one GrowthPlan per hourly window from outcome
// telemetry and platform resistance signals.
//
// The engine keeps no state between runs; everything lives in the stores.
// Events, Heartbeats, Report, Notifier and Feeds are optional.
type Engine struct {
	Logger     *slog.Logger
	Config     Config
	Telemetry  telemetry.Store
	Incidents  incidentstore.IncidentStore
	Aggregates aggstore.AggregateStore
	Feeds      FeedWeightProvider
	Plans      planstore.PlanStore
	Events     eventlog.EventLog
	Heartbeats jobhealth.HeartbeatStore
	Report     report.Report
	Notifier   Notifier
}

// state for a single run
type planRun struct {
	now         time.Time
	windowStart time.Time
	logger      *slog.Logger
	stage       Stage

	telemetry  Telemetry
	signals    Signals
	trend      Trend
	resistance Resistance

	// trend-based recommendations, before any backoff
	postsRecommended   CadenceRecommendation
	repliesRecommended CadenceRecommendation
	posts              CadenceRecommendation
	replies            CadenceRecommendation

	strategy    models.StrategyWeights
	feeds       models.FeedWeights
	exploration float64

	plan *models.GrowthPlan
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger == nil {
		return slog.Default()
	}
	return eng.Logger
}

// WindowStart floors t to the hour, in UTC.
func WindowStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// RunPlan computes the plan for the hourly window containing now and commits
// it, replacing any earlier plan for the same window. Only a failure to
// persist the plan is returned as an error; missing or unreadable inputs
// degrade to a conservative plan.
func (eng *Engine) RunPlan(ctx context.Context, now time.Time) (plan *models.GrowthPlan, err error) {
	ctx, span := tracer.Start(ctx, "growth.RunPlan")
	defer span.End()

	began := time.Now()
	run := &planRun{
		now:         now.UTC(),
		windowStart: WindowStart(now),
		stage:       StageStart,
	}
	run.logger = eng.logger().With("job", eng.Config.JobName, "window", run.windowStart.Format(time.RFC3339))
	span.SetAttributes(attribute.String("window", run.windowStart.Format(time.RFC3339)))

	eng.heartbeat(ctx, run, models.JobStarted, "")

	defer func() {
		// like an HTTP server, recover panics from stage execution
		if r := recover(); r != nil {
			err = fmt.Errorf("growth plan run panicked in %s: %v", run.stage, r)
		}
		planRunDuration.Observe(time.Since(began).Seconds())
		if err != nil {
			failed := run.stage
			run.stage = StageFailed
			stageFailureCount.WithLabelValues(string(failed)).Inc()
			planRunCount.WithLabelValues(string(models.JobFailed)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			run.logger.Error("growth plan run failed", "stage", failed, "err", err)
			eng.heartbeat(ctx, run, models.JobFailed, err.Error())
			plan = nil
			return
		}
		planRunCount.WithLabelValues(string(models.JobSucceeded)).Inc()
		eng.heartbeat(ctx, run, models.JobSucceeded, "")
	}()

	stages := []struct {
		stage Stage
		fn    func(context.Context, *planRun) error
	}{
		{StageAnalyze, eng.analyze},
		{StageDetectResistance, eng.detectResistance},
		{StageRecommend, eng.recommend},
		{StageNormalizeWeights, eng.normalizeWeights},
		{StageAssemble, eng.assemble},
		{StagePersist, eng.persist},
		{StageTrace, eng.trace},
	}
	for _, st := range stages {
		if err := eng.runStage(ctx, run, st.stage, st.fn); err != nil {
			return nil, err
		}
	}
	run.stage = StageDone
	eng.canonicalLogLine(run)
	return run.plan, nil
}

func (eng *Engine) runStage(ctx context.Context, run *planRun, stage Stage, fn func(context.Context, *planRun) error) error {
	run.stage = stage
	ctx, span := tracer.Start(ctx, "growth."+string(stage))
	defer span.End()
	run.logger.Debug("growth plan stage", "stage", stage)
	if err := fn(ctx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (eng *Engine) analyze(ctx context.Context, run *planRun) error {
	reader := TelemetryReader{
		Store:          eng.Telemetry,
		Logger:         run.logger,
		RewardLookback: eng.Config.RewardLookback,
		RecentWindow:   eng.Config.RecentWindow,
		Horizon:        eng.Config.PerformanceHorizon,
	}
	run.telemetry = reader.Read(ctx, run.now)
	run.trend = ClassifyTrend(run.telemetry.Recent, run.telemetry.Lookback)
	run.signals = Signals{
		FollowerDelta24h:  run.telemetry.FollowerDelta24h,
		AvgImpressions24h: run.telemetry.AvgImpressions24h,
		AvgBookmarks24h:   run.telemetry.AvgBookmarks24h,
	}
	return nil
}

func (eng *Engine) detectResistance(ctx context.Context, run *planRun) error {
	det := ResistanceDetector{
		Store:                eng.Incidents,
		Logger:               run.logger,
		Window:               eng.Config.IncidentWindow,
		ConsentWallThreshold: eng.Config.ConsentWallThreshold,
		PostFailureThreshold: eng.Config.PostFailureThreshold,
	}
	run.resistance = det.Detect(ctx, run.now)
	if run.resistance.ShouldBackoff {
		run.logger.Warn("platform resistance detected", "reason", run.resistance.Reason)
	}
	return nil
}

// currentCadence returns the targets of the most recent plan before this
// window, or the configured baselines if there is none.
func (eng *Engine) currentCadence(ctx context.Context, run *planRun) (int, int) {
	prev, err := eng.Plans.LatestBefore(ctx, run.windowStart)
	if err != nil {
		if !errors.Is(err, planstore.ErrNotFound) {
			telemetryReadErrors.WithLabelValues("plans").Inc()
			run.logger.Warn("previous plan unavailable, using baseline cadence", "err", err)
		}
		return eng.Config.Posts.Baseline, eng.Config.Replies.Baseline
	}
	return prev.TargetPosts, prev.TargetReplies
}

func (eng *Engine) recommend(ctx context.Context, run *planRun) error {
	curPosts, curReplies := eng.currentCadence(ctx, run)

	run.postsRecommended = NewCadenceRecommender(CadencePosts, eng.Config.Posts).Recommend(curPosts, run.trend, run.signals)
	run.repliesRecommended = NewCadenceRecommender(CadenceReplies, eng.Config.Replies).Recommend(curReplies, run.trend, run.signals)
	run.posts = run.postsRecommended
	run.replies = run.repliesRecommended

	// backoff always wins over the trend
	if run.resistance.ShouldBackoff {
		run.posts = ApplyBackoff(run.postsRecommended)
		run.replies = ApplyBackoff(run.repliesRecommended)
	}
	return nil
}

func (eng *Engine) normalizeWeights(ctx context.Context, run *planRun) error {
	norm := StrategyWeightNormalizer{
		Store:         eng.Aggregates,
		Logger:        run.logger,
		Window:        eng.Config.AggregateWindow,
		TopTopics:     eng.Config.TopTopics,
		TopFormats:    eng.Config.TopFormats,
		TopGenerators: eng.Config.TopGenerators,
	}
	run.strategy = norm.Weights(ctx, run.now)

	feeds := eng.Feeds
	if feeds == nil {
		feeds = &StaticFeedWeights{Weights: eng.Config.FeedWeights}
	}
	run.feeds = feeds.FeedWeights(ctx)
	run.exploration = ExplorationRate(run.trend.RewardVariance)
	return nil
}

func (eng *Engine) assemble(ctx context.Context, run *planRun) error {
	plan := &models.GrowthPlan{
		WindowStart:     run.windowStart,
		WindowEnd:       run.windowStart.Add(time.Hour),
		TargetPosts:     run.posts.After,
		TargetReplies:   run.replies.After,
		FeedWeights:     run.feeds,
		StrategyWeights: run.strategy,
		ExplorationRate: run.exploration,
		ReasonSummary:   reasonSummary(run.trend, run.signals, run.resistance, run.posts, run.replies),
	}
	if run.resistance.ShouldBackoff {
		plan.BackoffApplied = true
		plan.BackoffReason = run.resistance.Reason
	}
	run.plan = plan
	return nil
}

func (eng *Engine) persist(ctx context.Context, run *planRun) error {
	if err := eng.Plans.Upsert(ctx, run.plan); err != nil {
		return fmt.Errorf("persisting growth plan: %w", err)
	}
	targetPostsGauge.Set(float64(run.plan.TargetPosts))
	targetRepliesGauge.Set(float64(run.plan.TargetReplies))
	explorationRateGauge.Set(run.plan.ExplorationRate)
	if run.resistance.ShouldBackoff {
		backoffCount.WithLabelValues(string(run.resistance.Trigger)).Inc()
	}
	return nil
}

// trace writes the audit trail for a committed plan. Every write here is
// best-effort.
func (eng *Engine) trace(ctx context.Context, run *planRun) error {
	plan := run.plan
	if eng.Events != nil {
		err := eng.Events.Emit(ctx, EventPlanCreated, map[string]any{
			"plan": plan,
		})
		eng.sideEffectFailed(run, "event", err)

		err = eng.Events.Emit(ctx, EventPlanReasoning, map[string]any{
			"window_start":            plan.WindowStart,
			"reason_summary":          plan.ReasonSummary,
			"previous_target_posts":   run.posts.Before,
			"previous_target_replies": run.replies.Before,
			"recommended_posts":       run.postsRecommended.After,
			"recommended_replies":     run.repliesRecommended.After,
			"target_posts":            plan.TargetPosts,
			"target_replies":          plan.TargetReplies,
			"backoff_applied":         plan.BackoffApplied,
			"backoff_reason":          plan.BackoffReason,
			"trend": map[string]any{
				"label":               run.trend.Label,
				"avg_reward_24h":      run.trend.AvgReward24h,
				"avg_reward_72h":      run.trend.AvgReward72h,
				"reward_variance":     run.trend.RewardVariance,
				"follower_delta_24h":  run.signals.FollowerDelta24h,
				"avg_impressions_24h": run.signals.AvgImpressions24h,
				"avg_bookmarks_24h":   run.signals.AvgBookmarks24h,
				"samples_24h":         len(run.telemetry.Recent),
				"samples_72h":         len(run.telemetry.Lookback),
				"synthesized":         run.telemetry.Synthesized,
			},
			"incidents": map[string]any{
				"consent_walls": run.resistance.Counts.ConsentWalls,
				"post_failures": run.resistance.Counts.PostFailures,
				"challenges":    run.resistance.Counts.Challenges,
			},
		})
		eng.sideEffectFailed(run, "event", err)
	}

	if eng.Report != nil {
		block, err := report.RenderBlock(plan, run.now)
		if err == nil {
			err = eng.Report.Append(ctx, block)
		}
		eng.sideEffectFailed(run, "report", err)
	}

	if eng.Notifier != nil && plan.BackoffApplied {
		eng.sideEffectFailed(run, "notify", eng.Notifier.NotifyBackoff(ctx, plan))
	}
	return nil
}

// sideEffectFailed logs and counts a failed best-effort write; a nil error is
// a no-op. These failures never change the outcome of a run.
func (eng *Engine) sideEffectFailed(run *planRun, kind string, err error) {
	if err == nil {
		return
	}
	sideEffectErrorCount.WithLabelValues(kind).Inc()
	run.logger.Error("best-effort write failed", "kind", kind, "stage", run.stage, "err", err)
}

func (eng *Engine) heartbeat(ctx context.Context, run *planRun, status models.JobStatus, msg string) {
	if eng.Heartbeats == nil {
		return
	}
	err := eng.Heartbeats.Record(ctx, eng.Config.JobName, status, msg, time.Now())
	eng.sideEffectFailed(run, "heartbeat", err)
}

func (eng *Engine) canonicalLogLine(run *planRun) {
	run.logger.Info("growth plan committed",
		"trend", run.trend.Label,
		"avg_reward_24h", run.trend.AvgReward24h,
		"avg_reward_72h", run.trend.AvgReward72h,
		"target_posts", run.plan.TargetPosts,
		"target_replies", run.plan.TargetReplies,
		"exploration_rate", run.plan.ExplorationRate,
		"backoff", run.plan.BackoffApplied,
	)
}
