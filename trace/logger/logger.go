// Package logger provides a trace.Handler that logs evaluation events via
// slog.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/k-nishida/vexa/trace"
)

// Event represents a trace event type that can be selectively enabled.
type Event int

const (
	// Run enables logging of run start/end.
	Run Event = iota
	// Task enables logging of task start/end.
	Task
	// Episode enables logging of episode start/end.
	Episode
	// Motion enables logging of per-step similarity records.
	Motion

	eventCount // sentinel for iteration
)

type config struct {
	logger *slog.Logger
	events map[Event]bool
}

// Option configures the logger handler.
type Option func(*config)

// WithLogger sets a custom slog.Logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEvents enables only the specified event types.
// When not specified, all events are enabled.
func WithEvents(events ...Event) Option {
	return func(c *config) {
		c.events = make(map[Event]bool, len(events))
		for _, e := range events {
			c.events[e] = true
		}
	}
}

// handler implements trace.Handler by logging events via slog.
type handler struct {
	cfg config
}

// New creates a new trace.Handler that logs trace events via slog.
// By default, all events are enabled. Use WithEvents to enable only specific
// events.
func New(opts ...Option) trace.Handler {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Default: all events enabled
	if cfg.events == nil {
		cfg.events = make(map[Event]bool, eventCount)
		for i := Event(0); i < eventCount; i++ {
			cfg.events[i] = true
		}
	}

	return &handler{cfg: cfg}
}

func (h *handler) logger() *slog.Logger {
	if h.cfg.logger != nil {
		return h.cfg.logger
	}
	return slog.Default()
}

func (h *handler) enabled(e Event) bool {
	return h.cfg.events[e]
}

// context key for storing span start time
type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func startTimeFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

func (h *handler) StartRun(ctx context.Context, run *trace.RunInfo) context.Context {
	if h.enabled(Run) {
		h.logger().InfoContext(ctx, "run started",
			slog.String("run_id", run.RunID),
			slog.String("suite", run.Suite),
			slog.Int("trials_per_task", run.Trials),
			slog.Int("max_steps", run.MaxSteps),
		)
	}
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndRun(ctx context.Context, stats *trace.RunStats, err error) {
	if !h.enabled(Run) {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.Int("episodes", stats.Episodes),
		slog.Int("successes", stats.Successes),
		slog.Float64("success_rate", stats.SuccessRate),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "run ended", attrs...)
}

func (h *handler) StartTask(ctx context.Context, task *trace.TaskInfo) context.Context {
	if h.enabled(Task) {
		h.logger().InfoContext(ctx, "task started",
			slog.String("task", task.Task),
			slog.String("instruction", task.Instruction),
		)
	}
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndTask(ctx context.Context, stats *trace.TaskStats) {
	if !h.enabled(Task) {
		return
	}

	h.logger().InfoContext(ctx, "task ended",
		slog.String("task", stats.Task),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.Int("episodes", stats.Episodes),
		slog.Int("successes", stats.Successes),
		slog.Float64("success_rate", stats.SuccessRate),
		slog.Float64("total_rate", stats.TotalRate),
	)
}

func (h *handler) StartEpisode(ctx context.Context, ep *trace.EpisodeInfo) context.Context {
	if h.enabled(Episode) {
		h.logger().InfoContext(ctx, "episode started",
			slog.String("task", ep.Task),
			slog.Int("episode", ep.Episode),
			slog.Int("task_episode", ep.TaskEpisode),
		)
	}
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndEpisode(ctx context.Context, stats *trace.EpisodeStats) {
	if !h.enabled(Episode) {
		return
	}

	attrs := []any{
		slog.Int("episode", stats.Episode),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.Bool("success", stats.Success),
		slog.Int("steps", stats.Steps),
		slog.Int("replans", stats.Replans),
		slog.Int("total_episodes", stats.TotalEpisodes),
		slog.Int("total_successes", stats.TotalSuccesses),
		slog.Float64("avg_steps", stats.AvgSteps),
	}
	if stats.Failure != "" {
		attrs = append(attrs, slog.String("failure", stats.Failure))
	}
	h.logger().InfoContext(ctx, "episode ended", attrs...)
}

func (h *handler) Motion(ctx context.Context, rec *trace.MotionRecord) {
	if !h.enabled(Motion) {
		return
	}

	h.logger().DebugContext(ctx, "motion similarity",
		slog.Float64("xyz_magnitude", rec.XYZMagnitude),
		slog.Float64("xyz_cosine", rec.XYZCosine),
		slog.Float64("rot_magnitude", rec.RotMagnitude),
		slog.Float64("rot_cosine", rec.RotCosine),
	)
}

// Finish is a no-op for the logger handler; there is nothing to flush.
func (h *handler) Finish(_ context.Context) error {
	return nil
}
