// Package vexa evaluates a learned robot-control policy in closed-loop
// simulation over a suite of manipulation tasks. It drives the per-episode
// control loop (settling, acting, termination), normalizes policy actions
// into the environment's command convention, optionally re-queries the
// policy when its intended motion direction changes (replanning), and
// aggregates per-task and per-run success tallies. The simulator and the
// policy itself are external collaborators behind the Environment and Policy
// interfaces.
package vexa

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/k-nishida/vexa/results"
	"github.com/k-nishida/vexa/trace"
)

// Default run parameters.
const (
	DefaultNumStepsWait  = 10
	DefaultTrialsPerTask = 50
)

// Runner evaluates a policy over a task suite: tasks, trials and steps are
// processed strictly sequentially by a single goroutine.
type Runner struct {
	policy Policy
	env    Environment

	runnerConfig
}

type runnerConfig struct {
	numStepsWait    int
	trialsPerTask   int
	binarizeGripper bool
	invertGripper   bool
	replan          *ReplanPolicy

	handler     trace.Handler
	replays     trace.ReplaySink
	resultStore *results.Store
	configKey   string
	paramKey    string

	logger *slog.Logger
}

// Option is the type for the options of the Runner.
type Option func(*runnerConfig)

// WithNumStepsWait sets how many no-op settling steps are executed before
// control begins. Default is 10.
func WithNumStepsWait(n int) Option {
	return func(c *runnerConfig) {
		c.numStepsWait = n
	}
}

// WithTrialsPerTask sets how many episodes are run per task. Default is 50.
func WithTrialsPerTask(n int) Option {
	return func(c *runnerConfig) {
		c.trialsPerTask = n
	}
}

// WithBinarizeGripper controls whether the normalized gripper command is
// snapped to fully-open/fully-closed. Default is true.
func WithBinarizeGripper(v bool) Option {
	return func(c *runnerConfig) {
		c.binarizeGripper = v
	}
}

// WithInvertGripper controls whether the gripper sign is flipped after
// normalization to reconcile the training-time labeling convention with the
// execution-time convention. Default is true.
func WithInvertGripper(v bool) Option {
	return func(c *runnerConfig) {
		c.invertGripper = v
	}
}

// WithReplan enables motion-similarity-gated replanning with the given
// thresholds. Replanning is disabled by default.
func WithReplan(p ReplanPolicy) Option {
	return func(c *runnerConfig) {
		c.replan = &p
	}
}

// WithTraceHandler sets the handler receiving run/task/episode events and
// motion similarity records.
func WithTraceHandler(h trace.Handler) Option {
	return func(c *runnerConfig) {
		c.handler = h
	}
}

// WithReplaySink sets the sink that persists each episode's buffered frames.
func WithReplaySink(s trace.ReplaySink) Option {
	return func(c *runnerConfig) {
		c.replays = s
	}
}

// WithResultStore sets the per-task JSON tally store, updated by
// read-modify-write once per completed episode.
func WithResultStore(s *results.Store) Option {
	return func(c *runnerConfig) {
		c.resultStore = s
	}
}

// WithResultKeys sets the configuration signature and the secondary
// parameter signature under which tallies are recorded.
func WithResultKeys(configKey, paramKey string) Option {
	return func(c *runnerConfig) {
		c.configKey = configKey
		c.paramKey = paramKey
	}
}

// WithLogger sets the logger for the Runner. Default is a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		c.logger = logger
	}
}

// New creates a Runner for the given policy and environment.
func New(policy Policy, env Environment, options ...Option) *Runner {
	r := &Runner{
		policy: policy,
		env:    env,
		runnerConfig: runnerConfig{
			numStepsWait:    DefaultNumStepsWait,
			trialsPerTask:   DefaultTrialsPerTask,
			binarizeGripper: true,
			invertGripper:   true,
			configKey:       "default",
			paramKey:        "0",
			logger:          slog.New(slog.DiscardHandler),
		},
	}

	for _, opt := range options {
		opt(&r.runnerConfig)
	}

	return r
}

// TaskTally accumulates per-task counters as episodes complete.
type TaskTally struct {
	Task       string
	Episodes   int
	Successes  int
	TotalSteps int
	Results    []EpisodeResult
}

// SuccessRate returns successes/episodes, or 0 before any episode ran.
func (t *TaskTally) SuccessRate() float64 {
	if t.Episodes == 0 {
		return 0
	}
	return float64(t.Successes) / float64(t.Episodes)
}

// Summary is the final result of a run.
type Summary struct {
	RunID      string
	Suite      string
	Episodes   int
	Successes  int
	TotalSteps int
	Tasks      []TaskTally
}

// SuccessRate returns total successes/episodes, or 0 before any episode ran.
func (s *Summary) SuccessRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Episodes)
}

// AvgSteps returns the average step count per episode.
func (s *Summary) AvgSteps() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.TotalSteps) / float64(s.Episodes)
}

// validate rejects invalid run configurations before any episode executes.
// It also fills the suite's MaxSteps from the built-in table when unset.
func (r *Runner) validate(suite *Suite) error {
	if r.policy == nil || r.env == nil {
		return goerr.Wrap(ErrInvalidConfig, "policy and environment are required")
	}
	if suite == nil {
		return goerr.Wrap(ErrInvalidConfig, "suite is required")
	}
	if err := suite.Validate(); err != nil {
		return err
	}
	if r.trialsPerTask <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "trials per task must be positive", goerr.V("trials", r.trialsPerTask))
	}
	if r.numStepsWait < 0 {
		return goerr.Wrap(ErrInvalidConfig, "settling step count must not be negative", goerr.V("num_steps_wait", r.numStepsWait))
	}
	if r.replan != nil && (r.replan.DirectionTolerance < 0 || r.replan.MotionFloor < 0) {
		return goerr.Wrap(ErrInvalidConfig, "replan thresholds must not be negative",
			goerr.V("direction_tolerance", r.replan.DirectionTolerance),
			goerr.V("motion_floor", r.replan.MotionFloor))
	}
	return nil
}

// Evaluate runs every task of the suite for the configured number of trials
// and returns the aggregated summary. Configuration errors abort before any
// episode executes; step errors are contained per episode and never abort
// the run.
func (r *Runner) Evaluate(ctx context.Context, suite *Suite) (*Summary, error) {
	if err := r.validate(suite); err != nil {
		return nil, err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	logger := r.logger.With("vexa.run_id", runID)
	ctx = ctxWithLogger(ctx, logger)

	sum := &Summary{RunID: runID, Suite: suite.Name}

	if r.handler != nil {
		ctx = r.handler.StartRun(ctx, &trace.RunInfo{
			RunID:     runID,
			Suite:     suite.Name,
			Trials:    r.trialsPerTask,
			MaxSteps:  suite.MaxSteps,
			StartedAt: time.Now(),
		})
	}
	logger.Info("start evaluation",
		"suite", suite.Name, "tasks", len(suite.Tasks),
		"trials_per_task", r.trialsPerTask, "max_steps", suite.MaxSteps)

	for ti := range suite.Tasks {
		task := &suite.Tasks[ti]

		taskCtx := ctx
		if r.handler != nil {
			taskCtx = r.handler.StartTask(ctx, &trace.TaskInfo{
				Task:        task.Description,
				Instruction: task.Instruction,
			})
		}

		tally := TaskTally{Task: task.ID}
		for trial := 0; trial < r.trialsPerTask; trial++ {
			epIdx := sum.Episodes + 1

			epCtx := taskCtx
			if r.handler != nil {
				epCtx = r.handler.StartEpisode(taskCtx, &trace.EpisodeInfo{
					Task:        task.Description,
					Episode:     epIdx,
					TaskEpisode: trial + 1,
				})
			}

			res, frames := r.runEpisode(epCtx, task, suite.MaxSteps, trial, epIdx)

			tally.Episodes++
			tally.TotalSteps += res.Steps
			sum.Episodes++
			sum.TotalSteps += res.Steps
			if res.Success {
				tally.Successes++
				sum.Successes++
			}
			tally.Results = append(tally.Results, res)

			r.persistEpisode(epCtx, task, res, frames)

			if r.handler != nil {
				stats := &trace.EpisodeStats{
					Task:           task.Description,
					Episode:        res.Episode,
					Steps:          res.Steps,
					Replans:        res.Replans,
					Success:        res.Success,
					TotalEpisodes:  sum.Episodes,
					TotalSuccesses: sum.Successes,
					AvgSteps:       float64(tally.TotalSteps) / float64(tally.Episodes),
				}
				if res.Err != nil {
					stats.Failure = res.Err.Error()
				}
				r.handler.EndEpisode(epCtx, stats)
			}
		}

		sum.Tasks = append(sum.Tasks, tally)
		logger.Info("task finished", "task", task.ID,
			"episodes", tally.Episodes, "successes", tally.Successes,
			"success_rate", tally.SuccessRate())
		if r.handler != nil {
			r.handler.EndTask(taskCtx, &trace.TaskStats{
				Task:        task.Description,
				Episodes:    tally.Episodes,
				Successes:   tally.Successes,
				SuccessRate: tally.SuccessRate(),
				TotalRate:   sum.SuccessRate(),
			})
		}
	}

	logger.Info("evaluation finished",
		"episodes", sum.Episodes, "successes", sum.Successes,
		"success_rate", sum.SuccessRate())
	if r.handler != nil {
		r.handler.EndRun(ctx, &trace.RunStats{
			Episodes:    sum.Episodes,
			Successes:   sum.Successes,
			SuccessRate: sum.SuccessRate(),
		}, nil)
		if err := r.handler.Finish(ctx); err != nil {
			logger.Warn("failed to finish trace handler", "error", err)
		}
	}

	return sum, nil
}

// runEpisode resets the environment, applies the trial's fixed initial
// state and drives one episode with a fresh motion tracker. Errors during
// reset or init are contained exactly like step errors.
func (r *Runner) runEpisode(ctx context.Context, task *Task, maxSteps, trial, episode int) (EpisodeResult, [][]byte) {
	logger := LoggerFromContext(ctx)
	result := EpisodeResult{Episode: episode, Task: task.ID}

	if err := r.env.Reset(ctx); err != nil {
		logger.Error("environment reset failed", "episode", episode, "error", err)
		result.Err = goerr.Wrap(err, "environment reset failed")
		return result, nil
	}

	var initState []float64
	if len(task.InitStates) > 0 {
		initState = task.InitStates[trial%len(task.InitStates)]
	}
	first, err := r.env.SetInitState(ctx, initState)
	if err != nil {
		logger.Error("failed to set initial state", "episode", episode, "error", err)
		result.Err = goerr.Wrap(err, "failed to set initial state")
		return result, nil
	}
	if first == nil {
		logger.Error("environment returned no initial observation", "episode", episode)
		result.Err = goerr.New("environment returned no initial observation")
		return result, nil
	}

	e := &episodeRunner{
		policy:   r.policy,
		env:      r.env,
		cfg:      &r.runnerConfig,
		task:     task,
		maxSteps: maxSteps,
		episode:  episode,
		tracker:  NewMotionTracker(),
	}
	return e.run(ctx, first), e.frames
}

// persistEpisode saves the replay frames and updates the per-task JSON
// tally. Persistence failures are logged, never fatal.
func (r *Runner) persistEpisode(ctx context.Context, task *Task, res EpisodeResult, frames [][]byte) {
	logger := LoggerFromContext(ctx)

	if r.replays != nil && len(frames) > 0 {
		meta := trace.ReplayMeta{Episode: res.Episode, Success: res.Success, Task: task.Description}
		if err := r.replays.SaveEpisode(ctx, meta, frames); err != nil {
			logger.Warn("failed to save replay", "episode", res.Episode, "error", err)
		}
	}

	if r.resultStore != nil {
		if _, err := r.resultStore.Record(ctx, task.Description, r.configKey, r.paramKey, res.Success); err != nil {
			logger.Warn("failed to record result", "episode", res.Episode, "error", err)
		}
	}
}
