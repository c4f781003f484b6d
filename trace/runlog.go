package trace

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// RunLog appends one plain-text line per evaluation event to a file. The file
// is opened in append mode so a run never truncates earlier lines; partial
// logs from an interrupted run stay valid.
type RunLog struct {
	mu sync.Mutex
	f  *os.File
}

// NewRunLog opens (or creates) the run log file at path.
func NewRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open run log", goerr.V("path", path))
	}
	return &RunLog{f: f}, nil
}

func (l *RunLog) writef(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.f, format, args...)
}

func (l *RunLog) StartRun(ctx context.Context, run *RunInfo) context.Context {
	l.writef("Task suite: %s (run %s, %d trials per task, max %d steps)\n",
		run.Suite, run.RunID, run.Trials, run.MaxSteps)
	return ctx
}

func (l *RunLog) EndRun(ctx context.Context, stats *RunStats, err error) {
	if err != nil {
		l.writef("Run aborted: %s\n", err)
	}
	l.writef("Total success rate: %.4f (%d/%d)\n", stats.SuccessRate, stats.Successes, stats.Episodes)
}

func (l *RunLog) StartTask(ctx context.Context, task *TaskInfo) context.Context {
	l.writef("\nTask: %s\n", task.Task)
	return ctx
}

func (l *RunLog) EndTask(ctx context.Context, stats *TaskStats) {
	l.writef("Current task success rate: %.4f\n", stats.SuccessRate)
	l.writef("Current total success rate: %.4f\n", stats.TotalRate)
}

func (l *RunLog) StartEpisode(ctx context.Context, ep *EpisodeInfo) context.Context {
	l.writef("Starting episode %d...\n", ep.TaskEpisode)
	return ctx
}

func (l *RunLog) EndEpisode(ctx context.Context, stats *EpisodeStats) {
	if stats.Failure != "" {
		l.writef("Caught exception: %s\n", stats.Failure)
	}
	l.writef("Success: %v\n", stats.Success)
	l.writef("# episodes completed so far: %d\n", stats.TotalEpisodes)
	if stats.TotalEpisodes > 0 {
		l.writef("# successes: %d (%.1f%%)\n", stats.TotalSuccesses,
			float64(stats.TotalSuccesses)/float64(stats.TotalEpisodes)*100)
	}
	l.writef("Average steps: %.1f\n", stats.AvgSteps)
}

func (l *RunLog) Motion(ctx context.Context, rec *MotionRecord) {}

// Finish closes the underlying file.
func (l *RunLog) Finish(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close run log")
	}
	return nil
}
