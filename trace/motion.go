package trace

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// MotionWriter appends one comma-separated line per similarity record to an
// append-only motion-trace file. Each line holds xyz magnitude, xyz cosine,
// rot magnitude and rot cosine formatted to 4 decimal places. All other
// events are ignored.
type MotionWriter struct {
	mu sync.Mutex
	f  *os.File
}

// NewMotionWriter opens (or creates) the motion-trace file at path in append
// mode.
func NewMotionWriter(path string) (*MotionWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open motion trace", goerr.V("path", path))
	}
	return &MotionWriter{f: f}, nil
}

func (w *MotionWriter) StartRun(ctx context.Context, run *RunInfo) context.Context { return ctx }
func (w *MotionWriter) EndRun(ctx context.Context, stats *RunStats, err error)     {}
func (w *MotionWriter) StartTask(ctx context.Context, task *TaskInfo) context.Context {
	return ctx
}
func (w *MotionWriter) EndTask(ctx context.Context, stats *TaskStats) {}
func (w *MotionWriter) StartEpisode(ctx context.Context, ep *EpisodeInfo) context.Context {
	return ctx
}
func (w *MotionWriter) EndEpisode(ctx context.Context, stats *EpisodeStats) {}

func (w *MotionWriter) Motion(ctx context.Context, rec *MotionRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.f, "%.4f, %.4f, %.4f, %.4f\n",
		rec.XYZMagnitude, rec.XYZCosine, rec.RotMagnitude, rec.RotCosine)
}

// Finish closes the underlying file.
func (w *MotionWriter) Finish(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close motion trace")
	}
	return nil
}
