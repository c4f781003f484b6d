package trace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/k-nishida/vexa/trace"
)

type ctxKey string

// spyHandler counts events and stores a marker in its Start contexts so the
// test can verify each handler gets its own context back.
type spyHandler struct {
	name      string
	events    []string
	runCtxVal string
	finishErr error
}

func (h *spyHandler) StartRun(ctx context.Context, run *trace.RunInfo) context.Context {
	h.events = append(h.events, "StartRun")
	return context.WithValue(ctx, ctxKey("run"), h.name)
}

func (h *spyHandler) EndRun(ctx context.Context, stats *trace.RunStats, err error) {
	h.events = append(h.events, "EndRun")
	if v, ok := ctx.Value(ctxKey("run")).(string); ok {
		h.runCtxVal = v
	}
}

func (h *spyHandler) StartTask(ctx context.Context, task *trace.TaskInfo) context.Context {
	h.events = append(h.events, "StartTask")
	return ctx
}

func (h *spyHandler) EndTask(ctx context.Context, stats *trace.TaskStats) {
	h.events = append(h.events, "EndTask")
}

func (h *spyHandler) StartEpisode(ctx context.Context, ep *trace.EpisodeInfo) context.Context {
	h.events = append(h.events, "StartEpisode")
	return ctx
}

func (h *spyHandler) EndEpisode(ctx context.Context, stats *trace.EpisodeStats) {
	h.events = append(h.events, "EndEpisode")
}

func (h *spyHandler) Motion(ctx context.Context, rec *trace.MotionRecord) {
	h.events = append(h.events, "Motion")
}

func (h *spyHandler) Finish(ctx context.Context) error {
	h.events = append(h.events, "Finish")
	return h.finishErr
}

func TestMultiFanOut(t *testing.T) {
	a := &spyHandler{name: "a"}
	b := &spyHandler{name: "b"}
	m := trace.Multi(a, b)

	ctx := context.Background()
	ctx = m.StartRun(ctx, &trace.RunInfo{RunID: "r"})
	taskCtx := m.StartTask(ctx, &trace.TaskInfo{Task: "t"})
	epCtx := m.StartEpisode(taskCtx, &trace.EpisodeInfo{Episode: 1})
	m.Motion(epCtx, &trace.MotionRecord{})
	m.EndEpisode(epCtx, &trace.EpisodeStats{})
	m.EndTask(taskCtx, &trace.TaskStats{})
	m.EndRun(ctx, &trace.RunStats{}, nil)
	gt.NoError(t, m.Finish(ctx))

	want := []string{
		"StartRun", "StartTask", "StartEpisode", "Motion",
		"EndEpisode", "EndTask", "EndRun", "Finish",
	}
	gt.Equal(t, a.events, want)
	gt.Equal(t, b.events, want)
}

func TestMultiContextIsolation(t *testing.T) {
	a := &spyHandler{name: "a"}
	b := &spyHandler{name: "b"}
	m := trace.Multi(a, b)

	ctx := m.StartRun(context.Background(), &trace.RunInfo{RunID: "r"})
	m.EndRun(ctx, &trace.RunStats{}, nil)

	// Both handlers write to the same context key; each must read back its
	// own value, not the other's.
	gt.Equal(t, a.runCtxVal, "a")
	gt.Equal(t, b.runCtxVal, "b")
}

func TestMultiFinishJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	a := &spyHandler{name: "a", finishErr: errA}
	b := &spyHandler{name: "b"}
	m := trace.Multi(a, b)

	err := m.Finish(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, errA))
	gt.Equal(t, b.events, []string{"Finish"})
}

func TestMultiEmpty(t *testing.T) {
	m := trace.Multi()
	ctx := m.StartRun(context.Background(), &trace.RunInfo{})
	m.EndRun(ctx, &trace.RunStats{}, nil)
	gt.NoError(t, m.Finish(ctx))
}
