package trace

import (
	"context"
	"errors"
)

// multiHandler fans out trace events to multiple Handler implementations.
// Each handler receives its own isolated context so two handlers sharing the
// same context key cannot interfere with each other.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
func Multi(handlers ...Handler) Handler {
	return &multiHandler{handlers: handlers}
}

// multiCtxKey is the context key for per-handler contexts.
type multiCtxKey struct{}

// getContexts retrieves per-handler contexts from the context.
// If not found, returns the base context for each handler.
func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

// wrapContexts stores per-handler contexts into a new context.
func (m *multiHandler) wrapContexts(base context.Context, handlerCtxs []context.Context) context.Context {
	return context.WithValue(base, multiCtxKey{}, handlerCtxs)
}

func (m *multiHandler) StartRun(ctx context.Context, run *RunInfo) context.Context {
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartRun(ctx, run)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndRun(ctx context.Context, stats *RunStats, err error) {
	for i, h := range m.handlers {
		h.EndRun(m.getContexts(ctx)[i], stats, err)
	}
}

func (m *multiHandler) StartTask(ctx context.Context, task *TaskInfo) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartTask(parentCtxs[i], task)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndTask(ctx context.Context, stats *TaskStats) {
	for i, h := range m.handlers {
		h.EndTask(m.getContexts(ctx)[i], stats)
	}
}

func (m *multiHandler) StartEpisode(ctx context.Context, ep *EpisodeInfo) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartEpisode(parentCtxs[i], ep)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndEpisode(ctx context.Context, stats *EpisodeStats) {
	for i, h := range m.handlers {
		h.EndEpisode(m.getContexts(ctx)[i], stats)
	}
}

func (m *multiHandler) Motion(ctx context.Context, rec *MotionRecord) {
	for i, h := range m.handlers {
		h.Motion(m.getContexts(ctx)[i], rec)
	}
}

func (m *multiHandler) Finish(ctx context.Context) error {
	var errs []error
	for _, h := range m.handlers {
		if err := h.Finish(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
