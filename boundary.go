package vexa

import "context"

// InferenceMode selects the policy's inference configuration for a single
// query. The default mode is used for every regular step; the replan mode is
// used only for the scoped re-query after the replan gate fires. What the
// replan mode means internally is up to the policy implementation.
type InferenceMode int

const (
	ModeDefault InferenceMode = iota
	ModeReplan
)

// String returns the wire representation of the mode.
func (m InferenceMode) String() string {
	switch m {
	case ModeReplan:
		return "replan"
	default:
		return "default"
	}
}

// Policy is the opaque model boundary. Infer maps an observation and a task
// instruction to a raw action vector. The returned slice is validated by the
// episode runner; a wrong-sized vector fails the step, not the run.
type Policy interface {
	Infer(ctx context.Context, obs *Observation, instruction string, mode InferenceMode) ([]float64, error)
}

// StepResult is the environment's transition report. Done is the sole
// success signal consumed by the episode runner.
type StepResult struct {
	Observation *RawObservation
	Reward      float64
	Done        bool
	Info        map[string]any
}

// Environment is the simulation boundary. All calls are synchronous; errors
// from any of them are contained at the episode boundary.
type Environment interface {
	Reset(ctx context.Context) error
	SetInitState(ctx context.Context, state []float64) (*RawObservation, error)
	Step(ctx context.Context, action Action) (*StepResult, error)
}
