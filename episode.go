package vexa

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/k-nishida/vexa/trace"
)

// EpisodeResult is the immutable record of one completed episode. Err holds
// the contained step error when the episode ended on an error; such episodes
// count as failures but never abort the run.
type EpisodeResult struct {
	Episode int
	Task    string
	Steps   int
	Success bool
	Replans int
	Err     error
}

// episodeRunner drives a single episode: the settling phase, the acting
// loop, and per-step error containment. It owns the episode's one-step
// motion memory and the replay frame buffer.
type episodeRunner struct {
	policy   Policy
	env      Environment
	cfg      *runnerConfig
	task     *Task
	maxSteps int
	episode  int

	tracker *MotionTracker
	frames  [][]byte
}

// run executes the episode starting from the observation returned by
// SetInitState. It never returns an error: any failure while stepping is
// logged, recorded on the result and terminates the episode only.
func (e *episodeRunner) run(ctx context.Context, first *RawObservation) EpisodeResult {
	logger := LoggerFromContext(ctx)
	result := EpisodeResult{Episode: e.episode, Task: e.task.ID}

	limit := e.maxSteps + e.cfg.numStepsWait
	obs := first
	t := 0
	for t < limit {
		// Settling: submit no-op actions until the scene physics stabilize.
		// No policy invocation, no similarity tracking, no replanning.
		if t < e.cfg.numStepsWait {
			res, err := e.env.Step(ctx, NoOpAction())
			if err != nil {
				e.fail(ctx, &result, t, goerr.Wrap(err, "settling step failed"))
				return result
			}
			if res.Observation == nil {
				e.fail(ctx, &result, t, goerr.New("environment returned no observation"))
				return result
			}
			obs = res.Observation
			t++
			continue
		}

		stepObs := BuildObservation(obs)
		e.frames = append(e.frames, obs.Frame)

		action, err := e.nextAction(ctx, stepObs, &result)
		if err != nil {
			e.fail(ctx, &result, t, err)
			return result
		}

		action = action.NormalizeGripper(e.cfg.binarizeGripper)
		if e.cfg.invertGripper {
			action = action.InvertGripper()
		}

		res, err := e.env.Step(ctx, action)
		if err != nil {
			e.fail(ctx, &result, t, goerr.Wrap(err, "environment step failed"))
			return result
		}
		if res.Observation == nil {
			e.fail(ctx, &result, t, goerr.New("environment returned no observation"))
			return result
		}
		obs = res.Observation

		if res.Done {
			result.Success = true
			result.Steps = t
			logger.Debug("episode done", "episode", e.episode, "steps", t)
			return result
		}
		t++
	}

	// Step ceiling reached: timeout counts as failure.
	result.Steps = t
	logger.Debug("episode timed out", "episode", e.episode, "steps", t)
	return result
}

// nextAction queries the policy, updates the motion tracker and applies the
// replan gate. When the gate fires, the policy is re-queried once under the
// replan mode and that action substitutes the original for this step only.
func (e *episodeRunner) nextAction(ctx context.Context, obs *Observation, result *EpisodeResult) (Action, error) {
	raw, err := e.policy.Infer(ctx, obs, e.task.Instruction, ModeDefault)
	if err != nil {
		return Action{}, goerr.Wrap(err, "policy inference failed")
	}
	action, err := NewAction(raw)
	if err != nil {
		return Action{}, err
	}

	// The tracker reference is always advanced with the original action,
	// whether or not a replan substitutes it below.
	report := e.tracker.Update(action)
	if e.cfg.replan == nil || report == nil {
		return action, nil
	}

	if e.cfg.handler != nil {
		e.cfg.handler.Motion(ctx, &trace.MotionRecord{
			XYZMagnitude: report.XYZMagnitude,
			XYZCosine:    report.XYZCosine,
			RotMagnitude: report.RotMagnitude,
			RotCosine:    report.RotCosine,
		})
	}

	if !e.cfg.replan.ShouldReplan(report) {
		return action, nil
	}

	alt, err := e.policy.Infer(ctx, obs, e.task.Instruction, ModeReplan)
	if err != nil {
		return Action{}, goerr.Wrap(err, "replan inference failed")
	}
	altAction, err := NewAction(alt)
	if err != nil {
		return Action{}, err
	}
	result.Replans++
	return altAction, nil
}

// fail records a contained step error on the result. The error is logged and
// the episode terminates as a failure; the run continues.
func (e *episodeRunner) fail(ctx context.Context, result *EpisodeResult, step int, err error) {
	LoggerFromContext(ctx).Error("caught exception during episode",
		"episode", e.episode, "step", step, "error", err)
	result.Steps = step
	result.Err = goerr.Wrap(err, "episode terminated", goerr.V("episode", e.episode), goerr.V("step", step))
}
