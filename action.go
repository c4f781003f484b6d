package vexa

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// ActionDims is the number of components in a control command: 3 translational
// deltas, 3 rotational deltas and one gripper scalar.
const ActionDims = 7

// Action is a single end-effector control command. The first three components
// are the xyz translation, the next three the rotation, and the last one the
// gripper command. Actions are values; every post-processing method returns a
// modified copy and leaves the receiver untouched.
type Action [ActionDims]float64

// NewAction validates the raw vector emitted by a policy and copies it into an
// Action. Returns ErrInvalidActionShape if the vector does not have exactly 7
// components.
func NewAction(raw []float64) (Action, error) {
	if len(raw) != ActionDims {
		return Action{}, goerr.Wrap(ErrInvalidActionShape, "unexpected action length", goerr.V("length", len(raw)))
	}
	var a Action
	copy(a[:], raw)
	return a, nil
}

// NoOpAction is the fixed command submitted during settling steps: no motion,
// gripper held open.
func NoOpAction() Action {
	return Action{0, 0, 0, 0, 0, 0, -1}
}

// XYZ returns the translational sub-vector.
func (a Action) XYZ() [3]float64 {
	return [3]float64{a[0], a[1], a[2]}
}

// Rot returns the rotational sub-vector.
func (a Action) Rot() [3]float64 {
	return [3]float64{a[3], a[4], a[5]}
}

// Gripper returns the gripper component.
func (a Action) Gripper() float64 {
	return a[ActionDims-1]
}

// NormalizeGripper maps the gripper component from the policy-native [0,1]
// range to the bipolar [-1,+1] range the environment expects. When binarize is
// set, the result is snapped to exactly -1 or +1 instead of staying
// continuous. Translation and rotation components are untouched.
func (a Action) NormalizeGripper(binarize bool) Action {
	g := a[ActionDims-1]*2 - 1
	if binarize {
		if g < 0 {
			g = -1
		} else {
			g = 1
		}
	}
	a[ActionDims-1] = g
	return a
}

// InvertGripper flips the sign of the gripper component only. Training data
// labels the gripper as 0=close/1=open while the environment executes
// -1=open/+1=close, so the sign must be flipped back before execution.
// Applying InvertGripper twice restores the original command.
func (a Action) InvertGripper() Action {
	a[ActionDims-1] = -a[ActionDims-1]
	return a
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(dot3(v, v))
}
