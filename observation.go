package vexa

import "math"

// RawObservation is what the simulator reports after a step: an encoded
// camera frame (passed through untouched; image processing is out of scope)
// and the raw proprioceptive readings.
type RawObservation struct {
	Frame       []byte     `json:"frame"`
	EEFPos      [3]float64 `json:"eef_pos"`
	EEFQuat     [4]float64 `json:"eef_quat"` // x, y, z, w
	GripperQPos []float64  `json:"gripper_qpos"`
}

// Observation is the per-step policy input: the camera frame plus a flat
// proprioceptive state vector (position, axis-angle orientation, gripper
// joint positions). Built fresh each step, never mutated afterwards.
type Observation struct {
	Frame []byte    `json:"frame"`
	State []float64 `json:"state"`
}

// BuildObservation assembles the policy input from a raw simulator
// observation. The end-effector quaternion is converted to an axis-angle
// triple so the state layout matches the training data.
func BuildObservation(raw *RawObservation) *Observation {
	state := make([]float64, 0, 6+len(raw.GripperQPos))
	state = append(state, raw.EEFPos[:]...)
	aa := QuatToAxisAngle(raw.EEFQuat)
	state = append(state, aa[:]...)
	state = append(state, raw.GripperQPos...)
	return &Observation{Frame: raw.Frame, State: state}
}

// QuatToAxisAngle converts an (x, y, z, w) quaternion to exponential map
// form, an axis scaled by the rotation angle in radians. A quaternion at or
// numerically past the identity maps to the zero vector.
func QuatToAxisAngle(q [4]float64) [3]float64 {
	w := q[3]
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}

	den := math.Sqrt(1 - w*w)
	if den < 1e-9 {
		return [3]float64{}
	}

	scale := 2 * math.Acos(w) / den
	return [3]float64{q[0] * scale, q[1] * scale, q[2] * scale}
}
