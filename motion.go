package vexa

import "math"

// cosineEpsilon guards the cosine denominator against near-zero magnitudes.
const cosineEpsilon = 1e-6

// Similarity compares the current action's motion direction and magnitude
// against the previous step's action, per sub-vector. Cosine values are
// clamped to at most 1.0.
type Similarity struct {
	XYZMagnitude float64
	XYZCosine    float64
	RotMagnitude float64
	RotCosine    float64
}

// MotionTracker carries the one-step motion memory of an episode. A fresh
// tracker must be used per episode; state never leaks across episodes.
type MotionTracker struct {
	prev *motionState
}

type motionState struct {
	xyz    [3]float64
	rot    [3]float64
	xyzMag float64
	rotMag float64
}

// NewMotionTracker returns a tracker with no prior action.
func NewMotionTracker() *MotionTracker {
	return &MotionTracker{}
}

// Update records the action's xyz/rot sub-vectors and returns how they
// compare to the previous step's. The first call of an episode returns nil
// because no prior reference exists. The stored reference is overwritten
// unconditionally, whether or not a replan is triggered afterwards.
func (t *MotionTracker) Update(a Action) *Similarity {
	xyz, rot := a.XYZ(), a.Rot()
	cur := &motionState{
		xyz:    xyz,
		rot:    rot,
		xyzMag: norm3(xyz),
		rotMag: norm3(rot),
	}

	prev := t.prev
	t.prev = cur
	if prev == nil {
		return nil
	}

	return &Similarity{
		XYZMagnitude: cur.xyzMag,
		XYZCosine:    cosine3(xyz, prev.xyz, cur.xyzMag, prev.xyzMag),
		RotMagnitude: cur.rotMag,
		RotCosine:    cosine3(rot, prev.rot, cur.rotMag, prev.rotMag),
	}
}

// Reset drops the stored previous action.
func (t *MotionTracker) Reset() {
	t.prev = nil
}

func cosine3(a, b [3]float64, magA, magB float64) float64 {
	return math.Min(dot3(a, b)/(magA*magB+cosineEpsilon), 1)
}
