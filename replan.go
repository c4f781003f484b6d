package vexa

// Default replan gate thresholds.
const (
	DefaultDirectionTolerance = 0.1
	DefaultMotionFloor        = 0.04
)

// ReplanPolicy decides whether the current action should be discarded and
// re-queried from the policy under the replan inference mode. The gate fires
// on a direction reversal (cosine below -DirectionTolerance) or on motion
// collapsing below MotionFloor, for either sub-vector.
type ReplanPolicy struct {
	DirectionTolerance float64
	MotionFloor        float64
}

// NewReplanPolicy returns a policy with the default thresholds.
func NewReplanPolicy() ReplanPolicy {
	return ReplanPolicy{
		DirectionTolerance: DefaultDirectionTolerance,
		MotionFloor:        DefaultMotionFloor,
	}
}

// ShouldReplan reports whether the similarity report triggers a replan.
// A nil report (no prior action) never triggers.
func (p ReplanPolicy) ShouldReplan(r *Similarity) bool {
	if r == nil {
		return false
	}
	return r.XYZCosine < -p.DirectionTolerance ||
		r.RotCosine < -p.DirectionTolerance ||
		r.XYZMagnitude < p.MotionFloor ||
		r.RotMagnitude < p.MotionFloor
}
