package vexa_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/k-nishida/vexa"
)

func TestQuatToAxisAngleIdentity(t *testing.T) {
	gt.Equal(t, vexa.QuatToAxisAngle([4]float64{0, 0, 0, 1}), [3]float64{})

	// A scalar component numerically past 1 is clamped, not NaN'd.
	gt.Equal(t, vexa.QuatToAxisAngle([4]float64{0, 0, 0, 1.0000001}), [3]float64{})
}

func TestQuatToAxisAngleQuarterTurn(t *testing.T) {
	// 90 degrees about z: q = (0, 0, sin(pi/4), cos(pi/4)).
	s := math.Sin(math.Pi / 4)
	aa := vexa.QuatToAxisAngle([4]float64{0, 0, s, s})

	gt.True(t, near(aa[0], 0))
	gt.True(t, near(aa[1], 0))
	gt.True(t, math.Abs(aa[2]-math.Pi/2) < 1e-9)
}

func TestQuatToAxisAngleHalfTurn(t *testing.T) {
	// 180 degrees about x: q = (1, 0, 0, 0).
	aa := vexa.QuatToAxisAngle([4]float64{1, 0, 0, 0})

	gt.True(t, math.Abs(aa[0]-math.Pi) < 1e-9)
	gt.True(t, near(aa[1], 0))
	gt.True(t, near(aa[2], 0))
}

func TestBuildObservationStateLayout(t *testing.T) {
	raw := &vexa.RawObservation{
		Frame:       []byte{0xff, 0xd8},
		EEFPos:      [3]float64{0.1, 0.2, 0.3},
		EEFQuat:     [4]float64{0, 0, 0, 1},
		GripperQPos: []float64{0.04, -0.04},
	}

	obs := vexa.BuildObservation(raw)
	gt.Equal(t, obs.Frame, raw.Frame)
	gt.Equal(t, len(obs.State), 8)
	gt.Equal(t, obs.State[0:3], []float64{0.1, 0.2, 0.3})
	gt.Equal(t, obs.State[3:6], []float64{0, 0, 0})
	gt.Equal(t, obs.State[6:8], []float64{0.04, -0.04})
}

func TestBuildObservationNoGripperJoints(t *testing.T) {
	obs := vexa.BuildObservation(&vexa.RawObservation{
		EEFPos:  [3]float64{1, 2, 3},
		EEFQuat: [4]float64{0, 0, 0, 1},
	})
	gt.Equal(t, len(obs.State), 6)
}
