package vexa_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/k-nishida/vexa"
)

func TestMaxStepsFor(t *testing.T) {
	cases := map[string]int{
		"libero_spatial": 220,
		"libero_object":  280,
		"libero_goal":    300,
		"libero_10":      520,
		"libero_90":      400,
	}
	for name, want := range cases {
		n, err := vexa.MaxStepsFor(name)
		gt.NoError(t, err)
		gt.Equal(t, n, want)
	}
}

func TestMaxStepsForUnknownSuite(t *testing.T) {
	_, err := vexa.MaxStepsFor("libero_11")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, vexa.ErrUnknownSuite))
}

func TestSuiteValidateFillsDefaults(t *testing.T) {
	s := &vexa.Suite{
		Name: "libero_goal",
		Tasks: []vexa.Task{
			{ID: "t1", Description: "open the drawer"},
			{ID: "t2", Description: "close the drawer", Instruction: "push the drawer shut"},
		},
	}
	gt.NoError(t, s.Validate())
	gt.Equal(t, s.MaxSteps, 300)
	gt.Equal(t, s.Tasks[0].Instruction, "open the drawer")
	gt.Equal(t, s.Tasks[1].Instruction, "push the drawer shut")
}

func TestSuiteValidateExplicitMaxSteps(t *testing.T) {
	s := &vexa.Suite{
		Name:     "custom",
		MaxSteps: 42,
		Tasks:    []vexa.Task{{ID: "t1", Description: "d"}},
	}
	gt.NoError(t, s.Validate())
	gt.Equal(t, s.MaxSteps, 42)
}

func TestSuiteValidateErrors(t *testing.T) {
	err := (&vexa.Suite{Tasks: []vexa.Task{{ID: "t"}}, MaxSteps: 10}).Validate()
	gt.True(t, errors.Is(err, vexa.ErrInvalidConfig))

	err = (&vexa.Suite{Name: "s", MaxSteps: 10}).Validate()
	gt.True(t, errors.Is(err, vexa.ErrInvalidConfig))

	err = (&vexa.Suite{Name: "s", MaxSteps: 10, Tasks: []vexa.Task{{Description: "no id"}}}).Validate()
	gt.True(t, errors.Is(err, vexa.ErrInvalidConfig))

	// Custom suite without an explicit ceiling has no table entry.
	err = (&vexa.Suite{Name: "custom", Tasks: []vexa.Task{{ID: "t"}}}).Validate()
	gt.True(t, errors.Is(err, vexa.ErrUnknownSuite))
}

func TestLoadSuite(t *testing.T) {
	doc := `name: libero_spatial
tasks:
  - id: pick_bowl
    description: pick up the black bowl
    init_states:
      - [0.1, 0.2, 0.3]
      - [0.4, 0.5, 0.6]
  - id: place_plate
    description: place the plate on the stove
    instruction: put the plate onto the stove
`
	path := filepath.Join(t.TempDir(), "suite.yml")
	gt.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := vexa.LoadSuite(path)
	gt.NoError(t, err)
	gt.Equal(t, s.Name, "libero_spatial")
	gt.Equal(t, s.MaxSteps, 220)
	gt.Equal(t, len(s.Tasks), 2)
	gt.Equal(t, s.Tasks[0].Instruction, "pick up the black bowl")
	gt.Equal(t, len(s.Tasks[0].InitStates), 2)
	gt.Equal(t, s.Tasks[0].InitStates[1], []float64{0.4, 0.5, 0.6})
	gt.Equal(t, s.Tasks[1].Instruction, "put the plate onto the stove")
}

func TestLoadSuiteMissingFile(t *testing.T) {
	_, err := vexa.LoadSuite(filepath.Join(t.TempDir(), "nope.yml"))
	gt.Error(t, err)
}

func TestLoadSuiteInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	gt.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0644))
	_, err := vexa.LoadSuite(path)
	gt.Error(t, err)
}
