package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/k-nishida/vexa"
	"github.com/k-nishida/vexa/remote"
)

// bridgeStub is a minimal in-process simulator bridge.
func bridgeStub(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/reset":
			w.WriteHeader(http.StatusOK)
		case "/init":
			json.NewEncoder(w).Encode(map[string]any{
				"eef_pos":      []float64{0.1, 0.2, 0.3},
				"eef_quat":     []float64{0, 0, 0, 1},
				"gripper_qpos": []float64{0.02, -0.02},
			})
		case "/step":
			json.NewEncoder(w).Encode(map[string]any{
				"observation": map[string]any{
					"eef_pos":  []float64{0.4, 0.5, 0.6},
					"eef_quat": []float64{0, 0, 0, 1},
				},
				"reward": 1.0,
				"done":   true,
				"info":   map[string]any{"grasped": true},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, &paths
}

func TestEnvironmentReset(t *testing.T) {
	srv, paths := bridgeStub(t)
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	gt.NoError(t, env.Reset(context.Background()))
	gt.Equal(t, *paths, []string{"/reset"})
}

func TestEnvironmentSetInitState(t *testing.T) {
	srv, _ := bridgeStub(t)
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	obs, err := env.SetInitState(context.Background(), []float64{1, 2, 3})
	gt.NoError(t, err)
	gt.NotNil(t, obs)
	gt.Equal(t, obs.EEFPos, [3]float64{0.1, 0.2, 0.3})
	gt.Equal(t, obs.GripperQPos, []float64{0.02, -0.02})
}

func TestEnvironmentStep(t *testing.T) {
	srv, _ := bridgeStub(t)
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	action := vexa.Action{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, -1}

	res, err := env.Step(context.Background(), action)
	gt.NoError(t, err)
	gt.True(t, res.Done)
	gt.Equal(t, res.Reward, 1.0)
	gt.NotNil(t, res.Observation)
	gt.Equal(t, res.Observation.EEFPos, [3]float64{0.4, 0.5, 0.6})
	gt.Equal(t, res.Info["grasped"], true)
}

func TestEnvironmentStepSendsAction(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"observation": map[string]any{"eef_quat": []float64{0, 0, 0, 1}},
			"done":        false,
		})
	}))
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	_, err := env.Step(context.Background(), vexa.Action{1, 0, 0, 0, 0, 0, -1})
	gt.NoError(t, err)

	action, ok := gotBody["action"].([]any)
	gt.True(t, ok)
	gt.Equal(t, len(action), 7)
	gt.Equal(t, action[0], 1.0)
	gt.Equal(t, action[6], -1.0)
}

func TestEnvironmentStepMissingObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A 200 without an observation must not pass as a valid transition.
		json.NewEncoder(w).Encode(map[string]any{"done": false})
	}))
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	_, err := env.Step(context.Background(), vexa.NoOpAction())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("no observation")
}

func TestEnvironmentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "physics blew up", http.StatusBadGateway)
	}))
	defer srv.Close()

	env := remote.NewEnvironment(srv.URL)
	gt.Error(t, env.Reset(context.Background()))

	_, err := env.SetInitState(context.Background(), nil)
	gt.Error(t, err)

	_, err = env.Step(context.Background(), vexa.NoOpAction())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("unexpected status 502")
}
