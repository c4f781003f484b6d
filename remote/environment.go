package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/k-nishida/vexa"
)

// Environment talks to a simulator bridge exposing reset/init/step over
// HTTP. The bridge owns the actual physics engine.
type Environment struct {
	client
}

var _ vexa.Environment = (*Environment)(nil)

// EnvOption configures an Environment client.
type EnvOption func(*Environment)

// WithEnvHTTPClient replaces the underlying HTTP client.
func WithEnvHTTPClient(hc *http.Client) EnvOption {
	return func(e *Environment) {
		e.httpClient = hc
	}
}

// WithEnvTimeout sets the per-request timeout. Default is DefaultTimeout.
func WithEnvTimeout(d time.Duration) EnvOption {
	return func(e *Environment) {
		e.httpClient.Timeout = d
	}
}

// NewEnvironment creates an environment client for the bridge at baseURL.
func NewEnvironment(baseURL string, options ...EnvOption) *Environment {
	e := &Environment{
		client: client{
			baseURL:    strings.TrimRight(baseURL, "/"),
			httpClient: &http.Client{Timeout: DefaultTimeout},
		},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Reset resets the simulation.
func (e *Environment) Reset(ctx context.Context) error {
	if err := e.postJSON(ctx, "/reset", struct{}{}, nil); err != nil {
		return goerr.Wrap(err, "environment reset request failed")
	}
	return nil
}

type initStateRequest struct {
	State []float64 `json:"state"`
}

// SetInitState applies a fixed initial simulation state and returns the
// resulting observation.
func (e *Environment) SetInitState(ctx context.Context, state []float64) (*vexa.RawObservation, error) {
	var obs vexa.RawObservation
	if err := e.postJSON(ctx, "/init", initStateRequest{State: state}, &obs); err != nil {
		return nil, goerr.Wrap(err, "set initial state request failed")
	}
	return &obs, nil
}

type stepRequest struct {
	Action []float64 `json:"action"`
}

type stepResponse struct {
	Observation *vexa.RawObservation `json:"observation"`
	Reward      float64              `json:"reward"`
	Done        bool                 `json:"done"`
	Info        map[string]any       `json:"info"`
}

// Step executes one action and returns the environment transition.
func (e *Environment) Step(ctx context.Context, action vexa.Action) (*vexa.StepResult, error) {
	var resp stepResponse
	if err := e.postJSON(ctx, "/step", stepRequest{Action: action[:]}, &resp); err != nil {
		return nil, goerr.Wrap(err, "environment step request failed")
	}
	if resp.Observation == nil {
		return nil, goerr.New("environment step response has no observation")
	}
	return &vexa.StepResult{
		Observation: resp.Observation,
		Reward:      resp.Reward,
		Done:        resp.Done,
		Info:        resp.Info,
	}, nil
}
