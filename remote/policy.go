package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/k-nishida/vexa"
)

// Policy queries a policy inference server. The server receives the camera
// frame, the proprioceptive state, the task instruction and the inference
// mode, and returns the raw action vector.
type Policy struct {
	client
}

var _ vexa.Policy = (*Policy)(nil)

// PolicyOption configures a Policy client.
type PolicyOption func(*Policy)

// WithPolicyHTTPClient replaces the underlying HTTP client.
func WithPolicyHTTPClient(hc *http.Client) PolicyOption {
	return func(p *Policy) {
		p.httpClient = hc
	}
}

// WithPolicyTimeout sets the per-request timeout. Default is DefaultTimeout.
func WithPolicyTimeout(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.httpClient.Timeout = d
	}
}

// NewPolicy creates a policy client for the server at baseURL.
func NewPolicy(baseURL string, options ...PolicyOption) *Policy {
	p := &Policy{
		client: client{
			baseURL:    strings.TrimRight(baseURL, "/"),
			httpClient: &http.Client{Timeout: DefaultTimeout},
		},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

type inferRequest struct {
	Frame       []byte    `json:"frame"`
	State       []float64 `json:"state"`
	Instruction string    `json:"instruction"`
	Mode        string    `json:"mode"`
}

type inferResponse struct {
	Action []float64 `json:"action"`
}

// Infer sends one observation to the policy server and returns the raw
// action vector. The vector's shape is validated by the caller.
func (p *Policy) Infer(ctx context.Context, obs *vexa.Observation, instruction string, mode vexa.InferenceMode) ([]float64, error) {
	req := inferRequest{
		Frame:       obs.Frame,
		State:       obs.State,
		Instruction: instruction,
		Mode:        mode.String(),
	}

	var resp inferResponse
	if err := p.postJSON(ctx, "/act", req, &resp); err != nil {
		return nil, goerr.Wrap(err, "policy inference request failed")
	}
	return resp.Action, nil
}
