// Package healthcheck implements the container health probe: one bounded
// GET against the local health endpoint.
package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Probe checks a single health endpoint.
type Probe struct {
	client *resty.Client
}

// New builds a Probe with the given total timeout. Retry cadence belongs
// to the container runtime, not the probe.
func New(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Probe{
		client: resty.New().SetTimeout(timeout),
	}
}

// Check issues GET {baseURL}/health and returns nil only for a 2xx
// response within the timeout.
func (p *Probe) Check(ctx context.Context, baseURL string) error {
	resp, err := p.client.R().SetContext(ctx).Get(baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health endpoint unreachable: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode())
	}
	return nil
}
