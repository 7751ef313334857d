// Package endpoint locates a reachable inference backend and exposes the
// small slice of its HTTP API that index supervision needs.
package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable reports that no candidate backend answered the liveness
// probe. It is a recognized state, not a failure: callers defer
// initialization instead of aborting.
var ErrUnreachable = errors.New("no reachable inference backend")

// Resolver probes candidate backends in order: the optional override first,
// then the default. The override degrades to best-effort; a dead override
// never blocks resolution.
type Resolver struct {
	// Override is an optional host:port probed before Default.
	Override string
	// Default is the fallback host:port.
	Default string
	// Timeout bounds each individual probe.
	Timeout time.Duration
}

// Resolve returns the first endpoint whose liveness probe succeeds, or
// ErrUnreachable. Endpoints are never cached across calls; reachability is
// re-verified on every initialization attempt.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.Override != "" {
		if err := Probe(ctx, r.Override, r.Timeout); err == nil {
			return r.Override, nil
		}
	}
	if err := Probe(ctx, r.Default, r.Timeout); err == nil {
		return r.Default, nil
	}
	return "", ErrUnreachable
}

// Probe performs the liveness request against host:port. Any 2xx response
// within the timeout counts as alive.
func Probe(ctx context.Context, endpoint string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagsURL(endpoint), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe %s: HTTP %d", endpoint, resp.StatusCode)
	}
	return nil
}

// Models lists the model names the backend reports on /api/tags.
func Models(ctx context.Context, endpoint string, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagsURL(endpoint), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models on %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list models on %s: HTTP %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse model list from %s: %w", endpoint, err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether model is available on the backend. An untagged
// name matches any tag of the same model; a tagged name matches exactly.
func HasModel(models []string, model string) bool {
	for _, name := range models {
		if name == model {
			return true
		}
		if !strings.Contains(model, ":") && baseOf(name) == model {
			return true
		}
		if !strings.Contains(name, ":") && baseOf(model) == name {
			return true
		}
	}
	return false
}

func baseOf(name string) string {
	if i := strings.Index(name, ":"); i != -1 {
		return name[:i]
	}
	return name
}

func tagsURL(endpoint string) string {
	return "http://" + endpoint + "/api/tags"
}
