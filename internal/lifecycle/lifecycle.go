// Package lifecycle runs the full initialization sequence: resolve the
// backend, sync the instance configuration, fingerprint the desired state,
// invalidate the index if it can no longer be trusted, and bring up the
// indexer daemon. The same sequence serves the one-shot foreground path and
// the watchdog's deferred-initialization retries.
package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/endpoint"
	"github.com/kodflow/indexwatch/internal/fingerprint"
	"github.com/kodflow/indexwatch/internal/indexstore"
	"github.com/kodflow/indexwatch/internal/proc"
	"github.com/kodflow/indexwatch/internal/record"
	"github.com/kodflow/indexwatch/internal/supervisor"
)

// Outcome classifies how an initialization attempt ended. None of these are
// fatal to the caller; the worst case is "skip for now".
type Outcome int

const (
	// Started means the daemon is confirmed running and the health record
	// was written.
	Started Outcome = iota
	// DeferredBackend means no backend was reachable; a partial instance
	// configuration was persisted and the watchdog will retry.
	DeferredBackend
	// DeferredModel means the backend is up but does not serve the
	// configured model yet.
	DeferredModel
	// Degraded means a local environment fault (missing binary or
	// template); the daemon start was skipped.
	Degraded
	// StartFailed means the daemon did not appear in the process table
	// within the confirmation window.
	StartFailed
)

// Result is what an initialization attempt produced.
type Result struct {
	Outcome     Outcome
	Endpoint    string
	Fingerprint fingerprint.Fingerprint
	Invalidated bool
	Reasons     []fingerprint.Reason
	PID         int
	Err         error
}

// Runner holds the collaborators of one initialization attempt. Nothing is
// cached between runs: fingerprint, record, and process identity are
// re-derived from disk and the process table every time.
type Runner struct {
	Settings *config.Settings
	Lookup   proc.Lookup
	Log      *zap.Logger
}

// Initialize runs the full sequence once.
func (r *Runner) Initialize(ctx context.Context) Result {
	s := r.Settings
	if err := s.EnsureDirs(); err != nil {
		return Result{Outcome: Degraded, Err: err}
	}

	resolver := &endpoint.Resolver{Override: s.Endpoint, Default: s.DefaultEndpoint, Timeout: s.ProbeTimeout}
	addr, err := resolver.Resolve(ctx)
	if err != nil {
		// Persist a partial configuration so the daemon's settings are in
		// place the moment the backend appears.
		if syncErr := config.SyncInstance(s, s.DefaultEndpoint); syncErr != nil {
			r.Log.Warn("partial config sync failed", zap.Error(syncErr))
		}
		return Result{Outcome: DeferredBackend, Err: err}
	}
	if s.Endpoint != "" && addr != s.Endpoint {
		r.Log.Warn("configured endpoint unreachable, using default",
			zap.String("override", s.Endpoint), zap.String("endpoint", addr))
	}

	if err := config.SyncInstance(s, addr); err != nil {
		return Result{Outcome: Degraded, Endpoint: addr, Err: err}
	}

	fp, err := fingerprint.Compute(s)
	if err != nil {
		return Result{Outcome: Degraded, Endpoint: addr, Err: err}
	}
	res := Result{Endpoint: addr, Fingerprint: fp}

	decision := r.decide(fp)
	if decision.Invalidate {
		reasons := make([]string, len(decision.Reasons))
		for i, reason := range decision.Reasons {
			reasons[i] = string(reason)
		}
		r.Log.Info("invalidating index", zap.Strings("reasons", reasons))
		if err := indexstore.Invalidate(s, r.Lookup, supervisor.DaemonSignature(s)); err != nil {
			res.Outcome = Degraded
			res.Err = err
			return res
		}
		res.Invalidated = true
		res.Reasons = decision.Reasons
	}

	if err := supervisor.EnsureModel(ctx, addr, fp.Model, s.ProbeTimeout); err != nil {
		res.Outcome = DeferredModel
		res.Err = err
		return res
	}

	pid, err := supervisor.Start(ctx, s, r.Lookup)
	if err != nil {
		res.Outcome = StartFailed
		res.Err = err
		return res
	}
	res.PID = pid

	h := &record.Health{
		Model:          fp.Model,
		IndexerVersion: fp.IndexerVersion,
		ConfigHash:     fp.ConfigHash,
		DaemonPID:      pid,
		LastHealthy:    time.Now(),
	}
	if err := record.Save(s.RecordPath(), h); err != nil {
		res.Outcome = Degraded
		res.Err = err
		return res
	}
	res.Outcome = Started
	return res
}

// decide loads the stored record (migrating the legacy stamp when present)
// and compares it against the current fingerprint.
func (r *Runner) decide(fp fingerprint.Fingerprint) fingerprint.Decision {
	s := r.Settings
	stored, err := record.Load(s.RecordPath())
	if err == nil {
		return fingerprint.Decide(stored, fp, indexstore.ArtifactsExist(s))
	}
	if legacyModel, ok := record.MigrateLegacy(s.LegacyRecordPath()); ok {
		r.Log.Info("migrating legacy model stamp", zap.String("model", legacyModel))
		return fingerprint.DecideLegacy(legacyModel, fp)
	}
	return fingerprint.Decide(nil, fp, indexstore.ArtifactsExist(s))
}
