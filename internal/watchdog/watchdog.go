// Package watchdog is the long-lived loop that keeps the indexer daemon
// alive and retries full initialization when the backend was unavailable at
// container start.
package watchdog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/endpoint"
	"github.com/kodflow/indexwatch/internal/lifecycle"
	"github.com/kodflow/indexwatch/internal/proc"
	"github.com/kodflow/indexwatch/internal/record"
	"github.com/kodflow/indexwatch/internal/supervisor"
)

// logEvery throttles deferred-initialization failure logging: the first
// failed attempt is logged, then one in every logEvery.
const logEvery = 10

// Loop re-derives truth from disk and the process table on every cycle.
// There is no in-memory cache of fingerprint or process identity; the only
// loop-local state is the deferred-attempt counter and the outage warning
// flag.
type Loop struct {
	Settings *config.Settings
	Lookup   proc.Lookup
	Log      *zap.Logger

	// Overridable in tests; nil means the real implementation.
	initialize func(context.Context) lifecycle.Result
	resolve    func(context.Context) (string, error)
	start      func(context.Context) (int, error)
}

// Run blocks until ctx is done, evaluating one cycle per interval after an
// initial grace delay.
func (l *Loop) Run(ctx context.Context) {
	select {
	case <-time.After(l.Settings.GraceDelay):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(l.Settings.WatchInterval)
	defer ticker.Stop()

	deferredAttempts := 0
	warnedDown := false
	for {
		l.cycle(ctx, &deferredAttempts, &warnedDown)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// cycle evaluates one of the two states: no health record (attempt full
// initialization) or record present (liveness check and restart if needed).
func (l *Loop) cycle(ctx context.Context, deferredAttempts *int, warnedDown *bool) {
	s := l.Settings

	stored, err := record.Load(s.RecordPath())
	if err != nil {
		l.deferredInit(ctx, deferredAttempts)
		return
	}
	*deferredAttempts = 0

	if _, ok := l.Lookup(supervisor.DaemonSignature(s)); ok {
		// Daemon healthy. The record is left untouched.
		*warnedDown = false
		return
	}

	// Daemon gone. Restarting into a dead backend is pointless, so verify
	// reachability first.
	addr, err := l.doResolve(ctx)
	if err != nil {
		if !*warnedDown {
			l.Log.Warn("daemon down and backend unreachable, skipping restart")
			*warnedDown = true
		}
		return
	}
	*warnedDown = false

	pid, err := l.doStart(ctx)
	if err != nil {
		l.Log.Warn("daemon restart failed", zap.String("endpoint", addr), zap.Error(err))
		return
	}

	// Only the process fields change on restart; the fingerprint the index
	// was built under did not.
	stored.DaemonPID = pid
	stored.LastHealthy = time.Now()
	if err := record.Save(s.RecordPath(), stored); err != nil {
		l.Log.Warn("cannot update health record after restart", zap.Error(err))
		return
	}
	l.Log.Info("daemon restarted", zap.Int("pid", pid))
}

// deferredInit retries the full initialization sequence, logging failures at
// a throttled cadence so an extended outage does not flood the log.
func (l *Loop) deferredInit(ctx context.Context, attempts *int) {
	*attempts++
	res := l.doInitialize(ctx)
	if res.Outcome == lifecycle.Started {
		l.Log.Info("deferred initialization succeeded",
			zap.Int("attempts", *attempts), zap.Int("pid", res.PID))
		*attempts = 0
		return
	}
	if *attempts == 1 || *attempts%logEvery == 0 {
		l.Log.Info("deferred initialization pending",
			zap.Int("attempts", *attempts), zap.Error(res.Err))
	}
}

func (l *Loop) doInitialize(ctx context.Context) lifecycle.Result {
	if l.initialize != nil {
		return l.initialize(ctx)
	}
	r := &lifecycle.Runner{Settings: l.Settings, Lookup: l.Lookup, Log: l.Log}
	return r.Initialize(ctx)
}

func (l *Loop) doResolve(ctx context.Context) (string, error) {
	if l.resolve != nil {
		return l.resolve(ctx)
	}
	s := l.Settings
	r := &endpoint.Resolver{Override: s.Endpoint, Default: s.DefaultEndpoint, Timeout: s.ProbeTimeout}
	return r.Resolve(ctx)
}

func (l *Loop) doStart(ctx context.Context) (int, error) {
	if l.start != nil {
		return l.start(ctx)
	}
	return supervisor.Start(ctx, l.Settings, l.Lookup)
}
