// Package telemetry publishes maintenance job outcomes to observability sinks.
package telemetry

import (
	"context"
	"errors"

	auditdomain "loyalty-accounts/internal/audit/domain"
)

// JobEventEmitter publishes one job execution. Best-effort; callers log and ignore errors.
type JobEventEmitter interface {
	Emit(ctx context.Context, exec *auditdomain.JobExecution) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Emit(context.Context, *auditdomain.JobExecution) error { return nil }

// Multi fans an event out to every non-nil emitter. All emitters are tried; their errors are joined.
func Multi(emitters ...JobEventEmitter) JobEventEmitter {
	out := make(multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return Noop{}
	}
	return out
}

type multi []JobEventEmitter

func (m multi) Emit(ctx context.Context, exec *auditdomain.JobExecution) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, exec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
