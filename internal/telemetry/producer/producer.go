// Package producer publishes maintenance job outcomes to a message broker.
package producer

import (
	"loyalty-accounts/internal/telemetry"
)

// Producer is a JobEventEmitter backed by a broker connection that must be closed.
type Producer interface {
	telemetry.JobEventEmitter
	// Close flushes pending writes and releases the connection. Safe to call if already closed.
	Close() error
}
