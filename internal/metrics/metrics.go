// Package metrics records operational counters for the ledger service.
package metrics

import (
	"time"
)

// Collector receives measurements from the HTTP layer, the ledger service,
// the event publisher and the mirror worker.
type Collector interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordTransactionWritten(operation string)
	RecordEventPublished(action string, success bool)
	RecordCacheLookup(cache string, hit bool)
	RecordCircuitState(name string, state CircuitState)
	RecordMirrorSync(operation string, success bool, duration time.Duration)
}

// CircuitState mirrors the three breaker states.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector discards every measurement.
type NoOpCollector struct{}

func (NoOpCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {}
func (NoOpCollector) RecordTransactionWritten(operation string) {}
func (NoOpCollector) RecordEventPublished(action string, success bool) {}
func (NoOpCollector) RecordCacheLookup(cache string, hit bool) {}
func (NoOpCollector) RecordCircuitState(name string, state CircuitState) {}
func (NoOpCollector) RecordMirrorSync(operation string, success bool, duration time.Duration) {}
