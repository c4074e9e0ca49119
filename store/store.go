// Package store holds per-domain state containers sitting between the
// domain services and a UI. Each store moves through an explicit lifecycle
// and never propagates service errors; failures are captured as state.
package store

// State is the lifecycle phase of a store's data.
type State int

const (
	// Idle means no fetch has started yet.
	Idle State = iota
	// Loading means a fetch is in flight.
	Loading
	// Ready means the last fetch succeeded and the data is usable.
	Ready
	// Failed means the last fetch errored; Err carries the cause.
	Failed
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
