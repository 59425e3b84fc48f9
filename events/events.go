/*
Package events defines the outbound event surface of the simulator.

PURPOSE:
  Downstream consumers (dashboards, notification services) want to know
  when a simulation run completes without polling the runs API. The
  Publisher interface decouples the HTTP handlers from the transport;
  the kafka subpackage is the real implementation and Nop keeps the
  wiring optional for local runs and tests.

SEE ALSO:
  - events/kafka: the Kafka publisher
*/
package events

import (
	"context"
	"time"
)

// RunCompleted is emitted once per persisted simulation run.
type RunCompleted struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	Rows        int       `json:"rows"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher emits run-completed events. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompleted) error
	Close() error
}

// Nop discards all events. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishRunCompleted(ctx context.Context, event RunCompleted) error { return nil }

func (Nop) Close() error { return nil }
