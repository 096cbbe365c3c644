// Package audit persists an append-only trail of RPC activity. Events are
// published on the shared event bus by the transport and consumed here by
// a single writer goroutine, so a slow disk never sits on the request
// path. Only call metadata and outcomes are stored — never tool results.
package audit

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"membridge/internal/infra/eventbus"
)

// TopicRPC is the bus topic the transport publishes Event payloads on.
const TopicRPC = "rpc.event"

// Outcome classifies how a call ended.
type Outcome string

const (
	// OutcomeOK: the RPC completed and the tool reported success.
	OutcomeOK Outcome = "ok"
	// OutcomeDomainError: the RPC completed but the tool reported an
	// application-level failure inside its result payload.
	OutcomeDomainError Outcome = "domain_error"
	// OutcomeProtocolError: the call failed at the protocol layer.
	OutcomeProtocolError Outcome = "protocol_error"
)

// Event is one auditable RPC occurrence.
type Event struct {
	Method   string
	Tool     string
	Outcome  Outcome
	Code     int    // protocol error code, 0 otherwise
	Detail   string // error message, empty on success
	Duration time.Duration
}

// StoredEvent is an Event as read back from the store.
type StoredEvent struct {
	ID        string
	Event
	CreatedAt string
}

// Service provides append-only audit logging. All writes happen through
// Log; there are no updates or deletes.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service over a migrated database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Log appends one event. IDs are ULIDs, so rows sort by creation time.
func (s *Service) Log(ctx context.Context, evt Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rpc_event (id, method, tool, outcome, code, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(),
		evt.Method,
		evt.Tool,
		string(evt.Outcome),
		evt.Code,
		evt.Detail,
		evt.Duration.Milliseconds(),
	)
	return err
}

// Recent returns the newest events, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, method, tool, outcome, code, detail, duration_ms, created_at
		 FROM rpc_event ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var evt StoredEvent
		var outcome string
		var durationMS int64
		if err := rows.Scan(&evt.ID, &evt.Method, &evt.Tool, &outcome, &evt.Code,
			&evt.Detail, &durationMS, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.Outcome = Outcome(outcome)
		evt.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Start consumes TopicRPC from the bus and persists each event until ctx
// is cancelled. Run it on its own goroutine.
func (s *Service) Start(ctx context.Context, bus eventbus.EventBus) {
	events := bus.Subscribe(TopicRPC)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			payload, ok := evt.Payload.(Event)
			if !ok {
				continue
			}
			if err := s.Log(ctx, payload); err != nil && ctx.Err() == nil {
				log.Printf("audit: persist event: %v", err)
			}
		}
	}
}
