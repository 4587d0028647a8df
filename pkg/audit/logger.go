// Package audit records auditable trustcore operations as structured JSON
// events. The ledger append path and the CLI write here; the sink is an
// injectable writer so callers can route events anywhere.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verity-labs/trustcore/pkg/contracts"
)

// EventType defines the category of the audit event.
type EventType string

const (
	EventAppend EventType = "APPEND"
	EventVerify EventType = "VERIFY"
	EventExport EventType = "EXPORT"
	EventImport EventType = "IMPORT"
)

// Event represents one structured audit record.
type Event struct {
	ID        string              `json:"id"`
	Agent     contracts.AgentType `json:"agent"`
	Type      EventType           `json:"type"`
	Action    string              `json:"action"`
	Resource  string              `json:"resource"`
	Timestamp time.Time           `json:"timestamp"`
	Metadata  map[string]any      `json:"metadata,omitempty"`
}

// Logger defines the interface for recording audit events.
type Logger interface {
	Record(ctx context.Context, agent contracts.AgentType, eventType EventType, action, resource string, metadata map[string]any) error
}

// logger implements Logger, writing JSON lines to a configurable Writer.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to the given writer.
// This allows injection for testing and custom sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w, clock: time.Now}
}

func (l *logger) Record(ctx context.Context, agent contracts.AgentType, eventType EventType, action, resource string, metadata map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := Event{
		ID:        uuid.New().String(),
		Agent:     agent,
		Type:      eventType,
		Action:    action,
		Resource:  resource,
		Timestamp: l.clock(),
		Metadata:  metadata,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Prefix for easy filtering in shared streams
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(bytes, '\n')...))
	return err
}

// Nop is a Logger that discards everything. Useful when a caller does not
// care about audit output but a component requires a Logger.
type Nop struct{}

func (Nop) Record(context.Context, contracts.AgentType, EventType, string, string, map[string]any) error {
	return nil
}
