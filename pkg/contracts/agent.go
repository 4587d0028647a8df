// Package contracts defines the shared value types exchanged between the
// grounding engine, the receipt ledger, the snapshot codec and their
// callers. Everything here is a plain serializable value: field names are
// stable and decoding tolerates unknown fields, so records can cross
// process boundaries.
package contracts

import "time"

// AgentType identifies the independent subsystem that performed an action,
// holds evidence, or produced a snapshot.
type AgentType string

const (
	AgentMemory   AgentType = "memory"
	AgentVision   AgentType = "vision"
	AgentCodebase AgentType = "codebase"
	AgentIdentity AgentType = "identity"
	AgentTime     AgentType = "time"
	AgentContract AgentType = "contract"
)

// Valid reports whether t is a known agent type.
func (t AgentType) Valid() bool {
	switch t {
	case AgentMemory, AgentVision, AgentCodebase, AgentIdentity, AgentTime, AgentContract:
		return true
	}
	return false
}

func (t AgentType) String() string {
	return string(t)
}

// AgentStatus is the coarse lifecycle state of an agent.
type AgentStatus string

const (
	StatusStarting     AgentStatus = "starting"
	StatusReady        AgentStatus = "ready"
	StatusBusy         AgentStatus = "busy"
	StatusDegraded     AgentStatus = "degraded"
	StatusShuttingDown AgentStatus = "shutting_down"
	StatusError        AgentStatus = "error"
)

// HealthStatus is reported by an agent to an orchestrating caller.
type HealthStatus struct {
	Healthy       bool        `json:"healthy"`
	Status        AgentStatus `json:"status"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Warnings      []string    `json:"warnings,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	CheckedAt     time.Time   `json:"checked_at"`
}
