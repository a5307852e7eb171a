// Package models defines the event records shared by the agent, the chain
// log, and the collector delivery path.
package models

import "time"

// EventType classifies a filesystem change.
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
)

// HashNone is the sentinel written when a before/after hash does not apply:
// a create has no prior content, a delete has no remaining content.
const HashNone = "-"

// FIMEvent is one detected filesystem change. Records are immutable once
// appended to the chain log; ChainValue is assigned by the chain logger, all
// other fields by the detector.
type FIMEvent struct {
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	EventType      EventType `json:"event_type"`
	FilePath       string    `json:"file_path"`
	HashBefore     string    `json:"hash_before"`
	HashAfter      string    `json:"hash_after"`
	RiskScore      int       `json:"risk_score"`
	TechniqueLabel string    `json:"technique_label"`
	ActorUser      string    `json:"actor_user"`
	ActorProcess   string    `json:"actor_process"`
	Host           string    `json:"host"`
	Site           string    `json:"site"`
	Reason         string    `json:"reason"`
	ChainValue     string    `json:"chain_value"`
}

// CollectorEvent is the outbound payload shape the collector ingests.
type CollectorEvent struct {
	AgentID   string    `json:"agent_id"`
	Path      string    `json:"path"`
	Action    EventType `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash,omitempty"`
	PrevHash  string    `json:"prev_hash,omitempty"`
	User      string    `json:"user,omitempty"`
	Site      string    `json:"site,omitempty"`
	EventID   string    `json:"event_id"`
	RiskScore int       `json:"risk_score"`
	Technique string    `json:"technique"`
	Reason    string    `json:"reason,omitempty"`
}

// ToCollectorEvent maps a local event to the collector ingest shape.
// The agent identifier is the host label the agent was configured with.
func (e FIMEvent) ToCollectorEvent() CollectorEvent {
	out := CollectorEvent{
		AgentID:   e.Host,
		Path:      e.FilePath,
		Action:    e.EventType,
		Timestamp: e.Timestamp,
		User:      e.ActorUser,
		Site:      e.Site,
		EventID:   e.EventID,
		RiskScore: e.RiskScore,
		Technique: e.TechniqueLabel,
		Reason:    e.Reason,
	}
	if e.HashAfter != HashNone {
		out.Hash = e.HashAfter
	}
	if e.HashBefore != HashNone {
		out.PrevHash = e.HashBefore
	}
	return out
}
