// Package detector diffs two baseline snapshots into typed change events.
package detector

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-fim/internal/baseline"
	"github.com/telhawk-systems/telhawk-fim/internal/models"
)

// Detector turns snapshot diffs into enriched FIMEvents.
type Detector struct {
	host    string
	site    string
	user    string
	process string
	now     func() time.Time
}

// New creates a Detector that stamps events with the given host and site
// labels. Actor fields are captured once at construction: the invoking user
// and the agent process name do not change over the agent's lifetime.
func New(host, site string) *Detector {
	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	process := filepath.Base(os.Args[0])
	if process == "" || process == "." {
		process = "fim-agent"
	}
	return &Detector{
		host:    host,
		site:    site,
		user:    user,
		process: process,
		now:     time.Now,
	}
}

// Diff computes the events between the previous store and the current
// snapshot. Content identity is authoritative: a changed mtime with an
// unchanged hash produces no event. Within one cycle no cross-type ordering
// is guaranteed.
func (d *Detector) Diff(prev, cur baseline.Store) []models.FIMEvent {
	var events []models.FIMEvent

	for path, fs := range cur {
		old, existed := prev[path]
		switch {
		case !existed:
			events = append(events, d.newEvent(models.EventCreate, path, models.HashNone, fs.Hash))
		case old.Hash != fs.Hash:
			events = append(events, d.newEvent(models.EventModify, path, old.Hash, fs.Hash))
		}
	}

	for path, old := range prev {
		if _, exists := cur[path]; !exists {
			events = append(events, d.newEvent(models.EventDelete, path, old.Hash, models.HashNone))
		}
	}

	return events
}

func (d *Detector) newEvent(t models.EventType, path, hashBefore, hashAfter string) models.FIMEvent {
	return models.FIMEvent{
		EventID:        uuid.New().String(),
		Timestamp:      d.now().UTC(),
		EventType:      t,
		FilePath:       path,
		HashBefore:     hashBefore,
		HashAfter:      hashAfter,
		RiskScore:      RiskScore(t),
		TechniqueLabel: Technique(t),
		ActorUser:      d.user,
		ActorProcess:   d.process,
		Host:           d.host,
		Site:           d.site,
		Reason:         reason(t),
	}
}
