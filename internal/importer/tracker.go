package importer

import "github.com/cleared-dev/backoffice/internal/id"

// Reason explains why a tracker rejected an external ID.
type Reason string

const (
	ReasonExistsInStore   Reason = "exists-in-store"
	ReasonDuplicateInFile Reason = "duplicate-in-file"
)

// Verdict is the result of Tracker.CheckAndReserve.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

// Tracker detects duplicate external IDs against the store and within one
// file. It is scoped to a single import run.
type Tracker struct {
	existing map[string]struct{}
	seen     map[string]struct{}
}

// NewTracker seeds a tracker with IDs already in the store.
func NewTracker(existing []string) *Tracker {
	t := &Tracker{
		existing: make(map[string]struct{}, len(existing)),
		seen:     make(map[string]struct{}),
	}
	for _, e := range existing {
		if k := id.Key(e); k != "" {
			t.existing[k] = struct{}{}
		}
	}
	return t
}

// CheckAndReserve accepts an ID that is neither stored nor already seen in
// this file, and reserves it. Empty IDs are always accepted and never
// reserved. A reservation is kept even if the row later fails another check.
func (t *Tracker) CheckAndReserve(externalID string) Verdict {
	k := id.Key(externalID)
	if k == "" {
		return Verdict{Accepted: true}
	}
	if _, ok := t.existing[k]; ok {
		return Verdict{Reason: ReasonExistsInStore}
	}
	if _, ok := t.seen[k]; ok {
		return Verdict{Reason: ReasonDuplicateInFile}
	}
	t.seen[k] = struct{}{}
	return Verdict{Accepted: true}
}
