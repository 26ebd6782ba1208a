package consent

import (
	"sort"

	"github.com/rs/zerolog"
)

// Grouper collapses a collection of consent rows into one current row per
// responder: invalidated rows and rows with no response are dropped, the
// remainder are grouped by responder identity, and the most recently
// submitted row in each group wins. The same logical operation exists as
// a set-based query in the repository; the two must agree.
type Grouper struct {
	log zerolog.Logger
}

func NewGrouper(log zerolog.Logger) *Grouper {
	return &Grouper{log: log}
}

// Current returns at most one row per responder, ordered by responder
// identity then submission time so the result is stable across runs.
func (g *Grouper) Current(consents []*Consent) []*Consent {
	latest := make(map[Responder]*Consent)
	for _, c := range consents {
		if c.Invalidated() || c.Response == ResponseNotProvided {
			continue
		}
		responder := c.Responder()
		existing, ok := latest[responder]
		if !ok {
			latest[responder] = c
			continue
		}
		if replaces(c, existing) {
			latest[responder] = c
		}
		if c.SubmittedAt.Equal(existing.SubmittedAt) {
			// Identical timestamps from one responder usually mean a
			// data-entry duplicate. The ID tie-break keeps the result
			// deterministic, but flag it.
			g.log.Warn().
				Str("patient_id", c.PatientID.String()).
				Str("programme_id", c.ProgrammeID.String()).
				Str("responder_name", c.ResponderName).
				Time("submitted_at", c.SubmittedAt).
				Msg("consents with identical submission timestamps")
		}
	}

	current := make([]*Consent, 0, len(latest))
	for _, c := range latest {
		current = append(current, c)
	}
	sort.Slice(current, func(i, j int) bool {
		a, b := current[i], current[j]
		if a.ResponderType != b.ResponderType {
			return a.ResponderType < b.ResponderType
		}
		if a.ResponderName != b.ResponderName {
			return a.ResponderName < b.ResponderName
		}
		return a.ID.String() < b.ID.String()
	})
	return current
}

// replaces reports whether candidate supersedes existing within one
// responder group: later submission wins, identical submissions fall back
// to the higher ID so the choice never depends on input order.
func replaces(candidate, existing *Consent) bool {
	if candidate.SubmittedAt.After(existing.SubmittedAt) {
		return true
	}
	if candidate.SubmittedAt.Equal(existing.SubmittedAt) {
		return candidate.ID.String() > existing.ID.String()
	}
	return false
}
