package consent

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Response is the answer a responder gave.
type Response string

const (
	ResponseGiven       Response = "given"
	ResponseRefused     Response = "refused"
	ResponseNotProvided Response = ""
)

// ResponderType distinguishes a parent or guardian from the patient
// consenting for themself under a competence assessment.
type ResponderType string

const (
	ResponderParent ResponderType = "parent"
	ResponderSelf   ResponderType = "self"
)

// Responder identifies who gave a response. Two responses belong to the
// same responder when both the type and the name match.
type Responder struct {
	Type ResponderType `json:"type"`
	Name string        `json:"name"`
}

// HealthAnswer is one answer from the health questionnaire attached to a
// consent response.
type HealthAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Notes    string `json:"notes,omitempty"`
}

// RequiresFollowUp reports whether the answer flags something a nurse
// needs to look at before vaccinating.
func (h HealthAnswer) RequiresFollowUp() bool {
	return strings.EqualFold(strings.TrimSpace(h.Answer), "yes")
}

// Consent is one response event. Rows are append-only: resubmission
// creates a new row, and withdrawal or invalidation stamps the existing
// one rather than deleting it.
type Consent struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	PatientID      uuid.UUID      `db:"patient_id" json:"patient_id"`
	ProgrammeID    uuid.UUID      `db:"programme_id" json:"programme_id"`
	AcademicYear   int            `db:"academic_year" json:"academic_year"`
	ResponderType  ResponderType  `db:"responder_type" json:"responder_type"`
	ResponderName  string         `db:"responder_name" json:"responder_name"`
	Response       Response       `db:"response" json:"response"`
	VaccineMethods []string       `db:"vaccine_methods" json:"vaccine_methods"`
	HealthAnswers  []HealthAnswer `db:"health_answers" json:"health_answers,omitempty"`
	SubmittedAt    time.Time      `db:"submitted_at" json:"submitted_at"`
	InvalidatedAt  *time.Time     `db:"invalidated_at" json:"invalidated_at,omitempty"`
	WithdrawnAt    *time.Time     `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

func (c *Consent) Responder() Responder {
	return Responder{Type: c.ResponderType, Name: c.ResponderName}
}

func (c *Consent) Invalidated() bool { return c.InvalidatedAt != nil }
func (c *Consent) Withdrawn() bool   { return c.WithdrawnAt != nil }

func (c *Consent) Given() bool   { return c.Response == ResponseGiven && !c.Withdrawn() }
func (c *Consent) Refused() bool { return c.Response == ResponseRefused || (c.Response == ResponseGiven && c.Withdrawn()) }

// SelfConsent reports whether the patient responded directly.
func (c *Consent) SelfConsent() bool { return c.ResponderType == ResponderSelf }

// RequiresTriage reports whether a given response carries at least one
// affirmative health answer.
func (c *Consent) RequiresTriage() bool {
	if !c.Given() {
		return false
	}
	for _, answer := range c.HealthAnswers {
		if answer.RequiresFollowUp() {
			return true
		}
	}
	return false
}
