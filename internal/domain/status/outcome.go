package status

import (
	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// ProgrammeStatus is the coarse completion status for one patient,
// programme and academic year.
type ProgrammeStatus string

const (
	ProgrammeVaccinated        ProgrammeStatus = "vaccinated"
	ProgrammeCouldNotVaccinate ProgrammeStatus = "could_not_vaccinate"
	ProgrammeNoneYet           ProgrammeStatus = "none_yet"
)

// Activity is the single next action recommended to the clinical team.
type Activity string

const (
	ActivityDoNotRecord Activity = "do_not_record"
	ActivityConsent     Activity = "consent"
	ActivityTriage      Activity = "triage"
	ActivityReport      Activity = "report"
	ActivityRecord      Activity = "record"
)

// Snapshot carries the pre-loaded facts one resolution needs. Consents
// must already be grouped one-per-responder and LatestTriage must be the
// newest non-invalidated decision; both come from either the in-memory
// helpers or the repositories' set-based queries.
type Snapshot struct {
	Patient      *patient.Patient
	Programme    *programme.Programme
	AcademicYear int

	Consents           []*consent.Consent
	LatestTriage       *triage.Triage
	VaccinationRecords []*vaccination.Record
}

// Resolution is every layered status derived from one snapshot.
type Resolution struct {
	ConsentStatus   consent.Status       `json:"consent_status"`
	TriageStatus    triage.OutcomeStatus `json:"triage_status"`
	ProgrammeStatus ProgrammeStatus      `json:"programme_status"`
	NextActivity    Activity             `json:"next_activity"`
	VaccineMethods  []string             `json:"vaccine_methods,omitempty"`
	Vaccinated      bool                 `json:"vaccinated"`
}

// Resolve runs the full decision pipeline for one (patient, programme,
// academic year). It never errors on absent data; the only error is the
// configuration class, a programme whose policy has no criteria.
func Resolve(s Snapshot) (Resolution, error) {
	consentOutcome := consent.NewOutcome(s.Consents)

	vaccinated, err := vaccination.Vaccinated(s.Programme, s.Patient, s.AcademicYear, s.VaccinationRecords)
	if err != nil {
		return Resolution{}, err
	}
	partial, err := vaccination.PartiallyVaccinated(s.Programme, s.Patient, s.AcademicYear, s.VaccinationRecords)
	if err != nil {
		return Resolution{}, err
	}

	triageStatus := triage.ResolveOutcome(s.LatestTriage, consentOutcome, partial)
	consentStatus := consentOutcome.Status()

	programmeStatus := ProgrammeNoneYet
	switch {
	case vaccinated:
		programmeStatus = ProgrammeVaccinated
	case consentStatus == consent.StatusRefused || triageStatus == triage.OutcomeDoNotVaccinate:
		programmeStatus = ProgrammeCouldNotVaccinate
	}

	methods := reconcileMethods(s.Programme, consentOutcome, triageStatus, s.LatestTriage)

	return Resolution{
		ConsentStatus:   consentStatus,
		TriageStatus:    triageStatus,
		ProgrammeStatus: programmeStatus,
		NextActivity:    nextActivity(programmeStatus, consentStatus, triageStatus, methods),
		VaccineMethods:  methods,
		Vaccinated:      vaccinated,
	}, nil
}

// nextActivity is a strict first-match decision table; a patient can
// satisfy several of the looser conditions at once, so the order is load
// bearing.
func nextActivity(
	programmeStatus ProgrammeStatus,
	consentStatus consent.Status,
	triageStatus triage.OutcomeStatus,
	methods []string,
) Activity {
	switch {
	case programmeStatus == ProgrammeVaccinated:
		return ActivityReport
	case consentStatus == consent.StatusGiven &&
		(triageStatus == triage.OutcomeSafeToVaccinate || triageStatus == triage.OutcomeNotRequired) &&
		len(methods) > 0:
		return ActivityRecord
	case triageStatus == triage.OutcomeRequired:
		return ActivityTriage
	case consentStatus == consent.StatusNoResponse || consentStatus == consent.StatusConflicts:
		return ActivityConsent
	default:
		return ActivityDoNotRecord
	}
}

// reconcileMethods narrows the programme's method list to what the
// consent allows, and to the nurse's chosen method when a safe triage
// decision named one. Nil when the patient is not currently recordable.
func reconcileMethods(
	prog *programme.Programme,
	consentOutcome *consent.Outcome,
	triageStatus triage.OutcomeStatus,
	latestTriage *triage.Triage,
) []string {
	if !consentOutcome.Given() {
		return nil
	}

	allowed := consentOutcome.VaccineMethods()
	if allowed == nil {
		// No response constrained the method.
		allowed = prog.VaccineMethods
	}

	var methods []string
	for _, m := range allowed {
		if prog.OffersMethod(m) {
			methods = append(methods, m)
		}
	}

	if triageStatus == triage.OutcomeSafeToVaccinate &&
		latestTriage != nil && latestTriage.VaccineMethod != nil {
		for _, m := range methods {
			if m == *latestTriage.VaccineMethod {
				return []string{m}
			}
		}
		return nil
	}

	return methods
}
