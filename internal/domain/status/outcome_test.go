package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// ---------- Fixtures ----------

var (
	patID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	progID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func testPatient() *patient.Patient {
	dob := time.Date(2013, 3, 15, 0, 0, 0, 0, time.UTC)
	return &patient.Patient{
		ID:                patID,
		GivenName:         "Alex",
		FamilyName:        "Smith",
		DateOfBirth:       dob,
		BirthAcademicYear: programme.BirthAcademicYear(dob),
	}
}

func menACWYProgramme() *programme.Programme {
	return &programme.Programme{
		ID:                  progID,
		Type:                "menacwy",
		Name:                "MenACWY",
		Policy:              programme.PolicyAgeGatedSingleDose,
		VaccineMethods:      []string{programme.MethodInjection},
		MaximumDoseSequence: 1,
		YearGroups:          []int{9, 10, 11},
	}
}

func fluProgramme() *programme.Programme {
	p := menACWYProgramme()
	p.Type = "flu"
	p.Name = "Flu"
	p.Seasonal = true
	p.Policy = programme.PolicyStandardSingleDose
	p.VaccineMethods = []string{programme.MethodNasal, programme.MethodInjection}
	return p
}

func parentConsent(response consent.Response, methods []string, answers ...consent.HealthAnswer) *consent.Consent {
	return &consent.Consent{
		ID:             uuid.New(),
		PatientID:      patID,
		ProgrammeID:    progID,
		AcademicYear:   2024,
		ResponderType:  consent.ResponderParent,
		ResponderName:  "Jo Smith",
		Response:       response,
		VaccineMethods: methods,
		HealthAnswers:  answers,
		SubmittedAt:    time.Date(2024, 9, 20, 9, 0, 0, 0, time.UTC),
	}
}

func administeredRecord() *vaccination.Record {
	return &vaccination.Record{
		ID:                uuid.New(),
		PatientID:         patID,
		ProgrammeID:       progID,
		AcademicYear:      2024,
		Outcome:           vaccination.OutcomeAdministered,
		PerformedAt:       time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC),
		RecordedInService: true,
	}
}

func snapshot(prog *programme.Programme) Snapshot {
	return Snapshot{Patient: testPatient(), Programme: prog, AcademicYear: 2024}
}

func mustResolve(t *testing.T, s Snapshot) Resolution {
	t.Helper()
	r, err := Resolve(s)
	require.NoError(t, err)
	return r
}

// ---------- Resolve ----------

func TestResolve_NoData(t *testing.T) {
	r := mustResolve(t, snapshot(menACWYProgramme()))
	assert.Equal(t, consent.StatusNoResponse, r.ConsentStatus)
	assert.Equal(t, triage.OutcomeNotRequired, r.TriageStatus)
	assert.Equal(t, ProgrammeNoneYet, r.ProgrammeStatus)
	assert.Equal(t, ActivityConsent, r.NextActivity)
	assert.False(t, r.Vaccinated)
}

func TestResolve_VaccinatedAlwaysReports(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.VaccinationRecords = []*vaccination.Record{administeredRecord()}
	// Even a consent conflict does not displace the report activity.
	other := parentConsent(consent.ResponseRefused, nil)
	other.ResponderName = "Sam Smith"
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil), other}

	r := mustResolve(t, s)
	assert.Equal(t, ProgrammeVaccinated, r.ProgrammeStatus)
	assert.Equal(t, ActivityReport, r.NextActivity)
	assert.True(t, r.Vaccinated)
}

func TestResolve_GivenNoTriageNeeded(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil)}

	r := mustResolve(t, s)
	assert.Equal(t, consent.StatusGiven, r.ConsentStatus)
	assert.Equal(t, triage.OutcomeNotRequired, r.TriageStatus)
	assert.Equal(t, ActivityRecord, r.NextActivity)
	assert.Equal(t, []string{programme.MethodInjection}, r.VaccineMethods)
}

// Triage outranks recording: consent given and programme none_yet, but an
// unresolved health answer keeps the patient off the vaccination list.
func TestResolve_TriageBeforeRecord(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil,
		consent.HealthAnswer{Question: "Severe reactions?", Answer: "yes"})}

	r := mustResolve(t, s)
	assert.Equal(t, consent.StatusGiven, r.ConsentStatus)
	assert.Equal(t, triage.OutcomeRequired, r.TriageStatus)
	assert.Equal(t, ProgrammeNoneYet, r.ProgrammeStatus)
	assert.Equal(t, ActivityTriage, r.NextActivity)
}

func TestResolve_Refused(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseRefused, nil)}

	r := mustResolve(t, s)
	assert.Equal(t, consent.StatusRefused, r.ConsentStatus)
	assert.Equal(t, ProgrammeCouldNotVaccinate, r.ProgrammeStatus)
	assert.Equal(t, ActivityDoNotRecord, r.NextActivity)
	assert.Nil(t, r.VaccineMethods)
}

func TestResolve_ConflictsNeedFreshConsent(t *testing.T) {
	s := snapshot(menACWYProgramme())
	other := parentConsent(consent.ResponseRefused, nil)
	other.ResponderName = "Sam Smith"
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil), other}

	r := mustResolve(t, s)
	assert.Equal(t, consent.StatusConflicts, r.ConsentStatus)
	assert.Equal(t, ProgrammeNoneYet, r.ProgrammeStatus)
	assert.Equal(t, ActivityConsent, r.NextActivity)
}

func TestResolve_DoNotVaccinateTriage(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil,
		consent.HealthAnswer{Question: "Severe reactions?", Answer: "yes"})}
	s.LatestTriage = &triage.Triage{
		ID:        uuid.New(),
		Status:    triage.StatusDoNotVaccinate,
		CreatedAt: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	r := mustResolve(t, s)
	assert.Equal(t, triage.OutcomeDoNotVaccinate, r.TriageStatus)
	assert.Equal(t, ProgrammeCouldNotVaccinate, r.ProgrammeStatus)
	assert.Equal(t, ActivityDoNotRecord, r.NextActivity)
}

func TestResolve_DelayedVaccination(t *testing.T) {
	s := snapshot(menACWYProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil)}
	delayUntil := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	s.LatestTriage = &triage.Triage{
		ID:         uuid.New(),
		Status:     triage.StatusDelayVaccination,
		DelayUntil: &delayUntil,
		CreatedAt:  time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	r := mustResolve(t, s)
	assert.Equal(t, triage.OutcomeDelayVaccination, r.TriageStatus)
	assert.Equal(t, ProgrammeNoneYet, r.ProgrammeStatus)
	assert.Equal(t, ActivityDoNotRecord, r.NextActivity)
}

func TestResolve_SafeTriageChosenMethod(t *testing.T) {
	nasal := programme.MethodNasal
	s := snapshot(fluProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, nil)}
	s.LatestTriage = &triage.Triage{
		ID:            uuid.New(),
		Status:        triage.StatusReadyToVaccinate,
		VaccineMethod: &nasal,
		CreatedAt:     time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	r := mustResolve(t, s)
	assert.Equal(t, triage.OutcomeSafeToVaccinate, r.TriageStatus)
	assert.Equal(t, ActivityRecord, r.NextActivity)
	assert.Equal(t, []string{programme.MethodNasal}, r.VaccineMethods)
}

// A nurse-chosen method the consent does not cover leaves nothing
// recordable.
func TestResolve_ChosenMethodOutsideConsent(t *testing.T) {
	nasal := programme.MethodNasal
	s := snapshot(fluProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, []string{programme.MethodInjection})}
	s.LatestTriage = &triage.Triage{
		ID:            uuid.New(),
		Status:        triage.StatusReadyToVaccinate,
		VaccineMethod: &nasal,
		CreatedAt:     time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	r := mustResolve(t, s)
	assert.Nil(t, r.VaccineMethods)
	assert.Equal(t, ActivityDoNotRecord, r.NextActivity)
}

func TestResolve_ConsentMethodsNarrowProgramme(t *testing.T) {
	s := snapshot(fluProgramme())
	s.Consents = []*consent.Consent{parentConsent(consent.ResponseGiven, []string{programme.MethodInjection})}

	r := mustResolve(t, s)
	assert.Equal(t, []string{programme.MethodInjection}, r.VaccineMethods)
	assert.Equal(t, ActivityRecord, r.NextActivity)
}

func TestResolve_UnknownPolicySurfaces(t *testing.T) {
	prog := menACWYProgramme()
	prog.Policy = programme.Policy(42)
	s := snapshot(prog)
	s.VaccinationRecords = []*vaccination.Record{administeredRecord()}

	_, err := Resolve(s)
	require.Error(t, err)
}

// Full journey for one patient through an age-gated programme: consent
// arrives with a flagged answer, a nurse clears it, the dose is given.
func TestResolve_ConsentTriageRecordJourney(t *testing.T) {
	prog := menACWYProgramme()
	c := parentConsent(consent.ResponseGiven, nil,
		consent.HealthAnswer{Question: "Severe reactions?", Answer: "yes", Notes: "egg allergy"})

	s := snapshot(prog)
	s.Consents = []*consent.Consent{c}
	r := mustResolve(t, s)
	assert.Equal(t, ActivityTriage, r.NextActivity)

	s.LatestTriage = &triage.Triage{
		ID:        uuid.New(),
		Status:    triage.StatusReadyToVaccinate,
		CreatedAt: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}
	r = mustResolve(t, s)
	assert.Equal(t, ActivityRecord, r.NextActivity)
	assert.Equal(t, []string{programme.MethodInjection}, r.VaccineMethods)

	s.VaccinationRecords = []*vaccination.Record{administeredRecord()}
	r = mustResolve(t, s)
	assert.Equal(t, ProgrammeVaccinated, r.ProgrammeStatus)
	assert.Equal(t, ActivityReport, r.NextActivity)
}
