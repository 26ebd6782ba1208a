package vaccination

import (
	"fmt"

	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
)

// Vaccinated decides whether the patient's history meets the programme's
// clinical completion criteria for the given academic year. It is a pure
// predicate over the supplied records: patient age is always measured at
// each record's performed-at instant.
//
// Any kept already_had record satisfies the criteria outright. Otherwise
// only administered records count, filtered by the programme's policy
// variant:
//
//   - standard single dose: any administered record;
//   - age-gated single dose: an administered record given at or after the
//     minimum age;
//   - multi-dose booster: an administered record whose dose sequence
//     equals the programme's vaccinated dose sequence (or whose sequence
//     is unknown but was recorded directly in this service), given at or
//     after the minimum age.
//
// Seasonal programmes re-run every academic year, so only records from
// the year under evaluation are considered for them.
//
// An unconfigured policy variant is a configuration error and is
// reported loudly rather than defaulting.
func Vaccinated(prog *programme.Programme, pat *patient.Patient, academicYear int, records []*Record) (bool, error) {
	records = relevant(prog, pat, academicYear, records)

	for _, r := range records {
		if r.AlreadyHad() {
			return true, nil
		}
	}

	for _, r := range records {
		if !r.Administered() {
			continue
		}
		ok, err := satisfies(prog, pat, r)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// PartiallyVaccinated reports an ambiguous history: at least one
// administered dose in scope, but the completion criteria not met. Such
// patients need clinical interpretation before another dose is offered.
func PartiallyVaccinated(prog *programme.Programme, pat *patient.Patient, academicYear int, records []*Record) (bool, error) {
	vaccinated, err := Vaccinated(prog, pat, academicYear, records)
	if err != nil || vaccinated {
		return false, err
	}
	for _, r := range relevant(prog, pat, academicYear, records) {
		if r.Administered() {
			return true, nil
		}
	}
	return false, nil
}

func satisfies(prog *programme.Programme, pat *patient.Patient, r *Record) (bool, error) {
	switch prog.Policy {
	case programme.PolicyStandardSingleDose:
		return true, nil
	case programme.PolicyAgeGatedSingleDose:
		return pat.AgeYears(r.PerformedAt) >= programme.MinimumAgeYears, nil
	case programme.PolicyMultiDoseBooster:
		if pat.AgeYears(r.PerformedAt) < programme.MinimumAgeYears {
			return false, nil
		}
		if r.DoseSequence == nil {
			return r.RecordedInService, nil
		}
		return prog.VaccinatedDoseSequence != nil && *r.DoseSequence == *prog.VaccinatedDoseSequence, nil
	default:
		return false, fmt.Errorf("programme %s: no vaccinated criteria for policy %q", prog.Type, prog.Policy)
	}
}

// relevant filters to kept records for this patient and programme, scoped
// to the academic year for seasonal programmes and to the year and all
// earlier years otherwise.
func relevant(prog *programme.Programme, pat *patient.Patient, academicYear int, records []*Record) []*Record {
	var out []*Record
	for _, r := range records {
		if !r.Kept() || r.PatientID != pat.ID || r.ProgrammeID != prog.ID {
			continue
		}
		if prog.Seasonal {
			if r.AcademicYear != academicYear {
				continue
			}
		} else if r.AcademicYear > academicYear {
			continue
		}
		out = append(out, r)
	}
	return out
}
