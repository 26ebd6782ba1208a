package programme

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Policy identifies the clinical completion rule a programme uses when
// deciding whether a patient's vaccination history counts as vaccinated.
// The set is closed: unknown values are rejected when reference data is
// loaded, never defaulted at evaluation time.
type Policy int

const (
	// PolicyStandardSingleDose counts any administered dose.
	PolicyStandardSingleDose Policy = iota + 1
	// PolicyAgeGatedSingleDose counts an administered dose only when the
	// patient was at least MinimumAgeYears old at the time it was given
	// (MenACWY-style).
	PolicyAgeGatedSingleDose
	// PolicyMultiDoseBooster counts an administered dose matching the
	// programme's vaccinated dose sequence, given at or above
	// MinimumAgeYears (Td/IPV-style).
	PolicyMultiDoseBooster
)

// MinimumAgeYears is the age gate applied by the age-gated and booster
// policies, measured at the performed-at instant of each record.
const MinimumAgeYears = 10

var policyNames = map[Policy]string{
	PolicyStandardSingleDose: "standard_single_dose",
	PolicyAgeGatedSingleDose: "age_gated_single_dose",
	PolicyMultiDoseBooster:   "multi_dose_booster",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a stored policy name to its variant. Unknown names are
// a configuration error and reported as such.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown clinical policy %q", s)
}

// Vaccine methods a programme can offer. The order of a programme's
// method list reflects clinical preference.
const (
	MethodInjection = "injection"
	MethodNasal     = "nasal"
)

// Programme is immutable reference data describing one vaccination
// programme.
type Programme struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	Type                   string    `db:"type" json:"type"`
	Name                   string    `db:"name" json:"name"`
	Seasonal               bool      `db:"seasonal" json:"seasonal"`
	Policy                 Policy    `db:"policy" json:"policy"`
	VaccineMethods         []string  `db:"vaccine_methods" json:"vaccine_methods"`
	VaccinatedDoseSequence *int      `db:"vaccinated_dose_sequence" json:"vaccinated_dose_sequence,omitempty"`
	MaximumDoseSequence    int       `db:"maximum_dose_sequence" json:"maximum_dose_sequence"`
	YearGroups             []int     `db:"year_groups" json:"year_groups"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// EligibleFor reports whether the programme is offered to the given
// school year group.
func (p *Programme) EligibleFor(yearGroup int) bool {
	for _, yg := range p.YearGroups {
		if yg == yearGroup {
			return true
		}
	}
	return false
}

// OffersMethod reports whether the programme can be delivered via the
// given vaccine method.
func (p *Programme) OffersMethod(method string) bool {
	for _, m := range p.VaccineMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Validate checks the reference data is internally consistent. It is run
// when programmes are loaded so that evaluation never has to deal with a
// half-configured programme.
func (p *Programme) Validate() error {
	if _, ok := policyNames[p.Policy]; !ok {
		return fmt.Errorf("programme %s: unknown clinical policy %d", p.Type, int(p.Policy))
	}
	if len(p.VaccineMethods) == 0 {
		return fmt.Errorf("programme %s: no vaccine methods configured", p.Type)
	}
	if p.Policy == PolicyMultiDoseBooster && p.VaccinatedDoseSequence == nil {
		return fmt.Errorf("programme %s: multi-dose booster requires a vaccinated dose sequence", p.Type)
	}
	if p.MaximumDoseSequence < 1 {
		return fmt.Errorf("programme %s: maximum dose sequence must be positive", p.Type)
	}
	return nil
}
