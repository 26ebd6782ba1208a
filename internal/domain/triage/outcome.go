package triage

import (
	"github.com/sais/sais/internal/domain/consent"
)

// OutcomeStatus is the triage disposition derived for one patient and
// programme.
type OutcomeStatus string

const (
	OutcomeSafeToVaccinate  OutcomeStatus = "safe_to_vaccinate"
	OutcomeDoNotVaccinate   OutcomeStatus = "do_not_vaccinate"
	OutcomeDelayVaccination OutcomeStatus = "delay_vaccination"
	OutcomeRequired         OutcomeStatus = "required"
	OutcomeNotRequired      OutcomeStatus = "not_required"
)

// ResolveOutcome derives the triage disposition from the latest
// non-invalidated decision, the consent outcome, and whether the
// patient's administered history is ambiguous (some doses given but the
// programme's vaccinated criteria not met).
//
// An explicit nurse decision always wins. Without one, triage is
// required when the latest decision asks for follow-up, or when consent
// was given but either a health answer needs checking or the dose
// history needs clinical interpretation. A delay decision is not
// promoted back automatically once its date passes; staff re-triage
// explicitly.
func ResolveOutcome(latest *Triage, consentOutcome *consent.Outcome, partiallyVaccinated bool) OutcomeStatus {
	if latest != nil {
		switch latest.Status {
		case StatusReadyToVaccinate:
			return OutcomeSafeToVaccinate
		case StatusDoNotVaccinate:
			return OutcomeDoNotVaccinate
		case StatusDelayVaccination:
			return OutcomeDelayVaccination
		case StatusNeedsFollowUp:
			return OutcomeRequired
		}
	}

	if consentOutcome != nil && consentOutcome.Given() &&
		(consentOutcome.NeedsTriage() || partiallyVaccinated) {
		return OutcomeRequired
	}

	return OutcomeNotRequired
}
