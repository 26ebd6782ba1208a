package consent

// Status is the categorical summary of all current responses for one
// patient and programme.
type Status string

const (
	StatusNoResponse Status = "no_response"
	StatusConflicts  Status = "conflicts"
	StatusGiven      Status = "given"
	StatusRefused    Status = "refused"
)

// Outcome combines the current (already-grouped) responses for one
// patient and programme. Construct one per (patient, programme, academic
// year); instances are immutable once built and safe to share.
type Outcome struct {
	current []*Consent
}

// NewOutcome takes the output of Grouper.Current (or the equivalent
// set-based query): at most one row per responder.
func NewOutcome(current []*Consent) *Outcome {
	return &Outcome{current: current}
}

// Status resolves to exactly one of the four categories.
//
// A self-consent response alone decides the status: once a patient has
// consented (or refused) for themself, parental responses are ignored.
// Otherwise the status is unanimous-given, unanimous-refused, conflicts
// when both appear, and no_response for an empty or still-pending set.
// All-given responses whose vaccine method sets cannot be reconciled
// also count as conflicts: there is no single method everyone agreed to.
func (o *Outcome) Status() Status {
	if self := o.selfConsent(); self != nil {
		if self.Given() {
			return StatusGiven
		}
		return StatusRefused
	}

	var given, refused int
	for _, c := range o.current {
		switch {
		case c.Given():
			given++
		case c.Refused():
			refused++
		}
	}

	switch {
	case given > 0 && refused > 0:
		return StatusConflicts
	case given > 0 && given == len(o.current):
		if methods, constrained := o.agreedMethods(); constrained && len(methods) == 0 {
			return StatusConflicts
		}
		return StatusGiven
	case refused > 0 && refused == len(o.current):
		return StatusRefused
	default:
		return StatusNoResponse
	}
}

func (o *Outcome) Given() bool      { return o.Status() == StatusGiven }
func (o *Outcome) Refused() bool    { return o.Status() == StatusRefused }
func (o *Outcome) Conflicts() bool  { return o.Status() == StatusConflicts }
func (o *Outcome) NoResponse() bool { return o.Status() == StatusNoResponse }

// NeedsTriage reports whether any given response carries an affirmative
// health answer.
func (o *Outcome) NeedsTriage() bool {
	for _, c := range o.current {
		if c.RequiresTriage() {
			return true
		}
	}
	return false
}

// VaccineMethods returns the methods every given response agrees to, in
// the order of the first constrained response. Nil when the status is not
// given, or when no response constrained the method (meaning any of the
// programme's methods is acceptable).
func (o *Outcome) VaccineMethods() []string {
	if o.Status() != StatusGiven {
		return nil
	}
	methods, _ := o.agreedMethods()
	return methods
}

// Responses returns the current grouped responses the outcome was built
// from.
func (o *Outcome) Responses() []*Consent { return o.current }

func (o *Outcome) selfConsent() *Consent {
	for _, c := range o.current {
		if c.SelfConsent() && !c.Invalidated() {
			return c
		}
	}
	return nil
}

// agreedMethods intersects the method sets of the responses that decide
// the outcome: the self-consent alone when one exists, otherwise every
// given parental response. Responses that recorded no method set impose
// no constraint; constrained is false when none of them did.
func (o *Outcome) agreedMethods() (methods []string, constrained bool) {
	deciding := o.current
	if self := o.selfConsent(); self != nil {
		deciding = []*Consent{self}
	}

	for _, c := range deciding {
		if !c.Given() || len(c.VaccineMethods) == 0 {
			continue
		}
		if !constrained {
			methods = append(methods, c.VaccineMethods...)
			constrained = true
			continue
		}
		methods = intersect(methods, c.VaccineMethods)
	}
	return methods, constrained
}

func intersect(a, b []string) []string {
	var out []string
	for _, v := range a {
		for _, w := range b {
			if v == w {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
