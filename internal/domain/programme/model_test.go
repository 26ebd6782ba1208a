package programme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProgramme() *Programme {
	return &Programme{
		Type:                "hpv",
		Name:                "HPV",
		Policy:              PolicyStandardSingleDose,
		VaccineMethods:      []string{MethodInjection},
		MaximumDoseSequence: 1,
		YearGroups:          []int{8, 9, 10, 11},
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"standard_single_dose":  PolicyStandardSingleDose,
		"age_gated_single_dose": PolicyAgeGatedSingleDose,
		"multi_dose_booster":    PolicyMultiDoseBooster,
	}
	for name, want := range cases {
		got, err := ParsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}
}

func TestParsePolicy_UnknownRejected(t *testing.T) {
	_, err := ParsePolicy("three_dose_primary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown clinical policy")

	_, err = ParsePolicy("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validProgramme().Validate())

	unknownPolicy := validProgramme()
	unknownPolicy.Policy = Policy(0)
	assert.Error(t, unknownPolicy.Validate())

	noMethods := validProgramme()
	noMethods.VaccineMethods = nil
	assert.Error(t, noMethods.Validate())

	boosterWithoutSequence := validProgramme()
	boosterWithoutSequence.Policy = PolicyMultiDoseBooster
	assert.Error(t, boosterWithoutSequence.Validate())

	seq := 4
	booster := validProgramme()
	booster.Policy = PolicyMultiDoseBooster
	booster.VaccinatedDoseSequence = &seq
	booster.MaximumDoseSequence = 5
	assert.NoError(t, booster.Validate())

	badMaximum := validProgramme()
	badMaximum.MaximumDoseSequence = 0
	assert.Error(t, badMaximum.Validate())
}

func TestEligibleFor(t *testing.T) {
	p := validProgramme()
	assert.True(t, p.EligibleFor(8))
	assert.True(t, p.EligibleFor(11))
	assert.False(t, p.EligibleFor(7))
	assert.False(t, p.EligibleFor(12))
}

func TestOffersMethod(t *testing.T) {
	p := validProgramme()
	assert.True(t, p.OffersMethod(MethodInjection))
	assert.False(t, p.OffersMethod(MethodNasal))
	assert.False(t, p.OffersMethod(""))
}
