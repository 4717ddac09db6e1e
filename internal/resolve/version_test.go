package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNumericVersion(t *testing.T) {
	v, err := Parse("1.2.3")
	require.NoError(t, err)
	require.False(t, v.IsBranch())
	require.Equal(t, StabilityStable, v.Stability())
	require.Equal(t, "1.2.3", v.String())
}

func TestParseStabilityTag(t *testing.T) {
	v, err := Parse("2.0.0-beta2")
	require.NoError(t, err)
	require.Equal(t, StabilityBeta, v.Stability())
}

func TestParseBranch(t *testing.T) {
	v, err := Parse("dev-master")
	require.NoError(t, err)
	require.True(t, v.IsBranch())
	require.Equal(t, "master", v.BranchName())
}

func TestCompareNumericOrdering(t *testing.T) {
	lower := MustParse("1.0.0")
	higher := MustParse("2.0.0")
	require.True(t, lower.LessThan(higher))
	require.True(t, higher.Compare(lower) > 0)
	require.True(t, lower.Equal(MustParse("1.0.0")))
}

func TestCompareStableBeatsBeta(t *testing.T) {
	stable := MustParse("1.0.0")
	beta := MustParse("1.0.0-beta1")
	require.True(t, stable.Compare(beta) > 0)
}

func TestBranchSortsBelowNumeric(t *testing.T) {
	branch := Branch("master")
	numeric := MustParse("0.0.1")
	require.True(t, branch.Compare(numeric) < 0)
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() {
		MustParse("not-a-version-!!")
	})
}
