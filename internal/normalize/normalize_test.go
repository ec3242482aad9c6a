package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func stepByName(t *testing.T, name string) Step {
	t.Helper()
	for _, st := range Steps {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("no step named %q", name)
	return Step{}
}

func TestStepNewlinesToSpace(t *testing.T) {
	st := stepByName(t, "newlines-to-space")
	require.Equal(t, "a b c", st.Apply("a\nb\r\nc"))
}

func TestStepCollapseWhitespace(t *testing.T) {
	st := stepByName(t, "collapse-whitespace")
	require.Equal(t, "a b", st.Apply("a    b"))
	require.Equal(t, "a b", st.Apply("a \t b"))
}

func TestStepStripSpaceBeforePunct(t *testing.T) {
	st := stepByName(t, "strip-space-before-punct")
	require.Equal(t, "value.", st.Apply("value ."))
	require.Equal(t, "a,b", st.Apply("a ,b"))
}

func TestStepSplitLowerUpper(t *testing.T) {
	st := stepByName(t, "split-lower-upper")
	require.Equal(t, "low High", st.Apply("lowHigh"))
	require.Equal(t, "Hemoglobin Level", st.Apply("HemoglobinLevel"))
}

func TestStepSplitAcronymWord(t *testing.T) {
	st := stepByName(t, "split-acronym-word")
	require.Equal(t, "WBC Count", st.Apply("WBCCount"))
	// No boundary inside an unbroken acronym.
	require.Equal(t, "WBC", st.Apply("WBC"))
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace collapse and punct", "Hemoglobin  Level.", "Hemoglobin Level."},
		{"lower-upper boundary", "lowHigh", "low High"},
		{"acronym boundary", "WBCCount", "WBC Count"},
		{"concatenated words", "HemoglobinLevel:13.5g/dL", "Hemoglobin Level:13.5g/d L"},
		{"newlines become spaces", "RBC\n4.7\nmillion", "RBC 4.7 million"},
		{"leading and trailing trim", "  report data  ", "report data"},
		{"space before period", "normal range .", "normal range."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	req := require.New(t)
	inputs := []string{
		"Hemoglobin  Level.",
		"lowHigh",
		"WBCCount 8.1",
		"Platelets: 250,000 per mcL\nnormal",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := Clean(in)
		req.Equal(once, Clean(once), "re-normalizing must be a no-op for %q", in)
	}
}
