package negation

import (
	"text2phenotype.com/qde/scan"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assess(t *testing.T, text string, term string) Assessment {
	t.Helper()
	lower := strings.ToLower(text)
	analyzer := NewContextAnalyzer(DefaultCues(), DefaultWindows())
	ctx := analyzer.Context(lower)
	for m := range scan.Matches(lower, scan.Pattern(term)) {
		return ctx.Assess(m)
	}
	t.Fatalf("term %q not found in %q", term, text)
	return Assessment{}
}

func TestAssess(t *testing.T) {
	cases := []struct {
		text     string
		term     string
		expected Assessment
	}{
		{"Patient reports chest pain and dyspnea.", "chest pain", Assessment{Confirmed: true}},
		{"Patient reports chest pain and dyspnea.", "dyspnea", Assessment{Confirmed: true}},
		{"Chest pain noted today.", "chest pain", Assessment{}},
		{"Patient denies chest pain.", "chest pain", Assessment{Negated: true}},
		{"No history of CHF.", "chf", Assessment{Negated: true, Confirmed: true}},
		{"Positive for CHF.", "chf", Assessment{Confirmed: true}},
		{"Possible MI, rule out ACS.", "mi", Assessment{Uncertain: true}},
		{"Possible MI, rule out ACS.", "acs", Assessment{Uncertain: true}},
		{"History of possible MI.", "mi", Assessment{Uncertain: true}},
		{"MI ruled out.", "mi", Assessment{Negated: true}},
		{"Denies chest pain, reports occasional palpitations.", "palpitations", Assessment{Confirmed: true}},
		{"Denies chest pain, reports occasional palpitations.", "chest pain", Assessment{Negated: true}},
		{"Denies fever. Reports chest pain.", "chest pain", Assessment{Confirmed: true}},
		{"Possible MI. Patient reports chest pain.", "chest pain", Assessment{Uncertain: true}},
		{"No fever but reports chest pain.", "chest pain", Assessment{Confirmed: true}},
		{"Patient is a nonsmoker.", "nonsmoker", Assessment{Negated: true}},
		{"Patient is non-diabetic per history.", "diabetic", Assessment{Negated: true}},
		{"Reports EKG abnormal, troponin negative.", "ekg abnormal", Assessment{Confirmed: true}},
	}
	for _, tc := range cases {
		t.Run(tc.text+"/"+tc.term, func(t *testing.T) {
			require.Equal(t, tc.expected, assess(t, tc.text, tc.term))
		})
	}
}

func TestPresentRequiresConfirmation(t *testing.T) {
	require.True(t, Assessment{Confirmed: true}.Present())
	require.False(t, Assessment{}.Present())
	require.False(t, Assessment{Confirmed: true, Negated: true}.Present())
	require.False(t, Assessment{Confirmed: true, Uncertain: true}.Present())
}

func TestNegationWindow(t *testing.T) {
	filler := strings.Repeat("x", 90)
	a := assess(t, "denies "+filler+" chest pain", "chest pain")
	require.False(t, a.Negated)

	a = assess(t, "denies "+filler[:60]+" chest pain", "chest pain")
	require.True(t, a.Negated)
}

func TestUncertaintyWindow(t *testing.T) {
	filler := strings.Repeat("x", 70)
	a := assess(t, "possible. "+filler+" reports chest pain", "chest pain")
	require.False(t, a.Uncertain)
	require.True(t, a.Confirmed)

	a = assess(t, "possible. "+filler[:30]+". reports chest pain", "chest pain")
	require.True(t, a.Uncertain)
	require.False(t, a.Present())
}

func TestCompoundPrefixNeedsWordStart(t *testing.T) {
	analyzer := NewContextAnalyzer(Cues{CompoundPrefixes: []string{"non-"}}, DefaultWindows())
	text := "canon-smoker non-smoker"
	ctx := analyzer.Context(text)
	require.False(t, ctx.Assess(scan.Match{Begin: 6, End: 12, Text: "smoker"}).Negated)
	require.True(t, ctx.Assess(scan.Match{Begin: 17, End: 23, Text: "smoker"}).Negated)
}

func TestHyphenlessCompoundsComeFromCompoundList(t *testing.T) {
	for _, prefix := range DefaultCues().CompoundPrefixes {
		require.NotEqual(t, "non", prefix)
	}
	require.True(t, assess(t, "Patient is nondiabetic.", "nondiabetic").Negated)
	require.True(t, assess(t, "Patient is non-hypertensive.", "hypertensive").Negated)
}

func TestLoadCues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "negation.txt"), []byte("# custom\nnada\n\n"), 0644))

	cues, err := LoadCues(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"nada"}, cues.Negation)
	require.Equal(t, DefaultCues().Presence, cues.Presence)

	_, err = LoadCues(filepath.Join(dir, "missing"))
	require.Error(t, err)

	cues, err = LoadCues("")
	require.NoError(t, err)
	require.Equal(t, DefaultCues(), cues)
}
