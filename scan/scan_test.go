package scan

import (
	"github.com/stretchr/testify/require"
	"regexp"
	"testing"
)

func collect(text string, re *regexp.Regexp) []Match {
	var out []Match
	for m := range Matches(text, re) {
		out = append(out, m)
	}
	return out
}

func TestPatternRespectsWordBoundaries(t *testing.T) {
	re := Pattern("mi")
	matches := collect("mild mi, admitted for mi.", re)
	require.Len(t, matches, 2)
	require.Equal(t, 5, matches[0].Begin)
	require.Equal(t, "mi", matches[1].Text)

	require.Empty(t, collect("nonsmoker", Pattern("smoker")))
	require.Len(t, collect("non-smoker", Pattern("smoker")), 1)
}

func TestPatternEscapesMetacharacters(t *testing.T) {
	require.Len(t, collect("r/o acs", Pattern("r/o")), 1)
	require.Len(t, collect("mi? acs", Pattern("?")), 1)
	require.Empty(t, collect("ekg.abnormal", Pattern("ekg abnormal")))
	require.Len(t, collect("(s/p cabg)", Pattern("s/p")), 1)
}

func TestMatchesIsReentrant(t *testing.T) {
	re := Pattern("pain")
	seq := Matches("pain and more pain", re)
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	require.Equal(t, 2, first)
	require.Equal(t, first, second)

	// early break must not affect other iterations
	for m := range seq {
		require.Equal(t, 0, m.Begin)
		break
	}
}

func TestSubmatches(t *testing.T) {
	re := regexp.MustCompile(`mrn:\s*(\d+)`)
	var got []Match
	for m := range Submatches("mrn: 12345 and mrn:678", re) {
		got = append(got, m)
	}
	require.Equal(t, []Match{{Begin: 5, End: 10, Text: "12345"}, {Begin: 19, End: 22, Text: "678"}}, got)
}

func TestCueSetPrefersLongestCue(t *testing.T) {
	set := NewCueSet([]string{"no", "no evidence of", "No", " "})
	require.Equal(t, []string{"no evidence of", "no"}, set.Cues())

	occ := set.Index("no evidence of mi")
	require.Len(t, occ, 1)
	require.Equal(t, "no evidence of", occ[0].Text)
}

func TestOccurrencesWindowLookups(t *testing.T) {
	set := NewCueSet([]string{"no", "denies"})
	text := "no fever. denies chest pain, no edema"
	occ := set.Index(text)
	require.Len(t, occ, 3)

	m, ok := occ.LastWithin(0, 17)
	require.True(t, ok)
	require.Equal(t, "denies", m.Text)

	_, ok = occ.LastWithin(11, 17)
	require.False(t, ok)

	m, ok = occ.FirstWithin(17, len(text))
	require.True(t, ok)
	require.Equal(t, "no", m.Text)

	require.Nil(t, NewCueSet(nil).Index(text))
	require.True(t, NewCueSet(nil).Empty())
}

func TestLowerKeepsOffsets(t *testing.T) {
	text := "Ärztin: Chest PAIN"
	lower := Lower(text)
	require.Len(t, lower, len(text))
	require.Equal(t, "Ärztin: chest pain", lower)
}
