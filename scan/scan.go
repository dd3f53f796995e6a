// Package scan holds the re-entrant text scanning primitives used by the
// analysis pipeline. Nothing here keeps a cursor between calls: every
// function takes the text it works on and returns a fresh sequence.
package scan

import (
	"iter"
	"regexp"
	"sort"
	"strings"
)

type Match struct {
	Begin int
	End   int
	Text  string
}

// Pattern compiles a literal into a regexp that only matches on word
// boundaries. Regex metacharacters in the literal are escaped, and a boundary
// assertion is only added on a side whose edge character is a word character,
// so cues like "?" or "r/o" still match.
func Pattern(literal string) *regexp.Regexp {
	return regexp.MustCompile(patternSource(literal))
}

func patternSource(literal string) string {
	var sb strings.Builder
	if len(literal) > 0 && isWordByte(literal[0]) {
		sb.WriteString(`\b`)
	}
	sb.WriteString(regexp.QuoteMeta(literal))
	if len(literal) > 0 && isWordByte(literal[len(literal)-1]) {
		sb.WriteString(`\b`)
	}
	return sb.String()
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// Matches lazily yields non-overlapping matches of re in text, left to right.
func Matches(text string, re *regexp.Regexp) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !yield(Match{Begin: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]}) {
				return
			}
		}
	}
}

// Submatches is Matches for patterns with one capture group; the yielded
// match covers the group, not the whole expression.
func Submatches(text string, re *regexp.Regexp) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			if !yield(Match{Begin: loc[2], End: loc[3], Text: text[loc[2]:loc[3]]}) {
				return
			}
		}
	}
}

// CueSet is an immutable, compiled list of cue phrases.
type CueSet struct {
	cues []string
	re   *regexp.Regexp
}

func NewCueSet(cues []string) CueSet {
	sorted := make([]string, 0, len(cues))
	seen := make(map[string]bool, len(cues))
	for _, cue := range cues {
		cue = strings.ToLower(strings.TrimSpace(cue))
		if cue == "" || seen[cue] {
			continue
		}
		seen[cue] = true
		sorted = append(sorted, cue)
	}
	// leftmost-first alternation: longer cues must come first
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	if len(sorted) == 0 {
		return CueSet{}
	}

	sources := make([]string, len(sorted))
	for i, cue := range sorted {
		sources[i] = patternSource(cue)
	}
	return CueSet{
		cues: sorted,
		re:   regexp.MustCompile(`(?:` + strings.Join(sources, `|`) + `)`),
	}
}

func (set CueSet) Cues() []string {
	return append([]string(nil), set.cues...)
}

func (set CueSet) Empty() bool {
	return set.re == nil
}

// Index finds every cue occurrence in text once, so that repeated window
// lookups around many term occurrences do not rescan the text.
func (set CueSet) Index(text string) Occurrences {
	if set.re == nil {
		return nil
	}
	var occ Occurrences
	for m := range Matches(text, set.re) {
		occ = append(occ, m)
	}
	return occ
}

// Occurrences are cue matches sorted by Begin.
type Occurrences []Match

// LastWithin returns the occurrence closest to end that lies entirely inside
// [begin, end).
func (occ Occurrences) LastWithin(begin int, end int) (Match, bool) {
	// first index whose End exceeds end
	idx := sort.Search(len(occ), func(i int) bool { return occ[i].End > end })
	for i := idx - 1; i >= 0; i-- {
		if occ[i].Begin < begin {
			break
		}
		if occ[i].End <= end {
			return occ[i], true
		}
	}
	return Match{}, false
}

// FirstWithin returns the occurrence closest to begin that lies entirely
// inside [begin, end).
func (occ Occurrences) FirstWithin(begin int, end int) (Match, bool) {
	idx := sort.Search(len(occ), func(i int) bool { return occ[i].Begin >= begin })
	for i := idx; i < len(occ); i++ {
		if occ[i].End > end {
			break
		}
		return occ[i], true
	}
	return Match{}, false
}

// ContainsAny reports whether any of the literals occurs in text.
func ContainsAny(text string, literals []string) bool {
	for _, literal := range literals {
		if literal != "" && strings.Contains(text, literal) {
			return true
		}
	}
	return false
}

// Lower folds ASCII letters only, so byte offsets in the result are valid in
// the original text.
func Lower(text string) string {
	buf := []byte(text)
	for i, b := range buf {
		if 'A' <= b && b <= 'Z' {
			buf[i] = b + ('a' - 'A')
		}
	}
	return string(buf)
}
