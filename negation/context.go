package negation

import (
	"text2phenotype.com/qde/scan"
	"strings"
)

// Windows are the look-behind / look-ahead distances, in bytes of lower-cased
// text, within which a cue affects a term occurrence.
type Windows struct {
	Negation         int `yaml:"negation" json:"negation"`
	Uncertainty      int `yaml:"uncertainty" json:"uncertainty"`
	Presence         int `yaml:"presence" json:"presence"`
	TrailingNegation int `yaml:"trailing_negation" json:"trailing_negation"`
}

func DefaultWindows() Windows {
	return Windows{
		Negation:         80,
		Uncertainty:      60,
		Presence:         60,
		TrailingNegation: 30,
	}
}

// Assessment is the context classification of one term occurrence.
type Assessment struct {
	Negated   bool
	Uncertain bool
	Confirmed bool
}

// Present holds only for an explicitly confirmed occurrence that is neither
// negated nor uncertain.
func (a Assessment) Present() bool {
	return a.Confirmed && !a.Negated && !a.Uncertain
}

// ContextAnalyzer is immutable and may be shared by concurrent section scans.
type ContextAnalyzer struct {
	windows          Windows
	negation         scan.CueSet
	trailing         scan.CueSet
	uncertainty      scan.CueSet
	presence         scan.CueSet
	negatedCompounds map[string]bool
	compoundPrefixes []string
	sentenceBreaks   []string
	clausePivots     []string
}

func NewContextAnalyzer(cues Cues, windows Windows) *ContextAnalyzer {
	compounds := make(map[string]bool, len(cues.NegatedCompounds))
	for _, c := range cues.NegatedCompounds {
		compounds[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return &ContextAnalyzer{
		windows:          windows,
		negation:         scan.NewCueSet(cues.Negation),
		trailing:         scan.NewCueSet(cues.TrailingNegation),
		uncertainty:      scan.NewCueSet(cues.Uncertainty),
		presence:         scan.NewCueSet(cues.Presence),
		negatedCompounds: compounds,
		compoundPrefixes: append([]string(nil), cues.CompoundPrefixes...),
		sentenceBreaks:   append([]string(nil), cues.SentenceBreaks...),
		clausePivots:     append([]string(nil), cues.ClausePivots...),
	}
}

// SectionContext holds the cue index of one lower-cased section text. It is
// created per section and never shared.
type SectionContext struct {
	analyzer    *ContextAnalyzer
	text        string
	negation    scan.Occurrences
	trailing    scan.Occurrences
	uncertainty scan.Occurrences
	presence    scan.Occurrences
}

func (analyzer *ContextAnalyzer) Context(lowerText string) *SectionContext {
	return &SectionContext{
		analyzer:    analyzer,
		text:        lowerText,
		negation:    analyzer.negation.Index(lowerText),
		trailing:    analyzer.trailing.Index(lowerText),
		uncertainty: analyzer.uncertainty.Index(lowerText),
		presence:    analyzer.presence.Index(lowerText),
	}
}

func (ctx *SectionContext) Assess(m scan.Match) Assessment {
	var a Assessment
	a.Negated = ctx.isNegated(m)
	a.Uncertain = ctx.isUncertain(m)
	a.Confirmed = !a.Uncertain && ctx.isConfirmed(m)
	return a
}

func (ctx *SectionContext) isNegated(m scan.Match) bool {
	analyzer := ctx.analyzer
	if analyzer.negatedCompounds[m.Text] {
		return true
	}
	if ctx.hasCompoundPrefix(m.Begin) {
		return true
	}

	if cue, ok := ctx.negation.LastWithin(windowStart(m.Begin, analyzer.windows.Negation), m.Begin); ok {
		gap := ctx.text[cue.End:m.Begin]
		if !scan.ContainsAny(gap, analyzer.sentenceBreaks) && !ctx.pivotsAway(cue.End, m.Begin) {
			return true
		}
	}

	trailingEnd := m.End + analyzer.windows.TrailingNegation
	if trailingEnd > len(ctx.text) {
		trailingEnd = len(ctx.text)
	}
	if cue, ok := ctx.trailing.FirstWithin(m.End, trailingEnd); ok {
		gap := ctx.text[m.End:cue.Begin]
		if !scan.ContainsAny(gap, analyzer.sentenceBreaks) && !scan.ContainsAny(gap, analyzer.clausePivots) {
			return true
		}
	}
	return false
}

// pivotsAway reports whether a new affirmative clause starts between a
// negation cue and the term, as in "denies chest pain, reports palpitations".
func (ctx *SectionContext) pivotsAway(cueEnd int, termBegin int) bool {
	presence, ok := ctx.presence.LastWithin(cueEnd, termBegin)
	if !ok {
		return false
	}
	return scan.ContainsAny(ctx.text[cueEnd:presence.Begin], ctx.analyzer.clausePivots)
}

func (ctx *SectionContext) hasCompoundPrefix(termBegin int) bool {
	before := ctx.text[:termBegin]
	for _, prefix := range ctx.analyzer.compoundPrefixes {
		if prefix == "" || !strings.HasSuffix(before, prefix) {
			continue
		}
		start := termBegin - len(prefix)
		if start == 0 || !isWordByte(ctx.text[start-1]) {
			return true
		}
	}
	return false
}

// isUncertain looks back across sentence breaks: "possible MI. reports chest
// pain" leaves chest pain unconfirmed.
func (ctx *SectionContext) isUncertain(m scan.Match) bool {
	_, ok := ctx.uncertainty.LastWithin(windowStart(m.Begin, ctx.analyzer.windows.Uncertainty), m.Begin)
	return ok
}

func (ctx *SectionContext) isConfirmed(m scan.Match) bool {
	cue, ok := ctx.presence.LastWithin(windowStart(m.Begin, ctx.analyzer.windows.Presence), m.Begin)
	if !ok {
		return false
	}
	return !scan.ContainsAny(ctx.text[cue.End:m.Begin], ctx.analyzer.sentenceBreaks)
}

func windowStart(pos int, window int) int {
	if pos-window < 0 {
		return 0
	}
	return pos - window
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}
