package pipeline

import (
	"text2phenotype.com/qde/negation"
	"text2phenotype.com/qde/scan"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"math"
	"sync"
	"unicode/utf8"
)

// FindingDetector scans every section for vocabulary terms. Sections are
// scanned concurrently; the result is ordered by section, then vocabulary
// order, then variant order, then position.
type FindingDetector func(sections []types.NoteSection, vocab *vocabulary.Vocabulary) []types.DetectedFinding

func NewFindingDetector(analyzer *negation.ContextAnalyzer, params types.Params) FindingDetector {
	return func(sections []types.NoteSection, vocab *vocabulary.Vocabulary) []types.DetectedFinding {
		terms := vocab.Terms()
		perSection := make([][]types.DetectedFinding, len(sections))

		var wg sync.WaitGroup
		for i, section := range sections {
			wg.Add(1)
			go func(i int, section types.NoteSection) {
				defer wg.Done()
				perSection[i] = detectInSection(section, terms, analyzer, params)
			}(i, section)
		}
		wg.Wait()

		var findings []types.DetectedFinding
		for _, sectionFindings := range perSection {
			findings = append(findings, sectionFindings...)
		}
		return findings
	}
}

func detectInSection(section types.NoteSection, terms []vocabulary.TermEntry, analyzer *negation.ContextAnalyzer, params types.Params) []types.DetectedFinding {
	lower := scan.Lower(section.Text)
	ctx := analyzer.Context(lower)

	var findings []types.DetectedFinding
	for termIndex, entry := range terms {
		for _, variant := range entry.Variants {
			for m := range scan.Matches(lower, variant.Pattern) {
				assessment := ctx.Assess(m)
				finding := types.DetectedFinding{
					Term:                  entry.Term.Name,
					Category:              entry.Term.Category,
					Weight:                entry.Term.Weight,
					MatchedText:           section.Text[m.Begin:m.End],
					Span:                  types.Span{Begin: section.Begin + m.Begin, End: section.Begin + m.End},
					IsPresent:             assessment.Present(),
					IsNegated:             assessment.Negated,
					IsUncertain:           assessment.Uncertain,
					IsExplicitlyConfirmed: assessment.Confirmed,
					Context:               snippet(section.Text, m.Begin, m.End, params.ContextRadius),
					Specialty:             section.Specialty,
					Priority:              section.Priority(),
					Provider:              section.Provider,
					Date:                  section.Date,
					DateText:              section.DateText,
					Section:               section.Index,
					TermIndex:             termIndex,
				}
				finding.Confidence = confidence(finding, section.Specialist != nil, params.Confidence)
				findings = append(findings, finding)
			}
		}
	}
	return findings
}

func confidence(finding types.DetectedFinding, specialistKnown bool, params types.ConfidenceParams) float64 {
	score := params.Mention
	switch {
	case finding.IsPresent:
		score = params.Present
	case finding.IsNegated:
		score = params.Negated
	case finding.IsUncertain:
		score = params.Uncertain
	}
	if specialistKnown {
		score += params.SpecialistBonus * (1 - float64(finding.Priority)/params.PriorityScale)
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 10000
}

// snippet cuts radius bytes around [begin, end), widened to rune boundaries.
func snippet(text string, begin int, end int, radius int) string {
	from, to := begin-radius, end+radius
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}
