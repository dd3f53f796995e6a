package pipeline

import (
	"text2phenotype.com/qde/provenance"
	"text2phenotype.com/qde/scan"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"regexp"
	"strings"
)

// delimiter is one class of section boundary. A dropped delimiter is cut out
// of the text; a kept one starts the next section.
type delimiter struct {
	re   *regexp.Regexp
	drop bool
}

func getDelimiters() []delimiter {
	return []delimiter{
		{re: regexp.MustCompile(`-{3,}|={3,}`), drop: true},
		{re: regexp.MustCompile(`(?im)^[ \t]*[^\n:]{0,40}?\b(?:consultation|consult|encounter|visit|note)\b[^\n:]{0,24}:`)},
		{re: regexp.MustCompile(`(?i)\b(?:date\s+of\s+service|service\s+date|date\s+of\s+visit|encounter\s+date|dos)\s*:`)},
	}
}

type SectionSplitter func(text string, vocab *vocabulary.Vocabulary) []types.NoteSection

func NewSectionSplitter(minSectionLength int) SectionSplitter {
	delimiters := getDelimiters()

	return func(text string, vocab *vocabulary.Vocabulary) []types.NoteSection {
		spans := []types.Span{trimSpan(text, 0, len(text))}
		for _, d := range delimiters {
			next := make([]types.Span, 0, len(spans))
			for _, span := range spans {
				pieces := cut(text, span, d)
				if len(pieces) > 1 && allLonger(pieces, minSectionLength) {
					next = append(next, pieces...)
				} else {
					next = append(next, span)
				}
			}
			spans = next
		}

		sections := make([]types.NoteSection, len(spans))
		for i, span := range spans {
			sections[i] = describeSection(i, span, vocab)
		}
		return sections
	}
}

func cut(text string, span types.Span, d delimiter) []types.Span {
	var pieces []types.Span
	start := span.Begin
	for m := range scan.Matches(span.Text, d.re) {
		begin, end := span.Begin+m.Begin, span.Begin+m.End
		if piece := trimSpan(text, start, begin); piece.Len() > 0 {
			pieces = append(pieces, piece)
		}
		if d.drop {
			start = end
		} else {
			start = begin
		}
	}
	if piece := trimSpan(text, start, span.End); piece.Len() > 0 {
		pieces = append(pieces, piece)
	}
	return pieces
}

func trimSpan(text string, begin int, end int) types.Span {
	for begin < end && isSpace(text[begin]) {
		begin++
	}
	for end > begin && isSpace(text[end-1]) {
		end--
	}
	return types.Span{Begin: begin, End: end, Text: text[begin:end]}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func allLonger(spans []types.Span, length int) bool {
	for _, span := range spans {
		if span.Len() <= length {
			return false
		}
	}
	return true
}

func describeSection(index int, span types.Span, vocab *vocabulary.Vocabulary) types.NoteSection {
	section := types.NoteSection{Span: span, Index: index}

	if specialist, ok := provenance.DetectSpecialist(scan.Lower(span.Text), vocab); ok {
		section.Specialist = &specialist
		section.Specialty = specialist.Name
	}
	if provider, ok := provenance.FirstProvider(span.Text); ok {
		section.Provider = provider
	}
	if date, ok := provenance.BestDate(span.Text); ok {
		section.Date = types.NewDate(date.Date)
		section.DateText = date.Text
	}
	return section
}

// distinctProviders lists section providers in section order.
func distinctProviders(sections []types.NoteSection) []string {
	providers := make([]string, 0, len(sections))
	seen := make(map[string]bool)
	for _, section := range sections {
		key := strings.ToLower(section.Provider)
		if section.Provider == "" || seen[key] {
			continue
		}
		seen[key] = true
		providers = append(providers, section.Provider)
	}
	return providers
}
