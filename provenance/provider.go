package provenance

import (
	"text2phenotype.com/qde/scan"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	namePart    = `[A-Z][A-Za-z'\-]+`
	namePattern = `(` + namePart + `(?:[ \t]+[A-Z]\.)?(?:[ \t]+` + namePart + `){0,2})`
	credentials = `,?[ \t]*(?:(?:MD|DO|NP|PA-C|PA|RN)\b|M\.D\.|D\.O\.)`
)

var attestationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:provider\s+attestation\s*:\s*I,)[ \t]*` + namePattern + credentials),
	regexp.MustCompile(`(?i:in\s+the\s+presence\s+of)[ \t]+(?:Dr\.?[ \t]+)?` + namePattern + credentials),
	regexp.MustCompile(`(?i:direction\s+of)[ \t]+(?:Dr\.?[ \t]+)?` + namePattern + credentials),
}

var orderingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:ordering\s+(?:provider|physician)|referring\s+(?:provider|physician)|referred\s+by)[ \t]*:?[ \t]*(?:Dr\.?[ \t]+)?` + namePattern),
}

var generalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bDr\.?[ \t]+` + namePattern),
	regexp.MustCompile(`\b` + namePattern + credentials),
	regexp.MustCompile(`(?i:provider|physician|attending|clinician|signed\s+by|seen\s+by)[ \t]*:[ \t]*(?:Dr\.?[ \t]+)?` + namePattern),
}

var credentialWords = map[string]bool{
	"MD": true, "DO": true, "NP": true, "PA": true, "PA-C": true, "RN": true, "FACC": true,
}

// words a capitalized run can pick up in front of the actual name
var leadingWords = map[string]bool{
	"Patient": true, "Pt": true, "Seen": true, "By": true, "Signed": true, "Attending": true,
	"Provider": true, "Physician": true, "Note": true, "Visit": true, "Consult": true, "Per": true,
}

var departmentKeywords = scan.NewCueSet(getDepartmentKeywords())

func getDepartmentKeywords() []string {
	return []string{
		"cardiology", "clinic", "hospital", "laboratory", "department", "center", "centre",
		"medical", "health", "emergency", "radiology", "imaging", "services", "associates",
		"group", "practice", "unit", "surgery", "medicine", "care",
	}
}

// ValidName accepts a candidate only if it reads like a person's name rather
// than an acronym or a department label.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(first) {
		return false
	}
	if strings.ToUpper(name) == name {
		return false
	}
	return len(departmentKeywords.Index(strings.ToLower(name))) == 0
}

// cleanName drops credential tokens a label pattern may have swallowed and
// leading words that are not part of the name.
func cleanName(name string) string {
	fields := strings.Fields(name)
	for len(fields) > 1 && leadingWords[fields[0]] {
		fields = fields[1:]
	}
	for len(fields) > 0 && credentialWords[strings.Trim(fields[len(fields)-1], ".,")] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func firstValid(text string, patterns []*regexp.Regexp) (string, bool) {
	var candidates []scan.Match
	for _, re := range patterns {
		for m := range scan.Submatches(text, re) {
			candidates = append(candidates, m)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Begin < candidates[j].Begin
	})
	for _, candidate := range candidates {
		name := cleanName(candidate.Text)
		if ValidName(name) {
			return name, true
		}
	}
	return "", false
}

// FirstProvider is the general provider scan: the earliest valid name written
// as "Dr. NAME", "NAME, MD" or after a provider label.
func FirstProvider(text string) (string, bool) {
	return firstValid(text, generalPatterns)
}

// OrderingProvider tries attestation statements, then ordering/referral
// labels, then the general scan.
func OrderingProvider(text string) (string, bool) {
	for _, re := range attestationPatterns {
		if name, ok := firstValid(text, []*regexp.Regexp{re}); ok {
			return name, true
		}
	}
	if name, ok := firstValid(text, orderingPatterns); ok {
		return name, true
	}
	return FirstProvider(text)
}
