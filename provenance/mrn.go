// Package provenance extracts who wrote a note section, when, and for which
// patient. Every extractor is a pure function of the text it is given.
package provenance

import (
	"text2phenotype.com/qde/scan"
	"regexp"
	"strings"
)

// checked in order, the first label that matches anywhere wins
var mrnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bMRN\s*[:#]\s*([A-Z0-9][A-Z0-9\-]*)`),
	regexp.MustCompile(`(?i)\bPatient\s+ID\s*[:#]\s*([A-Z0-9][A-Z0-9\-]*)`),
	regexp.MustCompile(`(?i)\bChart\s+(?:Number|No\.?)\s*[:#]\s*([A-Z0-9][A-Z0-9\-]*)`),
	regexp.MustCompile(`(?i)\bAccount\s+(?:Number|No\.?)\s*[:#]\s*([A-Z0-9][A-Z0-9\-]*)`),
}

// MRN returns the patient medical-record number found in the full note text.
func MRN(text string) (string, bool) {
	for _, re := range mrnPatterns {
		for m := range scan.Submatches(text, re) {
			value := strings.Trim(m.Text, "-")
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}
