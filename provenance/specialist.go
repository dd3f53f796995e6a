package provenance

import (
	"text2phenotype.com/qde/vocabulary"
)

// DetectSpecialist returns the first specialist, in table order, whose
// variant occurs in the lower-cased section text.
func DetectSpecialist(lowerText string, vocab *vocabulary.Vocabulary) (vocabulary.Specialist, bool) {
	for _, entry := range vocab.Specialists() {
		for _, variant := range entry.Variants {
			if variant.Pattern.MatchString(lowerText) {
				return entry.Specialist, true
			}
		}
	}
	return vocabulary.Specialist{}, false
}
