package negation

import (
	"text2phenotype.com/qde/utils"
	"errors"
	"io/fs"
	"os"
	"path"
)

// Cues are the phrase lists the context analyzer works with. All entries are
// lower-case; multi-word cues are matched as whole phrases.
type Cues struct {
	Negation         []string `yaml:"negation" json:"negation"`
	TrailingNegation []string `yaml:"trailing_negation" json:"trailing_negation"`
	Uncertainty      []string `yaml:"uncertainty" json:"uncertainty"`
	Presence         []string `yaml:"presence" json:"presence"`
	NegatedCompounds []string `yaml:"negated_compounds" json:"negated_compounds"`
	// Prefixes need a separator: a term only matches at a word start, so
	// hyphenless forms such as "nonsmoker" belong in NegatedCompounds.
	CompoundPrefixes []string `yaml:"compound_prefixes" json:"compound_prefixes"`
	SentenceBreaks   []string `yaml:"sentence_breaks" json:"sentence_breaks"`
	ClausePivots     []string `yaml:"clause_pivots" json:"clause_pivots"`
}

func DefaultCues() Cues {
	return Cues{
		Negation:         getNegationCues(),
		TrailingNegation: getTrailingNegationCues(),
		Uncertainty:      getUncertaintyCues(),
		Presence:         getPresenceCues(),
		NegatedCompounds: getNegatedCompounds(),
		CompoundPrefixes: []string{"non-", "non "},
		SentenceBreaks:   getSentenceBreaks(),
		ClausePivots:     []string{",", " and "},
	}
}

func getNegationCues() []string {
	return []string{
		"no", "not", "none", "never", "nor", "without", "w/o",
		"deny", "denies", "denied", "denying",
		"negative for", "neg for", "no evidence of", "no signs of", "free of", "absence of",
		"ruled out", "rules out", "asymptomatic", "resolved",
	}
}

func getTrailingNegationCues() []string {
	return []string{
		"ruled out", "was ruled out", "was negative", "is negative", "negative",
		"not present", "absent", "denied", "resolved",
	}
}

func getUncertaintyCues() []string {
	return []string{
		"possible", "possibly", "probable", "probably", "likely", "suspected", "suspect", "suspicious for",
		"concerning for", "concern for", "questionable", "question of", "rule out", "r/o", "?",
		"cannot exclude", "cannot be excluded", "differential includes", "may have", "might have",
		"versus", "vs", "consider", "evaluate for", "to exclude",
	}
}

func getPresenceCues() []string {
	return []string{
		"positive for", "confirmed", "diagnosed with", "dx of", "history of", "hx of", "h/o",
		"known", "reports", "reported", "complains of", "c/o", "presents with", "presented with",
		"endorses", "admits to", "experiencing", "found to have", "significant for", "notable for",
		"consistent with", "demonstrates", "demonstrated", "shows", "showed", "revealed",
		"status post", "s/p", "has", "had",
	}
}

func getNegatedCompounds() []string {
	return []string{
		"nonsmoker", "non-smoker", "non smoker", "never smoker", "never-smoker",
		"nondiabetic", "non-diabetic", "normotensive", "non-hypertensive", "afebrile",
	}
}

func getSentenceBreaks() []string {
	return []string{".", "\n", ";", " but ", " however ", " although ", " though "}
}

var cueFiles = map[string]func(cues *Cues) *[]string{
	"negation.txt":          func(c *Cues) *[]string { return &c.Negation },
	"trailing_negation.txt": func(c *Cues) *[]string { return &c.TrailingNegation },
	"uncertainty.txt":       func(c *Cues) *[]string { return &c.Uncertainty },
	"presence.txt":          func(c *Cues) *[]string { return &c.Presence },
	"negated_compounds.txt": func(c *Cues) *[]string { return &c.NegatedCompounds },
}

// LoadCues starts from DefaultCues and replaces every list that has a
// one-cue-per-line file in dir. Missing files are not an error.
func LoadCues(dir string) (Cues, error) {
	cues := DefaultCues()
	if dir == "" {
		return cues, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return Cues{}, err
	}
	for name, field := range cueFiles {
		list, err := utils.ReadList(path.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Cues{}, err
		}
		*field(&cues) = list
	}
	return cues, nil
}
