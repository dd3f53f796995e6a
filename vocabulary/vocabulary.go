package vocabulary

import (
	"text2phenotype.com/qde/scan"
	"text2phenotype.com/qde/utils"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type Category string

const (
	CategorySymptom    Category = "Symptom"
	CategoryHistory    Category = "History"
	CategoryFinding    Category = "Finding"
	CategoryRiskFactor Category = "RiskFactor"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySymptom, CategoryHistory, CategoryFinding, CategoryRiskFactor:
		return true
	}
	return false
}

// Specialist priorities: lower is more credible.
const (
	PriorityHighest = 1
	PriorityLowest  = 4
	// UnknownPriority ranks a finding whose section has no detected specialist.
	UnknownPriority = 99
)

type ClinicalTerm struct {
	Name     string   `yaml:"name" json:"name"`
	Category Category `yaml:"category" json:"category"`
	Variants []string `yaml:"variants" json:"variants"`
	Weight   int      `yaml:"weight" json:"weight"`
}

type Specialist struct {
	Name     string   `yaml:"name" json:"name"`
	Variants []string `yaml:"variants" json:"variants"`
	Priority int      `yaml:"priority" json:"priority"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

// Variant is one surface form with its compiled word-boundary pattern.
type Variant struct {
	Text    string
	Pattern *regexp.Regexp
}

type TermEntry struct {
	Term     ClinicalTerm
	Variants []Variant
}

type SpecialistEntry struct {
	Specialist Specialist
	Variants   []Variant
}

var (
	ErrEmptyName          = errors.New("vocabulary: entry without a name")
	ErrDuplicateName      = errors.New("vocabulary: duplicate entry name")
	ErrNoVariants         = errors.New("vocabulary: entry without surface variants")
	ErrInvalidCategory    = errors.New("vocabulary: invalid term category")
	ErrInvalidPriority    = errors.New("vocabulary: specialist priority out of range")
	ErrNegativeTermWeight = errors.New("vocabulary: negative term weight")
)

// Vocabulary is immutable once built and safe to share between goroutines.
// Table order is significant: terms are scanned in order and specialists are
// detected first-match-wins.
type Vocabulary struct {
	terms       []TermEntry
	specialists []SpecialistEntry
	version     string
}

func New(terms []ClinicalTerm, specialists []Specialist) (*Vocabulary, error) {
	vocab := Vocabulary{
		terms:       make([]TermEntry, 0, len(terms)),
		specialists: make([]SpecialistEntry, 0, len(specialists)),
	}

	termNames := make(map[string]bool, len(terms))
	for _, term := range terms {
		if strings.TrimSpace(term.Name) == "" {
			return nil, ErrEmptyName
		}
		if termNames[term.Name] {
			return nil, fmt.Errorf("%w: term %q", ErrDuplicateName, term.Name)
		}
		termNames[term.Name] = true
		if !term.Category.Valid() {
			return nil, fmt.Errorf("%w: %q for term %q", ErrInvalidCategory, term.Category, term.Name)
		}
		if term.Weight < 0 {
			return nil, fmt.Errorf("%w: term %q", ErrNegativeTermWeight, term.Name)
		}
		term.Variants = normalizeVariants(term.Variants)
		if len(term.Variants) == 0 {
			return nil, fmt.Errorf("%w: term %q", ErrNoVariants, term.Name)
		}
		vocab.terms = append(vocab.terms, TermEntry{Term: term, Variants: compile(term.Variants)})
	}

	specialistNames := make(map[string]bool, len(specialists))
	for _, specialist := range specialists {
		if strings.TrimSpace(specialist.Name) == "" {
			return nil, ErrEmptyName
		}
		if specialistNames[specialist.Name] {
			return nil, fmt.Errorf("%w: specialist %q", ErrDuplicateName, specialist.Name)
		}
		specialistNames[specialist.Name] = true
		if specialist.Priority < PriorityHighest || specialist.Priority > PriorityLowest {
			return nil, fmt.Errorf("%w: %d for %q", ErrInvalidPriority, specialist.Priority, specialist.Name)
		}
		specialist.Variants = normalizeVariants(specialist.Variants)
		if len(specialist.Variants) == 0 {
			return nil, fmt.Errorf("%w: specialist %q", ErrNoVariants, specialist.Name)
		}
		vocab.specialists = append(vocab.specialists, SpecialistEntry{
			Specialist: specialist,
			Variants:   compile(specialist.Variants),
		})
	}

	vocab.version = computeVersion(vocab.terms, vocab.specialists)
	return &vocab, nil
}

// MustNew is New for static tables; it panics on an invalid table.
func MustNew(terms []ClinicalTerm, specialists []Specialist) *Vocabulary {
	vocab, err := New(terms, specialists)
	if err != nil {
		panic(err)
	}
	return vocab
}

// normalizeVariants lower-cases, trims and de-duplicates variants and orders
// them longest-first so greedy forms are tried before their substrings.
func normalizeVariants(variants []string) []string {
	result := make([]string, 0, len(variants))
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i]) > len(result[j])
	})
	return result
}

func compile(variants []string) []Variant {
	compiled := make([]Variant, len(variants))
	for i, v := range variants {
		compiled[i] = Variant{Text: v, Pattern: scan.Pattern(v)}
	}
	return compiled
}

func computeVersion(terms []TermEntry, specialists []SpecialistEntry) string {
	plainTerms := make([]ClinicalTerm, len(terms))
	for i, t := range terms {
		plainTerms[i] = t.Term
	}
	plainSpecialists := make([]Specialist, len(specialists))
	for i, s := range specialists {
		plainSpecialists[i] = s.Specialist
	}
	buf, err := json.Marshal(struct {
		Terms       []ClinicalTerm `json:"terms"`
		Specialists []Specialist   `json:"specialists"`
	}{plainTerms, plainSpecialists})
	if err != nil {
		panic(err)
	}
	return strconv.FormatUint(utils.HashString(string(buf)), 16)
}

// Terms returns the term table in scan order. The returned slice is a copy;
// entries share compiled patterns, which are safe for concurrent use.
func (vocab *Vocabulary) Terms() []TermEntry {
	return append([]TermEntry(nil), vocab.terms...)
}

func (vocab *Vocabulary) Specialists() []SpecialistEntry {
	return append([]SpecialistEntry(nil), vocab.specialists...)
}

func (vocab *Vocabulary) Term(name string) (ClinicalTerm, bool) {
	for _, entry := range vocab.terms {
		if entry.Term.Name == name {
			return entry.Term, true
		}
	}
	return ClinicalTerm{}, false
}

// TermIndex is the position of the term in scan order, -1 when unknown.
func (vocab *Vocabulary) TermIndex(name string) int {
	for i, entry := range vocab.terms {
		if entry.Term.Name == name {
			return i
		}
	}
	return -1
}

// Version identifies the table content; two vocabularies with identical
// tables share a version.
func (vocab *Vocabulary) Version() string {
	return vocab.version
}
