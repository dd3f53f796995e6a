package vocabulary

import (
	"text2phenotype.com/qde/logger"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"sync/atomic"
)

type fileFormat struct {
	Terms       []ClinicalTerm `yaml:"terms"`
	Specialists []Specialist   `yaml:"specialists"`
}

// LoadFile reads a YAML vocabulary. A file that leaves out one of the two
// tables gets the built-in table for it.
func LoadFile(path string) (*Vocabulary, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Vocabulary, error) {
	var file fileFormat
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, fmt.Errorf("vocabulary: invalid yaml: %w", err)
	}
	if len(file.Terms) == 0 {
		file.Terms = DefaultTerms()
	}
	if len(file.Specialists) == 0 {
		file.Specialists = DefaultSpecialists()
	}
	return New(file.Terms, file.Specialists)
}

// Store holds the active vocabulary. Reloads replace the whole table at once,
// so an analysis that already fetched a table keeps scanning that table.
type Store struct {
	current atomic.Pointer[Vocabulary]
}

func NewStore(vocab *Vocabulary) *Store {
	if vocab == nil {
		vocab = Default()
	}
	var store Store
	store.current.Store(vocab)
	return &store
}

func (store *Store) Load() *Vocabulary {
	return store.current.Load()
}

// Swap installs vocab and returns the previous table.
func (store *Store) Swap(vocab *Vocabulary) *Vocabulary {
	return store.current.Swap(vocab)
}

// Reload parses the file and swaps it in; on error the current table stays.
func (store *Store) Reload(path string) error {
	qdeLogger := logger.NewLogger("Vocabulary store").With().Str("path", path).Logger()
	vocab, err := LoadFile(path)
	if err != nil {
		qdeLogger.Err(err).Caller().Msg("Failed to reload vocabulary, keeping current table")
		return err
	}
	previous := store.Swap(vocab)
	qdeLogger.Info().
		Str("previous_version", previous.Version()).
		Str("version", vocab.Version()).
		Int("terms", len(vocab.terms)).
		Int("specialists", len(vocab.specialists)).
		Msg("Vocabulary reloaded")
	return nil
}
