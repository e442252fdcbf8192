// Package importer loads a structured terminology corpus from an object
// store and creates terms with an initial published version for each entry.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
)

// Corpus is the wire format of an import object: terms grouped by category,
// with paired localized name/description fields per language code.
type Corpus struct {
	Categories []CorpusCategory `json:"categories"`
}

type CorpusCategory struct {
	Name  string       `json:"name"`
	Terms []CorpusTerm `json:"terms"`
}

type CorpusTerm struct {
	Identifier   string                       `json:"identifier"`
	Translations map[string]CorpusTranslation `json:"translations"`
}

type CorpusTranslation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ParseCorpus decodes and validates a corpus document.
func ParseCorpus(r io.Reader) (*Corpus, error) {
	var corpus Corpus
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&corpus); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	if len(corpus.Categories) == 0 {
		return nil, fmt.Errorf("corpus has no categories")
	}
	for i, cat := range corpus.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		for _, term := range cat.Terms {
			if term.Identifier == "" {
				return nil, fmt.Errorf("category %q contains a term without an identifier", cat.Name)
			}
		}
	}
	return &corpus, nil
}
