package types

import "errors"

// Passage is a chunk of text split from one original document. SourcePath
// and DocumentID are inherited unchanged from the parent document; Position
// is the chunk's ordinal within that document.
type Passage struct {
	ID         string // unique within a run
	DocumentID string // groups passages split from one original document
	SourcePath string // repo-relative path, stable across splits
	Text       string
	Position   int
}

// Validate checks the required fields of a Passage. Text may be empty: a
// passage that normalizes to zero tokens still occupies a corpus slot.
func (p *Passage) Validate() error {
	if p.ID == "" {
		return errors.New("passage id cannot be empty")
	}
	if p.DocumentID == "" {
		return errors.New("passage document id cannot be empty")
	}
	if p.SourcePath == "" {
		return errors.New("passage source path cannot be empty")
	}
	if p.Position < 0 {
		return errors.New("passage position must be non-negative")
	}
	return nil
}

// Corpus is the full ordered sequence of Passages for one indexed
// repository. Insertion order is discovery order and is immutable once the
// build completes: score vectors are aligned by index with this ordering.
type Corpus []Passage

// Texts returns the passage texts in corpus order.
func (c Corpus) Texts() []string {
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[i].Text
	}
	return out
}

// SearchResult pairs a passage with its fused relevance score. Rank is
// 1-based within one response.
type SearchResult struct {
	Passage Passage
	Score   float64
	Rank    int
}
