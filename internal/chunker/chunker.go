// Package chunker splits documents into overlapping fixed-size passages.
//
// Every passage inherits the parent document's id and source path unchanged,
// and consecutive passages of one document overlap so that content near a
// chunk boundary is retrievable from either side. Passages from different
// documents are never merged.
package chunker

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/repoqa/repoqa/pkg/types"
)

const (
	// DefaultChunkSize is the target passage length in characters.
	DefaultChunkSize = 3000

	// DefaultChunkOverlap is the character overlap between consecutive
	// passages of the same document.
	DefaultChunkOverlap = 200
)

// ErrInvalidEncoding is returned when a document's text is not valid UTF-8.
var ErrInvalidEncoding = errors.New("document text is not valid UTF-8")

// Document is the chunker's input: one original file with a stable id.
type Document struct {
	ID         string
	SourcePath string
	Text       string
}

// Chunker splits document text into overlapping character windows.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Non-positive size falls back to DefaultChunkSize;
// an overlap that is negative or not smaller than size falls back to
// DefaultChunkOverlap so the window always advances.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 2
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split produces the ordered passages covering doc.Text. The concatenation
// of the returned passages covers the full text; no content is dropped. An
// empty document yields no passages.
func (c *Chunker) Split(doc Document) ([]types.Passage, error) {
	if doc.ID == "" {
		return nil, errors.New("document id is required")
	}
	if doc.SourcePath == "" {
		return nil, errors.New("document source path is required")
	}
	if !utf8.ValidString(doc.Text) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, doc.SourcePath)
	}
	if doc.Text == "" {
		return nil, nil
	}

	runes := []rune(doc.Text)
	step := c.size - c.overlap

	var passages []types.Passage
	for start, pos := 0, 0; start < len(runes); start, pos = start+step, pos+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		p := types.Passage{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			SourcePath: doc.SourcePath,
			Text:       string(runes[start:end]),
			Position:   pos,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid passage for %s: %w", doc.SourcePath, err)
		}
		passages = append(passages, p)
		if end == len(runes) {
			break
		}
	}
	return passages, nil
}
