// Package lexical implements the sparse-term relevance model: an Okapi BM25
// index built once over the full corpus and queried with tokenized questions.
//
// The index is immutable after Build and safe for concurrent Score calls. A
// changed corpus requires a full rebuild; there is no incremental update.
package lexical

import (
	"math"

	"github.com/repoqa/repoqa/internal/textnorm"
	"github.com/repoqa/repoqa/pkg/types"
)

// Okapi BM25 parameters.
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25
)

// Index is a BM25 Okapi term-frequency index over one corpus. The zero of
// candidates is represented by a nil *Index: Build returns nil for an empty
// corpus and Score on a nil Index returns nil.
type Index struct {
	termFreqs []map[string]int // per passage, corpus order
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// Build tokenizes every passage and constructs the index. Returns nil when
// the corpus is empty. Passages that normalize to zero tokens keep their
// corpus slot and score 0 against every query.
func Build(corpus types.Corpus) *Index {
	if len(corpus) == 0 {
		return nil
	}

	idx := &Index{
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		idf:       make(map[string]float64),
	}

	docFreqs := make(map[string]int)
	totalLen := 0
	for i := range corpus {
		tokens := textnorm.Tokenize(corpus[i].Text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range freqs {
			docFreqs[term]++
		}
	}
	idx.avgDocLen = float64(totalLen) / float64(len(corpus))

	// Okapi IDF can go negative for terms in more than half the corpus.
	// Following BM25Okapi, negative values are floored at epsilon times the
	// average IDF so common terms still contribute a small positive weight.
	n := float64(len(corpus))
	var idfSum float64
	var negative []string
	for term, df := range docFreqs {
		v := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		idx.idf[term] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(docFreqs) > 0 {
		eps := epsilon * idfSum / float64(len(docFreqs))
		for _, term := range negative {
			idx.idf[term] = eps
		}
	}

	return idx
}

// Len returns the number of passages the index was built over.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.termFreqs)
}

// Score returns one BM25 relevance score per passage, aligned to corpus
// order. Scores are unbounded non-negative reals; higher is more relevant.
// A nil Index scores as no candidates.
func (idx *Index) Score(queryTokens []string) []float64 {
	if idx == nil {
		return nil
	}
	scores := make([]float64, len(idx.termFreqs))
	if idx.avgDocLen == 0 {
		return scores
	}
	for i, freqs := range idx.termFreqs {
		norm := 1 - b + b*float64(idx.docLens[i])/idx.avgDocLen
		var s float64
		for _, term := range queryTokens {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			s += idx.idf[term] * tf * (k1 + 1) / (tf + k1*norm)
		}
		scores[i] = s
	}
	return scores
}
