// Package vectorizer implements the second, independent relevance model: a
// TF-IDF weighting of the corpus with cosine similarity between the query
// and every passage.
//
// The lifecycle is two-phase: Fit builds an immutable weighted model once
// per corpus, and Score is a pure read-only projection of a query into the
// fitted space. Because the corpus is immutable within a session, reusing
// the fitted model across queries produces results identical to refitting
// from scratch on every call.
package vectorizer

import (
	"math"

	"github.com/repoqa/repoqa/internal/textnorm"
)

// Model is a fitted TF-IDF weighting over one corpus. A nil *Model
// represents an empty corpus; Score on a nil Model returns nil. The model
// is immutable after Fit and safe for concurrent Score calls.
type Model struct {
	idf  map[string]float64
	docs []map[string]float64 // L2-normalized tf-idf weights, corpus order
}

// Fit builds the weighting model from the corpus passage texts: term
// frequency scaled sub-linearly (1+ln tf), smoothed inverse document
// frequency (ln((1+N)/(1+df))+1), English stop words excluded, vectors
// L2-normalized. Returns nil for an empty corpus.
func Fit(texts []string) *Model {
	if len(texts) == 0 {
		return nil
	}

	counts := make([]map[string]float64, len(texts))
	docFreqs := make(map[string]int)
	for i, text := range texts {
		tf := termCounts(text)
		counts[i] = tf
		for term := range tf {
			docFreqs[term]++
		}
	}

	n := float64(len(texts))
	idf := make(map[string]float64, len(docFreqs))
	for term, df := range docFreqs {
		idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	m := &Model{idf: idf, docs: make([]map[string]float64, len(texts))}
	for i, tf := range counts {
		m.docs[i] = m.weigh(tf)
	}
	return m
}

// Score projects the query into the fitted space and returns the cosine
// similarity against every passage vector, aligned to corpus order. Values
// are in [0,1] for non-negative weighted text. A nil Model scores as no
// candidates; a query with no in-vocabulary terms scores 0 everywhere.
func (m *Model) Score(query string) []float64 {
	if m == nil {
		return nil
	}
	scores := make([]float64, len(m.docs))
	qv := m.weigh(termCounts(query))
	if len(qv) == 0 {
		return scores
	}
	for i, dv := range m.docs {
		// Both vectors are unit length, so cosine reduces to a dot product.
		var dot float64
		for term, qw := range qv {
			if dw, ok := dv[term]; ok {
				dot += qw * dw
			}
		}
		scores[i] = dot
	}
	return scores
}

// Len returns the number of passages the model was fitted over.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.docs)
}

// weigh applies sublinear tf scaling and idf weighting to raw term counts
// and L2-normalizes the result. Terms outside the fitted vocabulary are
// dropped, matching a vectorizer transform.
func (m *Model) weigh(counts map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	var sq float64
	for term, count := range counts {
		idf, ok := m.idf[term]
		if !ok {
			continue
		}
		w := (1 + math.Log(count)) * idf
		vec[term] = w
		sq += w * w
	}
	if sq > 0 {
		norm := math.Sqrt(sq)
		for term := range vec {
			vec[term] /= norm
		}
	}
	return vec
}

// termCounts tokenizes text and counts terms, excluding English stop words.
func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range textnorm.Tokenize(text) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	return counts
}
