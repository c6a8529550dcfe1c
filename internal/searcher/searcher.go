package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/repoqa/repoqa/internal/lexical"
	"github.com/repoqa/repoqa/internal/textnorm"
	"github.com/repoqa/repoqa/internal/vectorizer"
	"github.com/repoqa/repoqa/pkg/types"
)

const (
	// LexicalWeight and VectorWeight are the fixed fusion weights.
	LexicalWeight = 0.5
	VectorWeight  = 0.5

	// DefaultTopK is the default number of passages returned per query.
	DefaultTopK = 5
)

// ErrLengthMismatch signals that the two score vectors were not built over
// the same corpus. This is a programming-contract violation, not a
// transient condition.
var ErrLengthMismatch = errors.New("score vector length mismatch")

// Fuse combines the two score vectors element-wise with the fixed weights.
func Fuse(lexicalScores, vectorScores []float64) ([]float64, error) {
	if len(lexicalScores) != len(vectorScores) {
		return nil, fmt.Errorf("%w: lexical=%d vector=%d", ErrLengthMismatch, len(lexicalScores), len(vectorScores))
	}
	fused := make([]float64, len(lexicalScores))
	for i := range fused {
		fused[i] = LexicalWeight*lexicalScores[i] + VectorWeight*vectorScores[i]
	}
	return fused, nil
}

// Select fuses the two score vectors and returns the top k passages in rank
// order: descending fused score, ties broken by ascending corpus index, no
// passage returned twice. k <= 0 or an empty corpus yields an empty result;
// k > n yields all n distinct passages.
func Select(corpus types.Corpus, lexicalScores, vectorScores []float64, k int) ([]types.SearchResult, error) {
	if len(lexicalScores) != len(corpus) || len(vectorScores) != len(corpus) {
		return nil, fmt.Errorf("%w: corpus=%d lexical=%d vector=%d",
			ErrLengthMismatch, len(corpus), len(lexicalScores), len(vectorScores))
	}

	fused, err := Fuse(lexicalScores, vectorScores)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 || k <= 0 {
		return []types.SearchResult{}, nil
	}

	order := make([]int, len(fused))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if fused[ia] != fused[ib] {
			return fused[ia] > fused[ib]
		}
		return ia < ib
	})

	if k > len(order) {
		k = len(order)
	}

	results := make([]types.SearchResult, 0, k)
	seen := make(map[string]struct{}, k)
	for _, idx := range order {
		if len(results) == k {
			break
		}
		p := corpus[idx]
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		results = append(results, types.SearchResult{
			Passage: p,
			Score:   fused[idx],
			Rank:    len(results) + 1,
		})
	}
	return results, nil
}

// Config controls optional Engine behavior.
type Config struct {
	// CacheSize is the number of query responses to keep in the LRU
	// response cache. Zero disables caching.
	CacheSize int
}

// Engine owns one immutable corpus and the two relevance models fitted over
// it. Safe for concurrent Search calls.
type Engine struct {
	corpus types.Corpus
	index  *lexical.Index
	model  *vectorizer.Model
	cache  *lru.Cache[[32]byte, []types.SearchResult]
}

// New builds both models over the corpus. Building on an empty corpus is
// valid: every search against it returns an empty result.
func New(corpus types.Corpus, cfg *Config) *Engine {
	e := &Engine{
		corpus: corpus,
		index:  lexical.Build(corpus),
		model:  vectorizer.Fit(corpus.Texts()),
	}
	if cfg != nil && cfg.CacheSize > 0 {
		cache, err := lru.New[[32]byte, []types.SearchResult](cfg.CacheSize)
		if err != nil {
			panic(fmt.Sprintf("failed to create LRU cache: %v", err))
		}
		e.cache = cache
	}
	return e
}

// Len returns the corpus size.
func (e *Engine) Len() int { return len(e.corpus) }

// Search scores the query with both models, fuses the scores and returns up
// to k passages. A cancelled context is treated as no results.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]types.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return []types.SearchResult{}, err
	}
	if e.index == nil || e.model == nil || k <= 0 {
		return []types.SearchResult{}, nil
	}

	var key [32]byte
	if e.cache != nil {
		key = cacheKey(query, k)
		if cached, ok := e.cache.Get(key); ok {
			return append([]types.SearchResult(nil), cached...), nil
		}
	}

	// Both models are read-only after construction, so the two score
	// vectors can be computed concurrently.
	var lexicalScores, vectorScores []float64
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexicalScores = e.index.Score(textnorm.Tokenize(query))
		return nil
	})
	g.Go(func() error {
		vectorScores = e.model.Score(query)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results, err := Select(e.corpus, lexicalScores, vectorScores, k)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && len(results) > 0 {
		e.cache.Add(key, append([]types.SearchResult(nil), results...))
	}
	return results, nil
}

func cacheKey(query string, k int) [32]byte {
	return sha256.Sum256(fmt.Appendf(nil, "%d\x00%s", k, query))
}
