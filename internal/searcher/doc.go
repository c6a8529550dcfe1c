// Package searcher combines the two independent relevance signals into one
// ranking and selects the top-K passages.
//
// # Score Fusion
//
// Both scorers produce one dense score vector aligned by index with the
// corpus ordering. Fusion is a fixed 0.5/0.5 weighted sum:
//
//	fused[i] = 0.5*lexical[i] + 0.5*vector[i]
//
// Indices are then sorted by descending fused score with ties broken by
// ascending corpus index, deduplicated, and the first K survivors mapped
// back to passages. The tie-break is deterministic so the same corpus and
// query always produce the same ranking.
//
// # Engine
//
// Engine owns the corpus and both fitted models. The corpus is immutable
// once the engine is built and may be shared across concurrent queries;
// score vectors are query-local and discarded after selection.
//
//	eng := searcher.New(corpus, nil)
//	results, err := eng.Search(ctx, "where is the config parsed", 5)
//
// An optional LRU response cache can be enabled via Config.CacheSize.
// Because the corpus is immutable, cached responses are identical to a
// recompute; the cache is off by default.
package searcher
