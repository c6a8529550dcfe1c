package searcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoqa/repoqa/pkg/types"
)

func passage(id, path, text string) types.Passage {
	return types.Passage{ID: id, DocumentID: "doc-" + id, SourcePath: path, Text: text, Position: 0}
}

func testCorpus() types.Corpus {
	return types.Corpus{
		passage("p1", "math.py", "def add(a, b): return a+b"),
		passage("p2", "story.txt", "The quick brown fox jumps"),
		passage("p3", "math.js", "function add(a,b){return a+b;}"),
	}
}

func TestFuse(t *testing.T) {
	fused, err := Fuse([]float64{2, 0, 4}, []float64{0, 1, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5, 2.25}, fused)
}

func TestFuseLengthMismatch(t *testing.T) {
	_, err := Fuse([]float64{1, 2}, []float64{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSelectLengthMismatchIsFatal(t *testing.T) {
	corpus := testCorpus()

	_, err := Select(corpus, []float64{1, 2}, []float64{1, 2, 3}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Select(corpus, []float64{1, 2, 3}, []float64{1, 2}, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSelectRanksByDescendingFusedScore(t *testing.T) {
	corpus := testCorpus()

	results, err := Select(corpus, []float64{1, 0, 3}, []float64{1, 0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "p3", results[0].Passage.ID)
	assert.Equal(t, "p1", results[1].Passage.ID)
	assert.Equal(t, "p2", results[2].Passage.ID)

	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score)
		}
	}
}

func TestSelectDependsOnlyOnFusedSum(t *testing.T) {
	corpus := testCorpus()

	// Swapping lexical and vector scores between two passages with equal
	// weights leaves the fused vector unchanged, so the ranking must be
	// identical.
	a, err := Select(corpus, []float64{4, 0, 1}, []float64{1, 0, 4}, 3)
	require.NoError(t, err)
	b, err := Select(corpus, []float64{1, 0, 4}, []float64{4, 0, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelectTieBreakByAscendingCorpusIndex(t *testing.T) {
	corpus := testCorpus()

	results, err := Select(corpus, []float64{1, 1, 1}, []float64{1, 1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "p1", results[0].Passage.ID)
	assert.Equal(t, "p2", results[1].Passage.ID)
	assert.Equal(t, "p3", results[2].Passage.ID)

	// Determinism across repeated runs.
	for i := 0; i < 10; i++ {
		again, err := Select(corpus, []float64{1, 1, 1}, []float64{1, 1, 1}, 3)
		require.NoError(t, err)
		assert.Equal(t, results, again)
	}
}

func TestSelectNeverReturnsDuplicates(t *testing.T) {
	corpus := testCorpus()

	results, err := Select(corpus, []float64{3, 2, 1}, []float64{1, 2, 3}, 3)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range results {
		assert.False(t, seen[r.Passage.ID], "duplicate passage %s", r.Passage.ID)
		seen[r.Passage.ID] = true
	}
}

func TestSelectKBoundaries(t *testing.T) {
	corpus := testCorpus()
	lex := []float64{3, 2, 1}
	vec := []float64{1, 2, 3}

	results, err := Select(corpus, lex, vec, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Select(corpus, lex, vec, -1)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Select(corpus, lex, vec, 100)
	require.NoError(t, err)
	assert.Len(t, results, len(corpus), "k > n returns all n distinct passages, never pads")
}

func TestSelectEmptyCorpus(t *testing.T) {
	results, err := Select(types.Corpus{}, []float64{}, []float64{}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineEndToEndRanking(t *testing.T) {
	eng := New(testCorpus(), nil)
	require.Equal(t, 3, eng.Len())

	results, err := eng.Search(context.Background(), "add function python", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both code passages share lexical overlap with the query; the story
	// passage must never outrank either of them.
	for _, r := range results {
		assert.NotEqual(t, "p2", r.Passage.ID, "story passage must not reach the top 2")
	}
	assert.ElementsMatch(t, []string{"p1", "p3"},
		[]string{results[0].Passage.ID, results[1].Passage.ID})
}

func TestEngineEmptyCorpus(t *testing.T) {
	eng := New(nil, nil)

	results, err := eng.Search(context.Background(), "any query at all", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineSinglePassage(t *testing.T) {
	corpus := types.Corpus{passage("only", "a.txt", "the lone passage in this corpus")}
	eng := New(corpus, nil)

	results, err := eng.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only", results[0].Passage.ID)
}

func TestEngineDegenerateQuery(t *testing.T) {
	eng := New(testCorpus(), nil)

	results, err := eng.Search(context.Background(), "!!! 123 ???", 2)
	require.NoError(t, err)
	// All scores are zero; ranking falls back to corpus order.
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].Passage.ID)
	assert.Equal(t, "p2", results[1].Passage.ID)
}

func TestEngineCancelledContext(t *testing.T) {
	eng := New(testCorpus(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := eng.Search(ctx, "add", 2)
	assert.Error(t, err)
	assert.Empty(t, results, "abandonment must be treated as no results")
}

func TestEngineCachedResultsIdentical(t *testing.T) {
	eng := New(testCorpus(), &Config{CacheSize: 16})
	ctx := context.Background()

	first, err := eng.Search(ctx, "add function python", 2)
	require.NoError(t, err)
	second, err := eng.Search(ctx, "add function python", 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Mutating a returned slice must not poison the cache.
	second[0].Passage.ID = "mutated"
	third, err := eng.Search(ctx, "add function python", 2)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestEngineScoreVectorLengthProperty(t *testing.T) {
	corpora := []types.Corpus{
		testCorpus(),
		{passage("a", "x.txt", "hello")},
		{passage("a", "x.txt", ""), passage("b", "y.txt", "world")},
	}
	for _, corpus := range corpora {
		eng := New(corpus, nil)
		results, err := eng.Search(context.Background(), "hello world", len(corpus)+5)
		require.NoError(t, err)
		assert.Len(t, results, len(corpus))
	}
}
