package dense

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// keywordEmbedder counts vocabulary words, one dimension per word.
type keywordEmbedder struct {
	vocab []string
	calls int
	err   error
}

func (k *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(k.vocab))
		for _, w := range strings.Fields(strings.ToLower(t)) {
			for j, term := range k.vocab {
				if w == term {
					v[j]++
				}
			}
		}
		out[i] = v
	}
	return out, nil
}

func (k *keywordEmbedder) Close() error { return nil }

func TestMemoryIndex_CosineOrder(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(context.Background(),
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {1, 1}, {0, 1}},
	))

	results, err := idx.Search(context.Background(), []float32{2, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "b", results[1].DocID)
	assert.InDelta(t, 0.70710678, results[1].Score, 1e-6)
	assert.Equal(t, "c", results[2].DocID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(context.Background(),
		[]string{"x", "y", "z"},
		[][]float32{{0, 1}, {0, 3}, {0, 2}},
	))

	results, err := idx.Search(context.Background(), []float32{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, []string{results[0].DocID, results[1].DocID})
}

func TestMemoryIndex_Errors(t *testing.T) {
	idx := NewMemoryIndex()
	assert.Error(t, idx.Add(context.Background(), []string{"a"}, nil))

	require.NoError(t, idx.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}}))
	assert.Error(t, idx.Add(context.Background(), []string{"b"}, [][]float32{{1, 0, 0}}))

	_, err := idx.Search(context.Background(), []float32{1}, 1)
	assert.Error(t, err)
}

func TestMemoryIndex_ZeroVector(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(context.Background(), []string{"a"}, [][]float32{{0, 0}}))

	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestEncodeAll_Batches(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"kira"}}
	texts := []string{"kira", "a", "kira kira", "b", "c"}

	vectors, err := EncodeAll(context.Background(), emb, texts, 2, "test", false)
	require.NoError(t, err)

	assert.Equal(t, 3, emb.calls)
	require.Len(t, vectors, 5)
	assert.Equal(t, []float32{2}, vectors[2])
}

func TestEncodeAll_Error(t *testing.T) {
	emb := &keywordEmbedder{err: errors.New("boom")}
	_, err := EncodeAll(context.Background(), emb, []string{"a"}, 8, "test", false)
	assert.ErrorContains(t, err, "boom")
}

func TestRunWith(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Corpus = filepath.Join(dir, "corpus.jsonl")
	cfg.Paths.Queries = filepath.Join(dir, "queries.jsonl")
	cfg.Dense.Output = filepath.Join(dir, "outputs", "run_sbert.txt")
	cfg.Dense.TopN = 2
	cfg.Dense.BatchSize = 2
	cfg.Dense.ShowProgress = false

	require.NoError(t, trec.SaveCollection(cfg.Paths.Corpus, []trec.Document{
		{ID: "doc_0", Text: "kira tahliye"},
		{ID: "doc_1", Text: "nafaka boşanma"},
		{ID: "doc_2", Text: "kıdem tazminat"},
	}))
	require.NoError(t, trec.SaveCollection(cfg.Paths.Queries, []trec.Document{
		{ID: "q_0", Text: "nafaka"},
		{ID: "q_1", Text: "kira"},
	}))

	emb := &keywordEmbedder{vocab: []string{"kira", "tahliye", "nafaka", "boşanma", "kıdem", "tazminat"}}
	n, err := RunWith(context.Background(), cfg, emb, NewMemoryIndex(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	run, err := trec.LoadRun(cfg.Dense.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"q_0", "q_1"}, run.QueryIDs)

	q0 := run.Records["q_0"]
	require.Len(t, q0, 2)
	assert.Equal(t, "doc_1", q0[0].DocID)
	assert.Equal(t, 1, q0[0].Rank)
	assert.Equal(t, "SBERT", q0[0].Tag)
	assert.Equal(t, "doc_0", run.Records["q_1"][0].DocID)
}

func TestNewIndex_Memory(t *testing.T) {
	cfg := config.Default()
	idx, err := NewIndex(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryIndex{}, idx)

	cfg.Dense.Index = "faiss"
	_, err = NewIndex(cfg, nil)
	assert.Error(t, err)
}
