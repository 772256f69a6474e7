package lexical

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

func testCorpus() []trec.Document {
	return []trec.Document{
		{ID: "doc_0", Text: "Kiracı kira bedelini ödemezse tahliye edilebilir."},
		{ID: "doc_1", Text: "İşçi kıdem tazminatı hesaplanırken son brüt ücret esas alınır."},
		{ID: "doc_2", Text: "Boşanma davasında nafaka talep edilebilir."},
		{ID: "doc_3", Text: "IRMAK kenarındaki taşınmazlar kamu malıdır."},
	}
}

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker(testCorpus())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRanker_RanksMatchingDocumentFirst(t *testing.T) {
	r := newTestRanker(t)

	results, err := r.Search(context.Background(), "nafaka talep", 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "doc_2", results[0].DocID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestRanker_PadsWithCollectionOrder(t *testing.T) {
	r := newTestRanker(t)

	results, err := r.Search(context.Background(), "nafaka", 100)
	require.NoError(t, err)

	require.Len(t, results, 4, "min(n, |collection|) results")
	assert.Equal(t, "doc_2", results[0].DocID)
	assert.Equal(t, []string{"doc_0", "doc_1", "doc_3"}, []string{results[1].DocID, results[2].DocID, results[3].DocID})
	for _, res := range results[1:] {
		assert.Equal(t, 0.0, res.Score)
	}
}

func TestRanker_NoMatchStillReturnsCollection(t *testing.T) {
	r := newTestRanker(t)

	results, err := r.Search(context.Background(), "zzzz", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "doc_0", results[0].DocID)
	assert.Equal(t, "doc_1", results[1].DocID)
}

func TestRanker_TurkishCaseFolding(t *testing.T) {
	r := newTestRanker(t)

	results, err := r.Search(context.Background(), "ırmak", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_3", results[0].DocID)

	results, err = r.Search(context.Background(), "işçi", 1)
	require.NoError(t, err)
	assert.Equal(t, "doc_1", results[0].DocID)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Corpus = filepath.Join(dir, "corpus.jsonl")
	cfg.Paths.Queries = filepath.Join(dir, "queries.jsonl")
	cfg.Lexical.Output = filepath.Join(dir, "outputs", "run_bm25.txt")
	cfg.Lexical.TopN = 3

	require.NoError(t, trec.SaveCollection(cfg.Paths.Corpus, testCorpus()))
	require.NoError(t, trec.SaveCollection(cfg.Paths.Queries, []trec.Document{
		{ID: "q_0", Text: "kira ödemezse tahliye"},
		{ID: "q_1", Text: "kıdem tazminatı"},
	}))

	n, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	run, err := trec.LoadRun(cfg.Lexical.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"q_0", "q_1"}, run.QueryIDs)
	require.Len(t, run.Records["q_0"], 3)
	assert.Equal(t, "doc_0", run.Records["q_0"][0].DocID)
	assert.Equal(t, "BM25", run.Records["q_0"][0].Tag)
	assert.Equal(t, "doc_1", run.Records["q_1"][0].DocID)
}
