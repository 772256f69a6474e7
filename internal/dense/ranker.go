package dense

import (
	"context"
	"fmt"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Ranker pairs an embedder with an index.
type Ranker struct {
	emb          Embedder
	idx          Index
	batchSize    int
	showProgress bool
}

// NewRanker creates a ranker. It does not take ownership of emb or idx.
func NewRanker(emb Embedder, idx Index, batchSize int, showProgress bool) *Ranker {
	return &Ranker{emb: emb, idx: idx, batchSize: batchSize, showProgress: showProgress}
}

// IndexCollection encodes every document and adds it to the index.
func (r *Ranker) IndexCollection(ctx context.Context, docs []trec.Document) error {
	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i], texts[i] = d.ID, d.Text
	}

	vectors, err := EncodeAll(ctx, r.emb, texts, r.batchSize, "corpus", r.showProgress)
	if err != nil {
		return err
	}
	return r.idx.Add(ctx, ids, vectors)
}

// Rank encodes the queries and writes the top n documents per query.
func (r *Ranker) Rank(ctx context.Context, queries []trec.Query, n int, out *trec.RunWriter) (int, error) {
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}

	vectors, err := EncodeAll(ctx, r.emb, texts, r.batchSize, "queries", r.showProgress)
	if err != nil {
		return 0, err
	}

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		results, err := r.idx.Search(ctx, vectors[i], n)
		if err != nil {
			return i, fmt.Errorf("query %s: %w", q.ID, err)
		}
		if err := out.WriteQuery(q.ID, results); err != nil {
			return i, err
		}
	}
	return len(queries), nil
}

// Run executes the dense stage with the hugot embedder and the configured
// index.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Discard()
	}

	log.Info("Loading embedding model", "model", cfg.Dense.Model)
	emb, err := NewHugotEmbedder(cfg.Dense, log)
	if err != nil {
		return 0, err
	}
	defer emb.Close()

	idx, err := NewIndex(cfg, log)
	if err != nil {
		return 0, err
	}
	defer idx.Close()

	return RunWith(ctx, cfg, emb, idx, log)
}

// RunWith executes the dense stage with the given embedder and index.
func RunWith(ctx context.Context, cfg *config.Config, emb Embedder, idx Index, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Discard()
	}

	corpus, err := trec.LoadCollection(cfg.Paths.Corpus)
	if err != nil {
		return 0, fmt.Errorf("loading corpus: %w", err)
	}
	queries, err := trec.LoadCollection(cfg.Paths.Queries)
	if err != nil {
		return 0, fmt.Errorf("loading queries: %w", err)
	}

	r := NewRanker(emb, idx, cfg.Dense.BatchSize, cfg.Dense.ShowProgress)

	log.Info("Encoding corpus", "documents", len(corpus), "index", cfg.Dense.Index)
	if err := r.IndexCollection(ctx, corpus); err != nil {
		return 0, err
	}

	out, err := trec.CreateRunFile(cfg.Dense.Output, cfg.Dense.RunTag)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	log.Info("Encoding and ranking queries", "queries", len(queries))
	n, err := r.Rank(ctx, queries, cfg.Dense.TopN, out)
	if err != nil {
		return n, err
	}

	if err := out.Close(); err != nil {
		return n, err
	}
	log.Info("Dense run written", "output", cfg.Dense.Output, "queries", n, "records", out.Lines())
	return n, nil
}
