// Package lexical implements the BM25 baseline over an in-memory bluge
// index.
package lexical

import (
	"context"
	"fmt"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/index"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

const textField = "text"

// Ranker scores queries against a collection with BM25.
type Ranker struct {
	writer *bluge.Writer
	reader *bluge.Reader
	docs   []trec.Document
	fold   cases.Caser
}

// NewRanker indexes docs in memory.
func NewRanker(docs []trec.Document) (*Ranker, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	r := &Ranker{
		writer: writer,
		docs:   docs,
		fold:   cases.Lower(language.Turkish),
	}

	batch := index.NewBatch()
	for _, d := range docs {
		doc := bluge.NewDocument(d.ID).
			AddField(bluge.NewTextField(textField, r.normalize(d.Text)))
		batch.Update(doc.ID(), doc)
	}
	if err := writer.Batch(batch); err != nil {
		writer.Close()
		return nil, fmt.Errorf("index documents: %w", err)
	}

	reader, err := writer.Reader()
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	r.reader = reader
	return r, nil
}

// normalize applies Turkish case folding (İ->i, I->ı) before bluge's
// standard analyzer sees the text.
func (r *Ranker) normalize(text string) string {
	return r.fold.String(text)
}

// Search returns the top n documents for query. When fewer than n documents
// match, the remaining documents follow in collection order with score 0,
// so every query gets min(n, |collection|) results.
func (r *Ranker) Search(ctx context.Context, query string, n int) ([]trec.Scored, error) {
	if n > len(r.docs) {
		n = len(r.docs)
	}
	if n <= 0 {
		return nil, nil
	}

	q := bluge.NewMatchQuery(r.normalize(query)).SetField(textField)
	dmi, err := r.reader.Search(ctx, bluge.NewTopNSearch(n, q))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]trec.Scored, 0, n)
	matched := make(map[string]bool, n)

	match, err := dmi.Next()
	for err == nil && match != nil {
		var docID string
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				docID = string(value)
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, fmt.Errorf("read stored fields: %w", visitErr)
		}
		results = append(results, trec.Scored{DocID: docID, Score: match.Score})
		matched[docID] = true
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	for _, d := range r.docs {
		if len(results) >= n {
			break
		}
		if !matched[d.ID] {
			results = append(results, trec.Scored{DocID: d.ID, Score: 0})
		}
	}
	return results, nil
}

// Close releases the index.
func (r *Ranker) Close() error {
	if r.reader != nil {
		r.reader.Close()
	}
	return r.writer.Close()
}

// Run executes the BM25 stage: index the corpus, rank every query and write
// the run file.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (int, error) {
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

	log.Info("Indexing corpus", "documents", len(corpus))
	ranker, err := NewRanker(corpus)
	if err != nil {
		return 0, err
	}
	defer ranker.Close()

	out, err := trec.CreateRunFile(cfg.Lexical.Output, cfg.Lexical.RunTag)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	every := cfg.Lexical.ProgressEvery
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if every > 0 && i%every == 0 {
			log.Info("Ranking queries", "progress", i, "total", len(queries))
		}

		results, err := ranker.Search(ctx, q.Text, cfg.Lexical.TopN)
		if err != nil {
			return i, fmt.Errorf("query %s: %w", q.ID, err)
		}
		if err := out.WriteQuery(q.ID, results); err != nil {
			return i, err
		}
	}

	if err := out.Close(); err != nil {
		return len(queries), err
	}
	log.Info("BM25 run written", "output", cfg.Lexical.Output, "queries", len(queries), "records", out.Lines())
	return len(queries), nil
}
