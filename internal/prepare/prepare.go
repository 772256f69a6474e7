// Package prepare turns the raw question/answer CSV into a collection, a
// query set and relevance judgments.
package prepare

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Dataset is the prepared output.
type Dataset struct {
	Corpus    []trec.Document
	Queries   []trec.Query
	Judgments []trec.Judgment
	// SkippedRows counts rows with an empty question or answer.
	SkippedRows int
}

// Columns selects the CSV header names for questions and answers.
type Columns struct {
	Query string
	Doc   string
}

// NormalizeText trims whitespace and applies NFC normalization.
func NormalizeText(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

// Build reads the raw CSV. Every answer becomes a document, deduplicated by
// exact normalized text, with ids doc_N in first-seen order. Every row
// becomes query q_<row> (0-based over data rows) judged relevant to its
// answer. Rows with an empty question or answer are skipped but keep their
// index so query ids stay aligned with the source rows.
func Build(r io.Reader, source string, cols Columns) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.FormatError(source, 0, "empty file")
		}
		return nil, apperrors.FormatError(source, 1, err.Error())
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	queryCol, docCol := indexOf(header, cols.Query), indexOf(header, cols.Doc)
	if queryCol < 0 || docCol < 0 {
		return nil, apperrors.ConfigurationError(fmt.Sprintf(
			"columns %q or %q not found; available columns: %s",
			cols.Query, cols.Doc, strings.Join(header, ", "),
		)).WithDetail("source", source)
	}

	ds := &Dataset{}
	docIDs := make(map[string]string)

	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.FormatError(source, row+2, err.Error())
		}

		queryText := NormalizeText(field(record, queryCol))
		docText := NormalizeText(field(record, docCol))
		if queryText == "" || docText == "" {
			ds.SkippedRows++
			continue
		}

		docID, ok := docIDs[docText]
		if !ok {
			docID = fmt.Sprintf("doc_%d", len(ds.Corpus))
			docIDs[docText] = docID
			ds.Corpus = append(ds.Corpus, trec.Document{ID: docID, Text: docText})
		}

		queryID := fmt.Sprintf("q_%d", row)
		ds.Queries = append(ds.Queries, trec.Query{ID: queryID, Text: queryText})
		ds.Judgments = append(ds.Judgments, trec.Judgment{QueryID: queryID, DocID: docID, Relevance: 1})
	}

	return ds, nil
}

// Run executes the prepare stage with the configured paths.
func Run(cfg *config.Config, log *logger.Logger) (*Dataset, error) {
	if log == nil {
		log = logger.Discard()
	}

	f, err := os.Open(cfg.Paths.RawData)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.MissingFileError(cfg.Paths.RawData, err)
		}
		return nil, fmt.Errorf("open raw data: %w", err)
	}
	defer f.Close()

	log.Info("Reading raw data", "path", cfg.Paths.RawData)
	ds, err := Build(f, cfg.Paths.RawData, Columns{Query: cfg.Prepare.QueryColumn, Doc: cfg.Prepare.DocColumn})
	if err != nil {
		return nil, err
	}

	if err := trec.SaveCollection(cfg.Paths.Corpus, ds.Corpus); err != nil {
		return nil, fmt.Errorf("saving corpus: %w", err)
	}
	if err := trec.SaveCollection(cfg.Paths.Queries, ds.Queries); err != nil {
		return nil, fmt.Errorf("saving queries: %w", err)
	}
	if err := trec.SaveJudgments(cfg.Paths.Qrels, ds.Judgments); err != nil {
		return nil, fmt.Errorf("saving judgments: %w", err)
	}

	log.Info("Prepared dataset",
		"documents", len(ds.Corpus),
		"queries", len(ds.Queries),
		"judgments", len(ds.Judgments),
		"skipped_rows", ds.SkippedRows)
	return ds, nil
}

// FixQrels rewrites a judgment file in place in the persisted variant.
// Running it on an already normalized file leaves it unchanged.
func FixQrels(path string, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Discard()
	}
	js, err := trec.LoadJudgments(path)
	if err != nil {
		return 0, err
	}
	if err := trec.SaveJudgments(path, js); err != nil {
		return 0, err
	}
	log.Info("Normalized judgments", "path", path, "judgments", len(js))
	return len(js), nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
