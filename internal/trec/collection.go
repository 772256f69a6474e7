package trec

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// maxLineSize bounds a single JSONL record; legal answers can be long.
const maxLineSize = 16 * 1024 * 1024

type rawDocument struct {
	ID   *string `json:"_id"`
	Text *string `json:"text"`
}

// ReadCollection reads a JSONL collection. Every line must be an object with
// string fields _id and text; ids must be unique.
func ReadCollection(r io.Reader, source string) ([]Document, error) {
	var docs []Document
	seen := make(map[string]struct{})

	err := scanLines(r, func(lineNo int, line string) error {
		var raw rawDocument
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("invalid JSON: %v", err))
		}
		if raw.ID == nil || *raw.ID == "" {
			return apperrors.FormatError(source, lineNo, "missing _id")
		}
		if raw.Text == nil {
			return apperrors.FormatError(source, lineNo, "missing text")
		}
		if _, dup := seen[*raw.ID]; dup {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("duplicate _id %s", *raw.ID))
		}
		seen[*raw.ID] = struct{}{}
		docs = append(docs, Document{ID: *raw.ID, Text: *raw.Text})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// WriteCollection writes one JSON object per line. Non-ASCII text is written
// as UTF-8, never as \u escapes.
func WriteCollection(w io.Writer, docs []Document) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode %s: %w", d.ID, err)
		}
	}
	return bw.Flush()
}
