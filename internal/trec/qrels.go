package trec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// Header of the tab-separated interchange variant.
var interchangeHeader = []string{"query-id", "corpus-id", "score"}

// ReadJudgments reads either judgment variant. The interchange variant starts
// with the query-id/corpus-id/score header and has three tab-separated
// columns; the persisted variant is headerless with four columns
// (qid 0 docid rel).
func ReadJudgments(r io.Reader, source string) ([]Judgment, error) {
	var (
		js          []Judgment
		detected    bool
		interchange bool
	)

	err := scanLines(r, func(lineNo int, line string) error {
		if !detected {
			detected = true
			if isInterchangeHeader(line) {
				interchange = true
				return nil
			}
		}

		var qid, docID, rel string
		if interchange {
			fields := strings.Split(line, "\t")
			if len(fields) != 3 {
				return apperrors.FormatError(source, lineNo, fmt.Sprintf("expected 3 tab-separated columns, got %d", len(fields)))
			}
			qid, docID, rel = fields[0], fields[1], fields[2]
		} else {
			fields := strings.Fields(line)
			if len(fields) != 4 {
				return apperrors.FormatError(source, lineNo, fmt.Sprintf("expected 4 columns, got %d", len(fields)))
			}
			qid, docID, rel = fields[0], fields[2], fields[3]
		}

		relevance, err := parseRelevance(rel)
		if err != nil {
			return apperrors.FormatError(source, lineNo, err.Error())
		}
		js = append(js, Judgment{
			QueryID:   strings.TrimSpace(qid),
			DocID:     strings.TrimSpace(docID),
			Relevance: relevance,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return js, nil
}

// WriteJudgments writes the persisted variant: "qid 0 docid rel" per line.
func WriteJudgments(w io.Writer, js []Judgment) error {
	bw := bufio.NewWriter(w)
	for _, j := range js {
		if _, err := fmt.Fprintf(bw, "%s 0 %s %d\n", j.QueryID, j.DocID, j.Relevance); err != nil {
			return fmt.Errorf("write judgment: %w", err)
		}
	}
	return bw.Flush()
}

func isInterchangeHeader(line string) bool {
	fields := strings.Split(line, "\t")
	if len(fields) != len(interchangeHeader) {
		return false
	}
	for i, f := range fields {
		if strings.TrimSpace(f) != interchangeHeader[i] {
			return false
		}
	}
	return true
}

// parseRelevance accepts integers and integral floats such as "1.0".
func parseRelevance(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("relevance %q is not an integer", s)
	}
	return int(f), nil
}
