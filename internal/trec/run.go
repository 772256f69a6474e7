package trec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// RunWriter writes run records in the six-column TREC format. It is flushed
// after every query so an interrupted stage leaves a well-formed prefix.
type RunWriter struct {
	w      *bufio.Writer
	closer io.Closer
	tag    string
	lines  int
}

// NewRunWriter returns a writer stamping every record with tag. If w is an
// io.Closer it is closed by Close.
func NewRunWriter(w io.Writer, tag string) *RunWriter {
	rw := &RunWriter{w: bufio.NewWriter(w), tag: tag}
	if c, ok := w.(io.Closer); ok {
		rw.closer = c
	}
	return rw
}

// WriteQuery writes one record per candidate, ranks starting at 1 in the
// given order.
func (rw *RunWriter) WriteQuery(qid string, ranked []Scored) error {
	for i, s := range ranked {
		if _, err := fmt.Fprintf(rw.w, "%s Q0 %s %d %.4f %s\n", qid, s.DocID, i+1, s.Score, rw.tag); err != nil {
			return fmt.Errorf("write run record: %w", err)
		}
		rw.lines++
	}
	return rw.w.Flush()
}

// Lines returns the number of records written.
func (rw *RunWriter) Lines() int {
	return rw.lines
}

// Close flushes and closes the underlying writer. Calling it again is a
// no-op.
func (rw *RunWriter) Close() error {
	if err := rw.w.Flush(); err != nil {
		return err
	}
	if c := rw.closer; c != nil {
		rw.closer = nil
		return c.Close()
	}
	return nil
}

// ReadRun reads candidate doc ids per query, keeping records with
// rank <= cutoff. A cutoff <= 0 keeps everything. Within a query the doc ids
// keep file order.
func ReadRun(r io.Reader, source string, cutoff int) (*Candidates, error) {
	c := &Candidates{Docs: make(map[string][]string)}

	err := scanLines(r, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("expected at least 4 fields, got %d", len(fields)))
		}
		rank, err := strconv.Atoi(fields[3])
		if err != nil {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("rank %q is not an integer", fields[3]))
		}
		if cutoff > 0 && rank > cutoff {
			return nil
		}
		qid, docID := fields[0], fields[2]
		if _, seen := c.Docs[qid]; !seen {
			c.QueryIDs = append(c.QueryIDs, qid)
		}
		c.Docs[qid] = append(c.Docs[qid], docID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReadRecords reads complete run records for evaluation.
func ReadRecords(r io.Reader, source string) (*Run, error) {
	run := &Run{Records: make(map[string][]Record)}

	err := scanLines(r, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("expected 6 fields, got %d", len(fields)))
		}
		rank, err := strconv.Atoi(fields[3])
		if err != nil {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("rank %q is not an integer", fields[3]))
		}
		score, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return apperrors.FormatError(source, lineNo, fmt.Sprintf("score %q is not a number", fields[4]))
		}
		rec := Record{
			QueryID: fields[0],
			DocID:   fields[2],
			Rank:    rank,
			Score:   score,
			Tag:     fields[5],
		}
		if _, seen := run.Records[rec.QueryID]; !seen {
			run.QueryIDs = append(run.QueryIDs, rec.QueryID)
		}
		run.Records[rec.QueryID] = append(run.Records[rec.QueryID], rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// scanLines calls fn for every non-blank line with its 1-based number.
func scanLines(r io.Reader, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
