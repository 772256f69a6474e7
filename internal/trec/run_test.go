package trec

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

func TestRunWriter_WriteQuery(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRunWriter(&buf, "BM25")

	require.NoError(t, rw.WriteQuery("q_0", []Scored{
		{DocID: "doc_3", Score: 12.34567},
		{DocID: "doc_1", Score: 0},
	}))
	require.NoError(t, rw.Close())

	want := "q_0 Q0 doc_3 1 12.3457 BM25\n" +
		"q_0 Q0 doc_1 2 0.0000 BM25\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 2, rw.Lines())
}

func TestRunWriter_PreservesDuplicates(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRunWriter(&buf, "X")

	require.NoError(t, rw.WriteQuery("q", []Scored{{DocID: "d"}, {DocID: "d"}}))

	c, err := ReadRun(strings.NewReader(buf.String()), "run", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "d"}, c.Docs["q"])
}

func TestRun_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRunWriter(&buf, "SBERT")

	queries := map[string][]Scored{
		"q_1": {{"doc_5", 0.9}, {"doc_2", 0.8}, {"doc_9", 0.1}},
		"q_0": {{"doc_1", 0.7}, {"doc_4", 0.3}},
	}
	require.NoError(t, rw.WriteQuery("q_1", queries["q_1"]))
	require.NoError(t, rw.WriteQuery("q_0", queries["q_0"]))

	c, err := ReadRun(bytes.NewReader(buf.Bytes()), "run", 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"q_1", "q_0"}, c.QueryIDs)
	assert.Equal(t, []string{"doc_5", "doc_2", "doc_9"}, c.Docs["q_1"])
	assert.Equal(t, []string{"doc_1", "doc_4"}, c.Docs["q_0"])

	run, err := ReadRecords(bytes.NewReader(buf.Bytes()), "run")
	require.NoError(t, err)
	for _, qid := range run.QueryIDs {
		for i, rec := range run.Records[qid] {
			assert.Equal(t, i+1, rec.Rank, "ranks are 1..M per query")
			assert.Equal(t, "SBERT", rec.Tag)
		}
	}
}

func TestReadRun_Cutoff(t *testing.T) {
	input := `q_0 Q0 d1 1 3.0 BM25
q_0 Q0 d2 2 2.0 BM25
q_0 Q0 d3 3 1.0 BM25

q_1 Q0 d4 1 1.0 BM25
`
	c, err := ReadRun(strings.NewReader(input), "run", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"d1", "d2"}, c.Docs["q_0"])
	assert.Equal(t, []string{"d4"}, c.Docs["q_1"])
}

func TestReadRun_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"too few fields", "q_0 Q0 d1 1 1.0 T\nq_0 Q0\n", "2"},
		{"non-integer rank", "q_0 Q0 d1 one 1.0 T\n", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRun(strings.NewReader(tt.input), "run.txt", 0)
			require.Error(t, err)
			assert.True(t, apperrors.IsFormat(err))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.line, appErr.Details["line"])
		})
	}
}

func TestReadRecords_Malformed(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("q_0 Q0 d1 1 high BM25\n"), "run.txt")
	assert.True(t, apperrors.IsFormat(err))

	_, err = ReadRecords(strings.NewReader("q_0 Q0 d1 1\n"), "run.txt")
	assert.True(t, apperrors.IsFormat(err))
}

func TestCreateRunFile_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "run.txt")

	rw, err := CreateRunFile(path, "A")
	require.NoError(t, err)
	require.NoError(t, rw.WriteQuery("q", []Scored{{DocID: "a"}, {DocID: "b"}}))
	require.NoError(t, rw.Close())

	rw, err = CreateRunFile(path, "B")
	require.NoError(t, err)
	require.NoError(t, rw.WriteQuery("q", []Scored{{DocID: "c"}}))
	require.NoError(t, rw.Close())

	run, err := LoadRun(path)
	require.NoError(t, err)
	require.Len(t, run.Records["q"], 1)
	assert.Equal(t, "B", run.Records["q"][0].Tag)
}

func TestLoadRun_MissingFile(t *testing.T) {
	_, err := LoadRun(filepath.Join(t.TempDir(), "absent.txt"))
	assert.True(t, apperrors.IsConfiguration(err))
}
