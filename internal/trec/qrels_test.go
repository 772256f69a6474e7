package trec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

func TestReadJudgments_Variants(t *testing.T) {
	want := []Judgment{
		{QueryID: "q_0", DocID: "doc_0", Relevance: 1},
		{QueryID: "q_1", DocID: "doc_0", Relevance: 2},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"interchange", "query-id\tcorpus-id\tscore\nq_0\tdoc_0\t1\nq_1\tdoc_0\t2\n"},
		{"persisted", "q_0 0 doc_0 1\nq_1 0 doc_0 2\n"},
		{"persisted with float relevance", "q_0 0 doc_0 1.0\nq_1 0 doc_0 2\n"},
		{"leading blank line", "\nq_0 0 doc_0 1\nq_1 0 doc_0 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js, err := ReadJudgments(strings.NewReader(tt.input), "qrels")
			require.NoError(t, err)
			assert.Equal(t, want, js)
		})
	}
}

func TestReadJudgments_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"persisted wrong column count", "q_0 doc_0 1\n"},
		{"interchange wrong column count", "query-id\tcorpus-id\tscore\nq_0\tdoc_0\n"},
		{"non-integer relevance", "q_0 0 doc_0 high\n"},
		{"fractional relevance", "q_0 0 doc_0 0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJudgments(strings.NewReader(tt.input), "qrels")
			assert.True(t, apperrors.IsFormat(err), "got %v", err)
		})
	}
}

func TestWriteJudgments(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJudgments(&buf, []Judgment{
		{QueryID: "q_0", DocID: "doc_0", Relevance: 1},
		{QueryID: "q_2", DocID: "doc_1", Relevance: 1},
	}))

	assert.Equal(t, "q_0 0 doc_0 1\nq_2 0 doc_1 1\n", buf.String())
}

func TestSaveJudgments_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrels.tsv")
	require.NoError(t, os.WriteFile(path, []byte("query-id\tcorpus-id\tscore\nq_0\tdoc_0\t1\n"), 0o644))

	js, err := LoadJudgments(path)
	require.NoError(t, err)
	require.NoError(t, SaveJudgments(path, js))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	js, err = LoadJudgments(path)
	require.NoError(t, err)
	require.NoError(t, SaveJudgments(path, js))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "q_0 0 doc_0 1\n", string(first))
	assert.Equal(t, first, second)
}

func TestIndexJudgments(t *testing.T) {
	q := IndexJudgments([]Judgment{
		{QueryID: "q1", DocID: "a", Relevance: 1},
		{QueryID: "q1", DocID: "b", Relevance: 0},
		{QueryID: "q2", DocID: "a", Relevance: 2},
	})

	assert.Len(t, q, 2)
	assert.Equal(t, 1, q["q1"]["a"])
	assert.Equal(t, 0, q["q1"]["b"])
	assert.Equal(t, 2, q["q2"]["a"])
}
