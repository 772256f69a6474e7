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

func TestWriteCollection_KeepsUTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCollection(&buf, []Document{
		{ID: "doc_0", Text: "Kiracı tahliye <edilebilir> mi?"},
	}))

	assert.Equal(t, `{"_id":"doc_0","text":"Kiracı tahliye <edilebilir> mi?"}`+"\n", buf.String())
}

func TestCollection_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	docs := []Document{
		{ID: "doc_0", Text: "İşçi kıdem tazminatı"},
		{ID: "doc_1", Text: "line\nbreak"},
	}

	require.NoError(t, SaveCollection(path, docs))
	got, err := LoadCollection(path)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestReadCollection_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", `{"_id": "doc_0", "text": `},
		{"missing id", `{"text": "x"}`},
		{"missing text", `{"_id": "doc_0"}`},
		{"duplicate id", "{\"_id\":\"a\",\"text\":\"x\"}\n{\"_id\":\"a\",\"text\":\"y\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCollection(strings.NewReader(tt.input), "corpus.jsonl")
			assert.True(t, apperrors.IsFormat(err), "got %v", err)
		})
	}
}

func TestReadCollection_IgnoresExtraFields(t *testing.T) {
	docs, err := ReadCollection(strings.NewReader(`{"_id":"d","title":"t","text":"body"}`), "c")
	require.NoError(t, err)
	assert.Equal(t, []Document{{ID: "d", Text: "body"}}, docs)
}

func TestCollection_Lookup(t *testing.T) {
	c := NewCollection([]Document{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}})

	d, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "beta", d.Text)
	assert.Equal(t, "", c.Text("missing"))
	assert.Equal(t, 2, c.Len())
}
