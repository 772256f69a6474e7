// Package trec reads and writes the flat files exchanged between stages:
// JSONL collections, relevance judgments and TREC run files.
package trec

// Document is one entry of a JSONL collection.
type Document struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
}

// Query shares the document shape; queries.jsonl uses the same fields.
type Query = Document

// Judgment is a graded relevance label for a query/document pair.
// Relevance >= 1 means relevant.
type Judgment struct {
	QueryID   string `json:"query_id"`
	DocID     string `json:"doc_id"`
	Relevance int    `json:"relevance"`
}

// Record is one line of a run file.
type Record struct {
	QueryID string
	DocID   string
	Rank    int
	Score   float64
	Tag     string
}

// Scored is a ranked candidate handed to the run writer.
type Scored struct {
	DocID string
	Score float64
}

// Candidates holds the doc ids of a run, grouped by query.
type Candidates struct {
	// QueryIDs in order of first appearance in the file.
	QueryIDs []string
	Docs     map[string][]string
}

// Len returns the number of queries.
func (c *Candidates) Len() int {
	return len(c.QueryIDs)
}

// Run holds full run records grouped by query, in file order.
type Run struct {
	QueryIDs []string
	Records  map[string][]Record
}

// Len returns the number of queries.
func (r *Run) Len() int {
	return len(r.QueryIDs)
}

// Qrels indexes judgments as qid -> docid -> relevance.
type Qrels map[string]map[string]int

// IndexJudgments builds a Qrels lookup. A later duplicate overrides an
// earlier one.
func IndexJudgments(js []Judgment) Qrels {
	q := make(Qrels)
	for _, j := range js {
		docs, ok := q[j.QueryID]
		if !ok {
			docs = make(map[string]int)
			q[j.QueryID] = docs
		}
		docs[j.DocID] = j.Relevance
	}
	return q
}

// Collection is an ordered set of documents with id lookup.
type Collection struct {
	Docs  []Document
	index map[string]int
}

// NewCollection builds a collection. Ids are assumed unique.
func NewCollection(docs []Document) *Collection {
	c := &Collection{Docs: docs, index: make(map[string]int, len(docs))}
	for i, d := range docs {
		c.index[d.ID] = i
	}
	return c
}

// Get returns the document with the given id.
func (c *Collection) Get(id string) (Document, bool) {
	i, ok := c.index[id]
	if !ok {
		return Document{}, false
	}
	return c.Docs[i], true
}

// Text returns the text for id, or "" when absent.
func (c *Collection) Text(id string) string {
	d, _ := c.Get(id)
	return d.Text
}

// Len returns the number of documents.
func (c *Collection) Len() int {
	return len(c.Docs)
}
