// Package qdrant wraps the Qdrant Go client with the operations the dense
// ranker needs: a single-vector cosine collection keyed by document id.
package qdrant

import (
	"github.com/google/uuid"
)

// VectorName is the named dense vector every point carries.
const VectorName = "dense"

// pointNamespace seeds the UUIDv5 point ids so a document always maps to
// the same point across runs.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("irbench/corpus"))

// PointID returns the deterministic point id for a document id.
func PointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID)).String()
}

// CollectionConfig defines the configuration for creating a collection.
type CollectionConfig struct {
	// Name is the collection name (will be prefixed with "irbench_").
	Name string

	// VectorSize is the embedding dimension.
	VectorSize uint64

	// Recreate drops an existing collection first.
	Recreate bool
}

// Point is one embedded document.
type Point struct {
	DocID  string
	Vector []float32
}

// SearchResult is a single scored document.
type SearchResult struct {
	// ID is the point identifier.
	ID string

	// DocID is read back from the payload.
	DocID string

	Score float32
}
