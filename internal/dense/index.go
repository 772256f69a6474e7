package dense

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/qdrant"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Index is a nearest-neighbour store over document vectors.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]trec.Scored, error)
	Close() error
}

// NewIndex builds the index selected by cfg.Dense.Index.
func NewIndex(cfg *config.Config, log *logger.Logger) (Index, error) {
	switch cfg.Dense.Index {
	case "", "memory":
		return NewMemoryIndex(), nil
	case "qdrant":
		return NewQdrantIndex(cfg.Qdrant, log)
	default:
		return nil, fmt.Errorf("unknown dense index %q", cfg.Dense.Index)
	}
}

// MemoryIndex does exact cosine search over unit-normalised vectors.
type MemoryIndex struct {
	ids     []string
	vectors [][]float64
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add appends vectors. A zero vector is kept and scores 0 against anything.
func (m *MemoryIndex) Add(_ context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	for i, v := range vectors {
		if len(m.vectors) > 0 && len(v) != len(m.vectors[0]) {
			return fmt.Errorf("vector %s has dimension %d, want %d", ids[i], len(v), len(m.vectors[0]))
		}
		m.ids = append(m.ids, ids[i])
		m.vectors = append(m.vectors, unit(v))
	}
	return nil
}

// Search scores every stored vector and returns the best k. Equal scores
// keep insertion order.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]trec.Scored, error) {
	if len(m.vectors) > 0 && len(vector) != len(m.vectors[0]) {
		return nil, fmt.Errorf("query has dimension %d, want %d", len(vector), len(m.vectors[0]))
	}
	q := unit(vector)

	results := make([]trec.Scored, len(m.ids))
	for i, v := range m.vectors {
		results[i] = trec.Scored{DocID: m.ids[i], Score: floats.Dot(q, v)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error { return nil }

func unit(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	if n := floats.Norm(out, 2); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}

// QdrantIndex stores vectors in a Qdrant collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	log        *logger.Logger
}

// NewQdrantIndex connects to Qdrant and checks the server is reachable.
func NewQdrantIndex(cfg config.QdrantConfig, log *logger.Logger) (*QdrantIndex, error) {
	if log == nil {
		log = logger.Discard()
	}

	client, err := qdrant.NewClient(qdrant.ClientConfig{
		Host:    cfg.Host,
		Port:    cfg.Port,
		APIKey:  cfg.APIKey,
		UseTLS:  cfg.UseTLS,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	version, err := client.HealthCheck(context.Background())
	if err != nil {
		client.Close()
		return nil, err
	}
	log.Info("Connected to qdrant", "host", cfg.Host, "port", cfg.Port, "version", version)

	return &QdrantIndex{client: client, collection: cfg.Collection, log: log}, nil
}

// Add recreates the collection sized to the vectors and upserts them.
func (q *QdrantIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil
	}

	err := q.client.CreateCollection(ctx, qdrant.CollectionConfig{
		Name:       q.collection,
		VectorSize: uint64(len(vectors[0])),
		Recreate:   true,
	})
	if err != nil {
		return err
	}

	points := make([]qdrant.Point, len(ids))
	for i := range ids {
		points[i] = qdrant.Point{DocID: ids[i], Vector: vectors[i]}
	}
	if err := q.client.UpsertPointsBatch(ctx, q.collection, points, 256); err != nil {
		return err
	}

	count, err := q.client.CountPoints(ctx, q.collection)
	if err != nil {
		return err
	}
	if count != uint64(len(ids)) {
		q.log.Warn("Qdrant point count differs from corpus size", "points", count, "documents", len(ids))
	}
	return nil
}

// Search runs a dense query against the collection.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]trec.Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	hits, err := q.client.DenseSearch(ctx, q.collection, vector, uint64(k))
	if err != nil {
		return nil, err
	}
	results := make([]trec.Scored, len(hits))
	for i, h := range hits {
		results[i] = trec.Scored{DocID: h.DocID, Score: float64(h.Score)}
	}
	return results, nil
}

// Close closes the qdrant connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
