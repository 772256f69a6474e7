package qdrant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("expected host %s, got %s", DefaultHost, cfg.Host)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"corpus", "irbench_corpus"},
		{"turkish-law", "irbench_turkish-law"},
	}

	for _, tt := range tests {
		result := collectionName(tt.input)
		if result != tt.expected {
			t.Errorf("collectionName(%s) = %s, expected %s", tt.input, result, tt.expected)
		}
	}
}

func TestPointID(t *testing.T) {
	a := PointID("doc_0")
	if a != PointID("doc_0") {
		t.Error("expected point ids to be deterministic")
	}
	if a == PointID("doc_1") {
		t.Error("expected distinct documents to get distinct point ids")
	}

	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("expected a valid uuid, got %q: %v", a, err)
	}
	if parsed.Version() != 5 {
		t.Errorf("expected uuid version 5, got %d", parsed.Version())
	}
}

func TestPointToQdrant(t *testing.T) {
	p := pointToQdrant(Point{DocID: "doc_7", Vector: []float32{0.1, 0.2, 0.3}})

	if got := p.GetId().GetUuid(); got != PointID("doc_7") {
		t.Errorf("expected id %s, got %s", PointID("doc_7"), got)
	}

	if got := getStringValue(p.GetPayload(), docIDKey); got != "doc_7" {
		t.Errorf("expected payload doc_id 'doc_7', got %q", got)
	}

	named := p.GetVectors().GetVectors().GetVectors()
	vec, ok := named[VectorName]
	if !ok {
		t.Fatalf("expected named vector %q", VectorName)
	}
	if len(vec.GetData()) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(vec.GetData()))
	}
}

func TestCreateRequest(t *testing.T) {
	req := createRequest("irbench_corpus", 384)

	params := req.GetVectorsConfig().GetParamsMap().GetMap()[VectorName]
	if params == nil {
		t.Fatal("expected dense vector params")
	}
	if params.GetSize() != 384 {
		t.Errorf("expected size 384, got %d", params.GetSize())
	}
	if params.GetDistance() != qdrant.Distance_Cosine {
		t.Errorf("expected cosine distance, got %v", params.GetDistance())
	}
}

func TestScoredPointsToResults(t *testing.T) {
	points := []*qdrant.ScoredPoint{
		{
			Id:      qdrant.NewIDUUID(PointID("doc_2")),
			Payload: qdrant.NewValueMap(map[string]any{docIDKey: "doc_2"}),
			Score:   0.9,
		},
		{
			Id:    qdrant.NewIDNum(4),
			Score: 0.1,
		},
	}

	results := scoredPointsToResults(points)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocID != "doc_2" || results[0].Score != 0.9 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].ID != "4" || results[1].DocID != "" {
		t.Errorf("unexpected second result %+v", results[1])
	}
}
