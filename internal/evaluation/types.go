package evaluation

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// MetricKind identifies a metric family.
type MetricKind string

const (
	KindMAP       MetricKind = "map"
	KindNDCG      MetricKind = "ndcg"
	KindRecall    MetricKind = "recall"
	KindPrecision MetricKind = "p"
	KindMRR       MetricKind = "mrr"
)

// Metric is a metric family with an optional cutoff.
type Metric struct {
	Kind MetricKind
	K    int // 0 = no cutoff
}

// String returns the canonical name, e.g. "ndcg@10".
func (m Metric) String() string {
	if m.K > 0 {
		return fmt.Sprintf("%s@%d", m.Kind, m.K)
	}
	return string(m.Kind)
}

// Label returns the display name used in tables and charts.
func (m Metric) Label() string {
	switch m.Kind {
	case KindMAP:
		return "MAP"
	case KindNDCG:
		return fmt.Sprintf("nDCG@%d", m.K)
	case KindRecall:
		return fmt.Sprintf("Recall@%d", m.K)
	case KindPrecision:
		return fmt.Sprintf("P@%d", m.K)
	case KindMRR:
		return "MRR"
	}
	return m.String()
}

// DefaultMetrics returns MAP, nDCG@10 and Recall@10.
func DefaultMetrics() []Metric {
	return []Metric{{Kind: KindMAP}, {Kind: KindNDCG, K: 10}, {Kind: KindRecall, K: 10}}
}

// ParseMetric parses names such as "map", "ndcg@10", "recall@10", "p@5"
// and "mrr". Matching is case-insensitive.
func ParseMetric(name string) (Metric, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	kind, cutoff, hasCutoff := strings.Cut(s, "@")

	switch MetricKind(kind) {
	case KindMAP, KindMRR:
		if hasCutoff {
			return Metric{}, apperrors.ConfigurationError(fmt.Sprintf("metric %q takes no cutoff", name))
		}
		return Metric{Kind: MetricKind(kind)}, nil
	case KindNDCG, KindRecall, KindPrecision:
		if !hasCutoff {
			return Metric{}, apperrors.ConfigurationError(fmt.Sprintf("metric %q needs a cutoff, e.g. %s@10", name, kind))
		}
		k, err := strconv.Atoi(cutoff)
		if err != nil || k < 1 {
			return Metric{}, apperrors.ConfigurationError(fmt.Sprintf("metric %q has an invalid cutoff", name))
		}
		return Metric{Kind: MetricKind(kind), K: k}, nil
	}
	return Metric{}, apperrors.ConfigurationError(fmt.Sprintf("unknown metric %q", name))
}

// ParseMetrics parses a list of metric names, dropping duplicates.
func ParseMetrics(names []string) ([]Metric, error) {
	if len(names) == 0 {
		return DefaultMetrics(), nil
	}
	var out []Metric
	seen := make(map[Metric]bool)
	for _, n := range names {
		m, err := ParseMetric(n)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

// ZeroRelevantPolicy decides what happens to run queries that have no
// relevant judgment.
type ZeroRelevantPolicy string

const (
	// ExcludeZeroRelevant drops such queries from the mean, as trec_eval does.
	ExcludeZeroRelevant ZeroRelevantPolicy = "exclude"
	// ScoreZeroRelevant keeps them in the mean with every metric at 0.
	ScoreZeroRelevant ZeroRelevantPolicy = "zero"
)

// Row statuses.
const (
	StatusOK          = "ok"
	StatusMissingFile = "missing file"
	StatusNoQueries   = "no evaluable queries"
	statusErrorPrefix = "error: "
)

// QueryResult contains metrics for a single query.
type QueryResult struct {
	QueryID       string             `json:"query_id"`
	TotalRelevant int                `json:"total_relevant"`
	Retrieved     int                `json:"retrieved"`
	Scores        map[string]float64 `json:"scores"`
}

// Row is the evaluation outcome for one run file.
type Row struct {
	System  string             `json:"system"`
	Path    string             `json:"path"`
	Status  string             `json:"status"`
	Queries int                `json:"queries"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// OK reports whether the row carries scores.
func (r Row) OK() bool {
	return r.Status == StatusOK
}

// Report aggregates every evaluated run.
type Report struct {
	Metrics      []string           `json:"metrics"`
	ZeroRelevant ZeroRelevantPolicy `json:"zero_relevant"`
	Judgments    int                `json:"judgments"`
	Rows         []Row              `json:"rows"`
}

// RunSpec names a run file to evaluate.
type RunSpec struct {
	Name string
	Path string
}
