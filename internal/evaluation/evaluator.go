// Package evaluation scores run files against relevance judgments restricted
// to the queries each run actually covers.
package evaluation

import (
	"context"
	"sort"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Evaluator orchestrates run evaluation.
type Evaluator struct {
	judgments trec.Qrels // queryID -> docID -> relevance
	count     int
	metrics   []Metric
	policy    ZeroRelevantPolicy
	log       *logger.Logger
}

// NewEvaluator creates a new evaluator over the full judgment set.
func NewEvaluator(judgments []trec.Judgment, metrics []Metric, policy ZeroRelevantPolicy, log *logger.Logger) *Evaluator {
	if len(metrics) == 0 {
		metrics = DefaultMetrics()
	}
	if policy == "" {
		policy = ExcludeZeroRelevant
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Evaluator{
		judgments: trec.IndexJudgments(judgments),
		count:     len(judgments),
		metrics:   metrics,
		policy:    policy,
		log:       log,
	}
}

// Filter returns the judgments restricted to the given query ids.
func (e *Evaluator) Filter(queryIDs []string) trec.Qrels {
	filtered := make(trec.Qrels)
	for _, qid := range queryIDs {
		if docs, ok := e.judgments[qid]; ok {
			filtered[qid] = docs
		}
	}
	return filtered
}

// EvaluateQuery computes every configured metric for one query. Records are
// ordered by rank; a document repeated in the ranking only counts once.
func (e *Evaluator) EvaluateQuery(qid string, records []trec.Record, judged map[string]int) *QueryResult {
	ranked := make([]trec.Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	gains := make([]int, len(ranked))
	seen := make(map[string]bool, len(ranked))
	for i, r := range ranked {
		if seen[r.DocID] {
			continue
		}
		seen[r.DocID] = true
		gains[i] = judged[r.DocID]
	}

	ideal := make([]int, 0, len(judged))
	totalRelevant := 0
	for _, rel := range judged {
		ideal = append(ideal, rel)
		if rel >= RelevanceThreshold {
			totalRelevant++
		}
	}

	result := &QueryResult{
		QueryID:       qid,
		TotalRelevant: totalRelevant,
		Retrieved:     len(ranked),
		Scores:        make(map[string]float64, len(e.metrics)),
	}

	for _, m := range e.metrics {
		var v float64
		switch m.Kind {
		case KindMAP:
			v = AveragePrecision(gains, totalRelevant)
		case KindNDCG:
			v = NDCG(gains, ideal, m.K)
		case KindRecall:
			v = Recall(gains, m.K, totalRelevant)
		case KindPrecision:
			v = Precision(gains, m.K)
		case KindMRR:
			v = ReciprocalRank(gains)
		}
		result.Scores[m.String()] = v
	}

	return result
}

// EvaluateRun scores a run on the judgments filtered to its queries. Run
// queries without judgments are never scored; the zero-relevant policy only
// decides about judged queries with no relevant document. It returns an
// EMPTY_EVALUATION_SET error when no query can be evaluated.
func (e *Evaluator) EvaluateRun(name string, run *trec.Run) ([]*QueryResult, error) {
	filtered := e.Filter(run.QueryIDs)
	if len(filtered) == 0 {
		return nil, apperrors.EmptyEvaluationError(name)
	}

	results := make([]*QueryResult, 0, len(filtered))
	for _, qid := range run.QueryIDs {
		judged, ok := filtered[qid]
		if !ok {
			continue
		}
		res := e.EvaluateQuery(qid, run.Records[qid], judged)
		if res.TotalRelevant == 0 && e.policy == ExcludeZeroRelevant {
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		return nil, apperrors.EmptyEvaluationError(name)
	}
	return results, nil
}

// Summarize averages per-query scores.
func (e *Evaluator) Summarize(results []*QueryResult) map[string]float64 {
	summary := make(map[string]float64, len(e.metrics))
	if len(results) == 0 {
		return summary
	}

	for _, r := range results {
		for name, v := range r.Scores {
			summary[name] += v
		}
	}

	n := float64(len(results))
	for name := range summary {
		summary[name] /= n
	}
	return summary
}

// Evaluate scores every run file in order. A missing, empty or malformed run
// becomes a status row; evaluation continues with the next run.
func (e *Evaluator) Evaluate(ctx context.Context, runs []RunSpec) (*Report, error) {
	report := &Report{
		ZeroRelevant: e.policy,
		Judgments:    e.count,
	}
	for _, m := range e.metrics {
		report.Metrics = append(report.Metrics, m.String())
	}

	for _, spec := range runs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := e.log.With("system", spec.Name)

		row := Row{System: spec.Name, Path: spec.Path}

		if !trec.Exists(spec.Path) {
			row.Status = StatusMissingFile
			log.Warn("Run file not found", "path", spec.Path)
			report.Rows = append(report.Rows, row)
			continue
		}

		run, err := trec.LoadRun(spec.Path)
		if err != nil {
			row.Status = statusErrorPrefix + err.Error()
			log.Error("Failed to read run", "error", err)
			report.Rows = append(report.Rows, row)
			continue
		}

		results, err := e.EvaluateRun(spec.Name, run)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeEmptyEvaluation) {
				row.Status = StatusNoQueries
				log.Warn("No evaluable queries", "run_queries", run.Len())
			} else {
				row.Status = statusErrorPrefix + err.Error()
				log.Error("Evaluation failed", "error", err)
			}
			report.Rows = append(report.Rows, row)
			continue
		}

		row.Status = StatusOK
		row.Queries = len(results)
		row.Metrics = e.Summarize(results)
		log.Info("Evaluated run", "queries", row.Queries, "map", row.Metrics[Metric{Kind: KindMAP}.String()])
		report.Rows = append(report.Rows, row)
	}

	return report, nil
}
