package rerank

import (
	"context"
	"errors"
	"strconv"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/llm"
	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/security"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Stats counts what happened to the candidate queries.
type Stats struct {
	Processed int // records written
	Fallbacks int // written in the original order
	Skipped   int // query text missing
	Abandoned int // remote failure, nothing written
}

// Driver reranks one query at a time through a Generator.
type Driver struct {
	gen      llm.Generator
	policy   llm.RetryPolicy
	template Template
	limit    int
	log      *logger.Logger
}

// NewDriver creates a driver. limit caps the number of processed queries;
// 0 means all of them.
func NewDriver(gen llm.Generator, policy llm.RetryPolicy, template Template, limit int, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Discard()
	}
	return &Driver{
		gen:      gen,
		policy:   policy,
		template: template,
		limit:    limit,
		log:      log,
	}
}

// Result is the reranked list for one query.
type Result struct {
	Ranked   []trec.Scored
	Fallback bool
	Partial  bool
	Outcome  llm.Outcome
	// Err is set when the query was abandoned: RATE_LIMITED once the retry
	// budget is spent, REMOTE_SERVICE_ERROR for any other failure.
	Err *apperrors.AppError
}

// RerankQuery builds the prompt, calls the generator under the retry policy
// and orders the candidates. Ranked is nil when the outcome is not Success.
func (d *Driver) RerankQuery(ctx context.Context, query string, passages []Passage) Result {
	prompt, index := d.template.BuildPrompt(query, passages)

	outcome := d.policy.Do(ctx, d.gen, prompt)
	if outcome.Kind != llm.Success {
		return Result{Outcome: outcome, Err: abandonError(outcome)}
	}

	ranking := ParseRanking(outcome.Text)
	ranked, fallback := Order(index, ranking)
	return Result{
		Ranked:   Score(ranked),
		Fallback: fallback,
		Partial:  !fallback && Applied(index, ranking) < index.Len(),
		Outcome:  outcome,
	}
}

func abandonError(outcome llm.Outcome) *apperrors.AppError {
	var err *apperrors.AppError
	if outcome.Kind == llm.Transient {
		err = apperrors.RateLimitedError("llm", outcome.Err)
	} else {
		err = apperrors.RemoteServiceError("llm", outcome.Err)
	}
	return err.WithDetail("attempts", strconv.Itoa(outcome.Attempts))
}

// Run reranks the candidate queries in order and writes every processed
// query to out. It stops early when the limit is reached or ctx is done.
func (d *Driver) Run(ctx context.Context, cands *trec.Candidates, queries, corpus *trec.Collection, out *trec.RunWriter) (Stats, error) {
	var stats Stats
	total := cands.Len()
	if d.limit > 0 && d.limit < total {
		total = d.limit
	}

	for _, qid := range cands.QueryIDs {
		if d.limit > 0 && stats.Processed >= d.limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		qlog := d.log.WithQuery(qid)

		query, ok := queries.Get(qid)
		if !ok {
			stats.Skipped++
			qlog.Warn("Skipping query", "error", apperrors.CoverageError("query", qid))
			continue
		}

		docIDs := cands.Docs[qid]
		passages := make([]Passage, len(docIDs))
		for i, id := range docIDs {
			passages[i] = Passage{ID: id, Text: corpus.Text(id)}
		}

		if stats.Processed%10 == 0 {
			qlog.Info("Reranking", "progress", stats.Processed, "total", total)
		}

		res := d.RerankQuery(ctx, query.Text, passages)
		if res.Outcome.Kind != llm.Success {
			if errors.Is(res.Outcome.Err, context.Canceled) || errors.Is(res.Outcome.Err, context.DeadlineExceeded) {
				return stats, res.Outcome.Err
			}
			stats.Abandoned++
			qlog.Error("Abandoning query",
				"code", res.Err.Code,
				"attempts", res.Outcome.Attempts,
				"error", res.Err)
			continue
		}

		if res.Outcome.Err != nil {
			qlog.Warn("Empty response, keeping candidate order", "error", res.Outcome.Err)
		}
		switch {
		case res.Fallback:
			stats.Fallbacks++
			qlog.Debug("No usable ranking, keeping candidate order",
				"response", security.SanitizeForLog(res.Outcome.Text))
		case res.Partial:
			qlog.Debug("Partial ranking, appending missing candidates",
				"response", security.SanitizeForLog(res.Outcome.Text))
		}

		if err := out.WriteQuery(qid, res.Ranked); err != nil {
			return stats, err
		}
		stats.Processed++
	}

	return stats, nil
}
