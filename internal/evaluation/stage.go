package evaluation

import (
	"context"
	"fmt"
	"io"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Run executes the evaluate stage: score every configured run, print the
// table to out and save the report. A missing or malformed judgment file
// is fatal.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, log *logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.Discard()
	}

	metrics, err := ParseMetrics(cfg.Evaluate.Metrics)
	if err != nil {
		return nil, err
	}

	judgments, err := trec.LoadJudgments(cfg.Paths.Qrels)
	if err != nil {
		return nil, fmt.Errorf("loading judgments: %w", err)
	}
	log.Info("Loaded judgments", "path", cfg.Paths.Qrels, "judgments", len(judgments))

	runs := make([]RunSpec, len(cfg.Evaluate.Runs))
	for i, r := range cfg.Evaluate.Runs {
		runs[i] = RunSpec{Name: r.Name, Path: r.Path}
	}

	e := NewEvaluator(judgments, metrics, ZeroRelevantPolicy(cfg.Evaluate.ZeroRelevant), log)
	report, err := e.Evaluate(ctx, runs)
	if err != nil {
		return report, err
	}

	if err := report.WriteTable(out); err != nil {
		return report, fmt.Errorf("write table: %w", err)
	}
	if err := report.Save(cfg.Evaluate.Results); err != nil {
		return report, fmt.Errorf("saving results: %w", err)
	}
	log.Info("Results saved", "output", cfg.Evaluate.Results, "runs", len(report.Rows), "ok", len(report.OKRows()))
	return report, nil
}
