package rerank

import (
	"context"
	"fmt"
	"time"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/llm"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/security"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Run executes the rerank stage for a mode using the configured provider.
func Run(ctx context.Context, cfg *config.Config, mode string, log *logger.Logger) (Stats, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return Stats{}, err
	}
	gen, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return Stats{}, err
	}
	if log != nil {
		log.Info("Using generator",
			"provider", cfg.LLM.Provider,
			"model", cfg.LLM.Model,
			"api_key", security.MaskSecret(cfg.LLM.APIKey))
	}
	return RunWithGenerator(ctx, cfg, mode, gen, log)
}

// RunWithGenerator executes the rerank stage with a caller-supplied
// generator. Pacing, the optional breaker and the retry policy come from cfg.
func RunWithGenerator(ctx context.Context, cfg *config.Config, mode string, gen llm.Generator, log *logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Discard()
	}
	modeCfg, err := cfg.RerankMode(mode)
	if err != nil {
		return Stats{}, err
	}
	tmpl, err := TemplateFor(mode)
	if err != nil {
		return Stats{}, err
	}
	tmpl.Truncate = modeCfg.Truncate

	corpusDocs, err := trec.LoadCollection(cfg.Paths.Corpus)
	if err != nil {
		return Stats{}, fmt.Errorf("loading corpus: %w", err)
	}
	queryDocs, err := trec.LoadCollection(cfg.Paths.Queries)
	if err != nil {
		return Stats{}, fmt.Errorf("loading queries: %w", err)
	}
	cands, err := trec.LoadCandidates(cfg.Rerank.Candidates, cfg.Rerank.TopK)
	if err != nil {
		return Stats{}, fmt.Errorf("loading candidates: %w", err)
	}
	log.Info("Loaded data",
		"corpus", len(corpusDocs),
		"queries", len(queryDocs),
		"candidate_queries", cands.Len(),
		"mode", tmpl.Name)

	out, err := trec.CreateRunFile(modeCfg.Output, modeCfg.RunTag)
	if err != nil {
		return Stats{}, err
	}
	defer out.Close()

	policy := llm.RetryPolicy{
		MaxAttempts: cfg.Rerank.MaxAttempts,
		Backoff:     cfg.Rerank.Backoff,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			log.Warn("Rate limited, backing off", "attempt", attempt, "wait", wait.String())
		},
	}
	wrapped := llm.Wrap(gen, cfg.Rerank.RequestInterval, cfg.Rerank.Breaker, log)

	driver := NewDriver(wrapped, policy, tmpl, modeCfg.Limit, log)
	stats, err := driver.Run(ctx, cands, trec.NewCollection(queryDocs), trec.NewCollection(corpusDocs), out)
	if err != nil {
		return stats, err
	}

	log.Info("Reranking complete",
		"output", modeCfg.Output,
		"processed", stats.Processed,
		"fallbacks", stats.Fallbacks,
		"skipped", stats.Skipped,
		"abandoned", stats.Abandoned)
	return stats, out.Close()
}
