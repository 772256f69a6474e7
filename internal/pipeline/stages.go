// Package pipeline runs every stage in order as a subprocess of the irbench
// binary.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// Stage is one step of the experiment.
type Stage struct {
	Name        string
	Description string
	// Args are the irbench arguments that run the stage.
	Args []string
	// Requires must exist before the stage starts.
	Requires []string
	// Produces must exist once the stage finishes.
	Produces []string
}

// DefaultStages returns the fixed stage list with paths taken from cfg.
func DefaultStages(cfg *config.Config) []Stage {
	p := cfg.Paths
	return []Stage{
		{
			Name:        "prepare",
			Description: "Converting raw CSV to corpus, queries and judgments",
			Args:        []string{"prepare"},
			Requires:    []string{p.RawData},
			Produces:    []string{p.Corpus, p.Queries, p.Qrels},
		},
		{
			Name:        "fix-qrels",
			Description: "Normalizing judgments to the TREC format",
			Args:        []string{"fix-qrels"},
			Requires:    []string{p.Qrels},
			Produces:    []string{p.Qrels},
		},
		{
			Name:        "bm25",
			Description: "Running lexical retrieval (BM25) baseline",
			Args:        []string{"bm25"},
			Requires:    []string{p.Corpus, p.Queries},
			Produces:    []string{cfg.Lexical.Output},
		},
		{
			Name:        "dense",
			Description: "Running dense retrieval (S-BERT) baseline",
			Args:        []string{"dense"},
			Requires:    []string{p.Corpus, p.Queries},
			Produces:    []string{cfg.Dense.Output},
		},
		{
			Name:        "rerank-zero-shot",
			Description: fmt.Sprintf("Running zero-shot reranking (%s)", cfg.LLM.Model),
			Args:        []string{"rerank", "--mode", config.ModeZeroShot},
			Requires:    []string{p.Corpus, p.Queries, cfg.Rerank.Candidates},
			Produces:    []string{cfg.Rerank.ZeroShot.Output},
		},
		{
			Name:        "rerank-few-shot",
			Description: fmt.Sprintf("Running few-shot reranking (%s)", cfg.LLM.Model),
			Args:        []string{"rerank", "--mode", config.ModeFewShot},
			Requires:    []string{p.Corpus, p.Queries, cfg.Rerank.Candidates},
			Produces:    []string{cfg.Rerank.FewShot.Output},
		},
		{
			Name:        "evaluate",
			Description: "Calculating MAP, nDCG and Recall scores",
			Args:        []string{"evaluate"},
			Requires:    []string{p.Qrels},
			Produces:    []string{cfg.Evaluate.Results},
		},
		{
			Name:        "plot",
			Description: "Generating the comparison chart",
			Args:        []string{"plot"},
			Requires:    []string{cfg.Report.Input},
			Produces:    []string{cfg.Report.Output},
		},
	}
}

// Select returns the stages starting at from (all when empty) minus the
// skipped names. Unknown names are a configuration error.
func Select(stages []Stage, from string, skip []string) ([]Stage, error) {
	known := make(map[string]bool, len(stages))
	for _, s := range stages {
		known[s.Name] = true
	}

	var unknown []string
	if from != "" && !known[from] {
		unknown = append(unknown, from)
	}
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known[name] {
			unknown = append(unknown, name)
		}
		skipped[name] = true
	}
	if len(unknown) > 0 {
		return nil, apperrors.ConfigurationError(fmt.Sprintf(
			"unknown stage %s; available stages: %s",
			strings.Join(unknown, ", "), strings.Join(names(stages), ", ")))
	}

	var out []Stage
	started := from == ""
	for _, s := range stages {
		if s.Name == from {
			started = true
		}
		if started && !skipped[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

func names(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}
