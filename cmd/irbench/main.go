// Package main provides the irbench binary: every experiment stage as a
// subcommand plus a pipeline command that runs them in order.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/dense"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/evaluation"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/lexical"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pipeline"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/prepare"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/report"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/rerank"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := interruptContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(pipeline.ExitCode(err))
}

// interruptContext is cancelled by the first SIGINT or SIGTERM. The handler
// is released right after, so a second signal terminates the process.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "irbench",
		Short: "irbench - retrieval experiment harness",
		Long: `irbench compares lexical, dense and LLM-reranked retrieval on a
question/answer dataset and scores every run with MAP, nDCG and Recall.

Run 'irbench pipeline' to execute every stage in order.
Run 'irbench --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	rootCmd.AddCommand(
		prepareCmd(),
		fixQrelsCmd(),
		bm25Cmd(),
		denseCmd(),
		rerankCmd(),
		evaluateCmd(),
		plotCmd(),
		pipelineCmd(),
		versionCmd(),
	)

	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// stage logger.
func setup(cmd *cobra.Command, stage string) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithStage(stage)
	return cfg, log, nil
}

func prepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Convert the raw CSV into corpus, queries and judgments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "prepare")
			if err != nil {
				return err
			}
			_, err = prepare.Run(cfg, log)
			return err
		},
	}
}

func fixQrelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-qrels [path]",
		Short: "Rewrite a judgment file in the persisted TREC format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, "fix-qrels")
			if err != nil {
				return err
			}
			path := cfg.Paths.Qrels
			if len(args) == 1 {
				path = args[0]
			}
			_, err = prepare.FixQrels(path, log)
			return err
		},
	}
}

func bm25Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bm25",
		Short: "Run the BM25 lexical baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "bm25")
			if err != nil {
				return err
			}
			_, err = lexical.Run(cmd.Context(), cfg, log)
			return err
		},
	}
}

func denseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dense",
		Short: "Run the dense sentence-embedding baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "dense")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("index") {
				cfg.Dense.Index, _ = cmd.Flags().GetString("index")
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			_, err = dense.Run(cmd.Context(), cfg, log)
			return err
		},
	}

	cmd.Flags().String("index", "", "nearest-neighbour index (memory, qdrant)")

	return cmd
}

func rerankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rerank",
		Short: "Rerank BM25 candidates with a generative model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			cfg, log, err := setup(cmd, "rerank-"+config.NormalizeMode(mode))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				switch config.NormalizeMode(mode) {
				case config.ModeZeroShot:
					cfg.Rerank.ZeroShot.Limit = limit
				case config.ModeFewShot:
					cfg.Rerank.FewShot.Limit = limit
				}
			}
			_, err = rerank.Run(cmd.Context(), cfg, mode, log)
			return err
		},
	}

	cmd.Flags().StringP("mode", "m", config.ModeZeroShot, "prompt mode (zero-shot, few-shot)")
	cmd.Flags().Int("limit", 0, "maximum number of queries to rerank (0 = all)")

	return cmd
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score every run against the judgments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "evaluate")
			if err != nil {
				return err
			}
			_, err = evaluation.Run(cmd.Context(), cfg, cmd.OutOrStdout(), log)
			return err
		},
	}
}

func plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot",
		Short: "Render the evaluation results as a bar chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "plot")
			if err != nil {
				return err
			}
			return report.Run(cfg, log)
		},
	}
}

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run every stage in order, stopping at the first failure",
		Long: `Run every stage as a child process of this binary, in order:
prepare, fix-qrels, bm25, dense, rerank (zero-shot), rerank (few-shot),
evaluate and plot.

Exit status is 0 when every stage succeeds, 1 when a stage fails or does
not produce its output, and 130 when interrupted.

Examples:
  irbench pipeline                         # Run everything
  irbench pipeline --from evaluate         # Re-run scoring and the chart
  irbench pipeline --skip dense            # Skip the embedding baseline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, "pipeline")
			if err != nil {
				return err
			}

			from, _ := cmd.Flags().GetString("from")
			skip, _ := cmd.Flags().GetStringSlice("skip")
			stages, err := pipeline.Select(pipeline.DefaultStages(cfg), from, skip)
			if err != nil {
				return err
			}

			configPath, _ := cmd.Flags().GetString("config")
			var extra []string
			for _, name := range []string{"log-level", "log-format"} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					extra = append(extra, "--"+name, v)
				}
			}
			exec, err := pipeline.NewProcessExecutor(configPath, extra...)
			if err != nil {
				return err
			}

			return pipeline.NewRunner(exec, cmd.OutOrStdout(), log).Run(cmd.Context(), stages)
		},
	}

	cmd.Flags().String("from", "", "start at this stage")
	cmd.Flags().StringSlice("skip", nil, "stages to skip (comma separated)")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("irbench %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
