// Package dense implements the sentence-embedding ranker: encode the
// collection and the queries, then rank by cosine similarity.
package dense

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/schollz/progressbar/v3"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
)

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// HugotEmbedder runs a feature-extraction pipeline on hugot's pure Go
// backend.
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewHugotEmbedder loads the configured model, downloading it into
// cfg.ModelsDir on first use.
func NewHugotEmbedder(cfg config.DenseConfig, log *logger.Logger) (*HugotEmbedder, error) {
	if log == nil {
		log = logger.Discard()
	}

	modelPath, err := prepareModel(cfg, log)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "irbench-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return &HugotEmbedder{session: session, pipeline: pipeline}, nil
}

// prepareModel returns the local model directory, downloading the model
// if it is not there yet.
func prepareModel(cfg config.DenseConfig, log *logger.Logger) (string, error) {
	modelPath := filepath.Join(cfg.ModelsDir, strings.ReplaceAll(cfg.Model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat model directory: %w", err)
	}

	if err := os.MkdirAll(cfg.ModelsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	log.Info("Downloading embedding model", "model", cfg.Model, "dir", cfg.ModelsDir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = cfg.OnnxFile
	downloaded, err := hugot.DownloadModel(cfg.Model, cfg.ModelsDir, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// Embed encodes texts in one pipeline call.
func (e *HugotEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	return result.Embeddings, nil
}

// Close releases the hugot session.
func (e *HugotEmbedder) Close() error {
	return e.session.Destroy()
}

// EncodeAll embeds texts in batches of batchSize, optionally drawing a
// progress bar on stderr.
func EncodeAll(ctx context.Context, emb Embedder, texts []string, batchSize int, desc string, showProgress bool) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(texts)), desc)
		defer bar.Finish()
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batch, err := emb.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("encode %s %d-%d: %w", desc, i, end, err)
		}
		vectors = append(vectors, batch...)
		if bar != nil {
			bar.Add(end - i)
		}
	}
	return vectors, nil
}
