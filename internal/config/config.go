// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// DotEnvFile is loaded into the process environment when present in the
// working directory. Variables already set take precedence.
const DotEnvFile = ".env"

// Config holds all application configuration. Each stage receives it
// explicitly; nothing here is read from package state.
type Config struct {
	// File locations shared by several stages
	Paths PathsConfig `yaml:"paths"`

	// Stage configuration
	Prepare  PrepareConfig  `yaml:"prepare"`
	Lexical  LexicalConfig  `yaml:"lexical"`
	Dense    DenseConfig    `yaml:"dense"`
	Rerank   RerankConfig   `yaml:"rerank"`
	Evaluate EvaluateConfig `yaml:"evaluate"`
	Report   ReportConfig   `yaml:"report"`

	// External services
	Qdrant QdrantConfig `yaml:"qdrant"`
	LLM    LLMConfig    `yaml:"llm"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// PathsConfig holds the flat-file locations exchanged between stages.
type PathsConfig struct {
	RawData string `envconfig:"IRBENCH_RAW_DATA" yaml:"raw_data"`
	Corpus  string `envconfig:"IRBENCH_CORPUS" yaml:"corpus"`
	Queries string `envconfig:"IRBENCH_QUERIES" yaml:"queries"`
	Qrels   string `envconfig:"IRBENCH_QRELS" yaml:"qrels"`
}

// PrepareConfig selects the raw CSV columns.
type PrepareConfig struct {
	QueryColumn string `envconfig:"IRBENCH_QUERY_COLUMN" yaml:"query_column"`
	DocColumn   string `envconfig:"IRBENCH_DOC_COLUMN" yaml:"doc_column"`
}

// LexicalConfig holds BM25 baseline settings.
type LexicalConfig struct {
	TopN          int    `envconfig:"IRBENCH_LEXICAL_TOP_N" yaml:"top_n"`
	RunTag        string `envconfig:"IRBENCH_LEXICAL_RUN_TAG" yaml:"run_tag"`
	Output        string `envconfig:"IRBENCH_LEXICAL_OUTPUT" yaml:"output"`
	ProgressEvery int    `envconfig:"IRBENCH_LEXICAL_PROGRESS_EVERY" yaml:"progress_every"`
}

// DenseConfig holds sentence-embedding baseline settings.
type DenseConfig struct {
	Model        string `envconfig:"IRBENCH_DENSE_MODEL" yaml:"model"`
	ModelsDir    string `envconfig:"IRBENCH_MODELS_DIR" yaml:"models_dir"`
	OnnxFile     string `envconfig:"IRBENCH_DENSE_ONNX_FILE" yaml:"onnx_file"`
	BatchSize    int    `envconfig:"IRBENCH_DENSE_BATCH_SIZE" yaml:"batch_size"`
	TopN         int    `envconfig:"IRBENCH_DENSE_TOP_N" yaml:"top_n"`
	RunTag       string `envconfig:"IRBENCH_DENSE_RUN_TAG" yaml:"run_tag"`
	Output       string `envconfig:"IRBENCH_DENSE_OUTPUT" yaml:"output"`
	Index        string `envconfig:"IRBENCH_DENSE_INDEX" yaml:"index"` // memory or qdrant
	ShowProgress bool   `envconfig:"IRBENCH_DENSE_SHOW_PROGRESS" yaml:"show_progress"`
}

// QdrantConfig holds Qdrant connection settings for the qdrant dense index.
type QdrantConfig struct {
	Host       string        `envconfig:"QDRANT_HOST" yaml:"host"`
	Port       int           `envconfig:"QDRANT_PORT" yaml:"port"`
	APIKey     string        `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	UseTLS     bool          `envconfig:"QDRANT_USE_TLS" yaml:"use_tls"`
	Collection string        `envconfig:"QDRANT_COLLECTION" yaml:"collection"`
	Timeout    time.Duration `envconfig:"QDRANT_TIMEOUT" yaml:"timeout"`
}

// LLMConfig holds the generative-text service settings.
type LLMConfig struct {
	Provider    string        `envconfig:"IRBENCH_LLM_PROVIDER" yaml:"provider"` // gemini or openai
	APIKey      string        `envconfig:"GOOGLE_API_KEY" yaml:"-"`
	Model       string        `envconfig:"IRBENCH_LLM_MODEL" yaml:"model"`
	BaseURL     string        `envconfig:"IRBENCH_LLM_BASE_URL" yaml:"base_url"`
	Temperature float32       `envconfig:"IRBENCH_LLM_TEMPERATURE" yaml:"temperature"`
	MaxTokens   int           `envconfig:"IRBENCH_LLM_MAX_TOKENS" yaml:"max_tokens"`
	Timeout     time.Duration `envconfig:"IRBENCH_LLM_TIMEOUT" yaml:"timeout"`
}

// RerankConfig holds LLM reranking settings shared by both prompt modes.
type RerankConfig struct {
	Candidates      string           `envconfig:"IRBENCH_RERANK_CANDIDATES" yaml:"candidates"`
	TopK            int              `envconfig:"IRBENCH_RERANK_TOP_K" yaml:"top_k"`
	Backoff         time.Duration    `envconfig:"IRBENCH_RERANK_BACKOFF" yaml:"backoff"`
	MaxAttempts     int              `envconfig:"IRBENCH_RERANK_MAX_ATTEMPTS" yaml:"max_attempts"` // 0 = unbounded
	RequestInterval time.Duration    `envconfig:"IRBENCH_RERANK_REQUEST_INTERVAL" yaml:"request_interval"`
	Breaker         BreakerConfig    `yaml:"breaker"`
	ZeroShot        RerankModeConfig `yaml:"zero_shot"`
	FewShot         RerankModeConfig `yaml:"few_shot"`
}

// RerankModeConfig holds the settings that differ between prompt modes.
type RerankModeConfig struct {
	Limit    int    `yaml:"limit"`
	Truncate int    `yaml:"truncate"`
	RunTag   string `yaml:"run_tag"`
	Output   string `yaml:"output"`
}

// BreakerConfig configures the circuit breaker around the generator.
type BreakerConfig struct {
	Enabled          bool          `envconfig:"IRBENCH_BREAKER_ENABLED" yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	MinRequests      uint32        `yaml:"min_requests"`
	ReadyToTripRatio float64       `yaml:"ready_to_trip_ratio"`
}

// RunFile names a run file for evaluation.
type RunFile struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// EvaluateConfig holds evaluator settings.
type EvaluateConfig struct {
	Metrics      []string  `envconfig:"IRBENCH_METRICS" yaml:"metrics"`
	ZeroRelevant string    `envconfig:"IRBENCH_ZERO_RELEVANT" yaml:"zero_relevant"` // exclude or zero
	Runs         []RunFile `ignored:"true" yaml:"runs"`
	Results      string    `envconfig:"IRBENCH_RESULTS" yaml:"results"`
}

// ReportConfig holds chart settings.
type ReportConfig struct {
	Input        string   `yaml:"input"`
	Output       string   `envconfig:"IRBENCH_CHART" yaml:"output"`
	Metrics      []string `yaml:"metrics"`
	Title        string   `yaml:"title"`
	WidthInches  float64  `yaml:"width_inches"`
	HeightInches float64  `yaml:"height_inches"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"IRBENCH_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"IRBENCH_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from an optional YAML file, an optional .env file
// and environment variables, in increasing priority.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("IRBENCH_LLM_API_KEY")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Default returns a validated default configuration without consulting the
// environment.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func setDefaults(cfg *Config) {
	cfg.Paths = PathsConfig{
		RawData: "data/raw/raw_data.csv",
		Corpus:  "data/processed/corpus.jsonl",
		Queries: "data/processed/queries.jsonl",
		Qrels:   "data/processed/qrels.tsv",
	}

	cfg.Prepare = PrepareConfig{
		QueryColumn: "soru",
		DocColumn:   "cevap",
	}

	cfg.Lexical = LexicalConfig{
		TopN:          100,
		RunTag:        "BM25",
		Output:        "outputs/run_bm25.txt",
		ProgressEvery: 100,
	}

	cfg.Dense = DenseConfig{
		Model:        "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
		ModelsDir:    "./models",
		OnnxFile:     "onnx/model.onnx",
		BatchSize:    32,
		TopN:         100,
		RunTag:       "SBERT",
		Output:       "outputs/run_sbert.txt",
		Index:        "memory",
		ShowProgress: true,
	}

	cfg.Qdrant = QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "corpus",
		Timeout:    30 * time.Second,
	}

	cfg.LLM = LLMConfig{
		Provider:    "gemini",
		Model:       "gemini-2.0-flash",
		Temperature: 0,
		MaxTokens:   256,
		Timeout:     60 * time.Second,
	}

	cfg.Rerank = RerankConfig{
		Candidates:      "outputs/run_bm25.txt",
		TopK:            10,
		Backoff:         30 * time.Second,
		MaxAttempts:     0,
		RequestInterval: 1500 * time.Millisecond,
		Breaker: BreakerConfig{
			Enabled:          false,
			MaxRequests:      1,
			Interval:         0,
			Timeout:          60 * time.Second,
			MinRequests:      5,
			ReadyToTripRatio: 0.6,
		},
		ZeroShot: RerankModeConfig{
			Limit:    1500,
			Truncate: 1000,
			RunTag:   "GEMINI_ZERO",
			Output:   "outputs/run_gemini_zeroshot.txt",
		},
		FewShot: RerankModeConfig{
			Limit:    100,
			Truncate: 500,
			RunTag:   "GEMINI_FEWSHOT",
			Output:   "outputs/run_gemini_fewshot.txt",
		},
	}

	cfg.Evaluate = EvaluateConfig{
		Metrics:      []string{"map", "ndcg@10", "recall@10"},
		ZeroRelevant: "exclude",
		Runs: []RunFile{
			{Name: "BM25 (Baseline)", Path: "outputs/run_bm25.txt"},
			{Name: "S-BERT (Dense)", Path: "outputs/run_sbert.txt"},
			{Name: "Gemini (Zero-Shot)", Path: "outputs/run_gemini_zeroshot.txt"},
			{Name: "Gemini (Few-Shot)", Path: "outputs/run_gemini_fewshot.txt"},
		},
		Results: "outputs/results.json",
	}

	cfg.Report = ReportConfig{
		Input:        "outputs/results.json",
		Output:       "results_chart.png",
		Metrics:      []string{"map", "ndcg@10"},
		Title:        "Comparison of Retrieval Models on Turkish Law Dataset",
		WidthInches:  10,
		HeightInches: 6,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Lexical and dense validation
	if c.Lexical.TopN < 1 {
		errs = append(errs, "lexical.top_n must be positive")
	}

	if c.Dense.TopN < 1 {
		errs = append(errs, "dense.top_n must be positive")
	}

	if c.Dense.BatchSize < 1 {
		errs = append(errs, "dense.batch_size must be positive")
	}

	validIndexes := map[string]bool{"memory": true, "qdrant": true}
	if !validIndexes[c.Dense.Index] {
		errs = append(errs, fmt.Sprintf("invalid dense index: %s (must be memory or qdrant)", c.Dense.Index))
	}

	// LLM validation
	validProviders := map[string]bool{"gemini": true, "openai": true}
	if !validProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Sprintf("invalid llm provider: %s (must be gemini or openai)", c.LLM.Provider))
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}

	// Rerank validation
	if c.Rerank.TopK < 1 {
		errs = append(errs, "rerank.top_k must be positive")
	}

	if c.Rerank.MaxAttempts < 0 {
		errs = append(errs, "rerank.max_attempts must not be negative (0 = unbounded)")
	}

	if c.Rerank.Backoff < 0 || c.Rerank.RequestInterval < 0 {
		errs = append(errs, "rerank durations must not be negative")
	}

	for name, mode := range map[string]RerankModeConfig{"zero_shot": c.Rerank.ZeroShot, "few_shot": c.Rerank.FewShot} {
		if mode.Truncate < 1 {
			errs = append(errs, fmt.Sprintf("rerank.%s.truncate must be positive", name))
		}
		if mode.RunTag == "" || strings.ContainsAny(mode.RunTag, " \t") {
			errs = append(errs, fmt.Sprintf("rerank.%s.run_tag must be a single non-empty token", name))
		}
	}

	// Evaluate validation
	validPolicies := map[string]bool{"exclude": true, "zero": true}
	if !validPolicies[c.Evaluate.ZeroRelevant] {
		errs = append(errs, fmt.Sprintf("invalid evaluate.zero_relevant: %s (must be exclude or zero)", c.Evaluate.ZeroRelevant))
	}

	if len(c.Evaluate.Metrics) == 0 {
		errs = append(errs, "evaluate.metrics must not be empty")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RequireAPIKey fails with a ConfigurationError when no LLM credential is set.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	if c.LLM.Provider == "openai" && c.LLM.BaseURL != "" {
		// Local OpenAI-compatible servers usually accept any key.
		return nil
	}
	return apperrors.ConfigurationError("GOOGLE_API_KEY (or IRBENCH_LLM_API_KEY) not set in environment or .env file")
}

// Rerank prompt modes.
const (
	ModeZeroShot = "zero-shot"
	ModeFewShot  = "few-shot"
)

// NormalizeMode maps accepted spellings of a prompt mode to ModeZeroShot
// or ModeFewShot. Unknown modes return "".
func NormalizeMode(mode string) string {
	switch mode {
	case ModeZeroShot, "zeroshot", "zero_shot":
		return ModeZeroShot
	case ModeFewShot, "fewshot", "few_shot":
		return ModeFewShot
	}
	return ""
}

// RerankMode returns the settings for a prompt mode name.
func (c *Config) RerankMode(mode string) (RerankModeConfig, error) {
	switch NormalizeMode(mode) {
	case ModeZeroShot:
		return c.Rerank.ZeroShot, nil
	case ModeFewShot:
		return c.Rerank.FewShot, nil
	default:
		return RerankModeConfig{}, apperrors.ConfigurationError(fmt.Sprintf("unknown rerank mode %q (must be zero-shot or few-shot)", mode))
	}
}
