package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vytor/blundercheck/internal/analysis"
)

// DefaultConfigFile is read when present; its absence is not an error.
const DefaultConfigFile = "config.toml"

type Config struct {
	StockfishPath    string
	StockfishDepth   int
	StockfishThreads int
	StockfishTimeout time.Duration
	WDLModel         string
	LogLevel         string
	Color            string
	PlayerName       string
	PlotCSV          string
	PlotYAML         string
	DBPath           string
	AssessmentPolicy string
	MistakeThreshold float64
	BlunderThreshold float64
}

// Load reads configuration from a .env file (if present), then the TOML
// config file at path for file-based defaults, then environment variables,
// which win over both.
func Load(path string) (Config, error) {
	// Ignore error so the tool still starts when .env is absent.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("stockfish_path", "stockfish")
	v.SetDefault("stockfish_depth", 18)
	v.SetDefault("stockfish_threads", 1)
	v.SetDefault("stockfish_timeout", 60)
	v.SetDefault("wdl_model", analysis.DefaultModel)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("color", "")
	v.SetDefault("player_name", "")
	v.SetDefault("plot_csv", "plot.csv")
	v.SetDefault("plot_yaml", "")
	v.SetDefault("db_path", "")
	v.SetDefault("assessment_policy", analysis.PolicyDirectional.String())
	v.SetDefault("mistake_threshold", analysis.DefaultMistakeThreshold)
	v.SetDefault("blunder_threshold", analysis.DefaultBlunderThreshold)

	if path == "" {
		path = DefaultConfigFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || path != DefaultConfigFile {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return Config{
		StockfishPath:    envOr("STOCKFISH_PATH", v.GetString("stockfish_path")),
		StockfishDepth:   envIntOr("STOCKFISH_DEPTH", v.GetInt("stockfish_depth")),
		StockfishThreads: envIntOr("STOCKFISH_THREADS", v.GetInt("stockfish_threads")),
		StockfishTimeout: time.Duration(envIntOr("STOCKFISH_TIMEOUT", v.GetInt("stockfish_timeout"))) * time.Second,
		WDLModel:         envOr("WDL_MODEL", v.GetString("wdl_model")),
		LogLevel:         envOr("LOG_LEVEL", v.GetString("log_level")),
		Color:            envOr("ANALYZE_COLOR", v.GetString("color")),
		PlayerName:       envOr("PLAYER_NAME", v.GetString("player_name")),
		PlotCSV:          envOr("PLOT_CSV", v.GetString("plot_csv")),
		PlotYAML:         envOr("PLOT_YAML", v.GetString("plot_yaml")),
		DBPath:           envOr("DB_PATH", v.GetString("db_path")),
		AssessmentPolicy: envOr("ASSESSMENT_POLICY", v.GetString("assessment_policy")),
		MistakeThreshold: envFloatOr("MISTAKE_THRESHOLD", v.GetFloat64("mistake_threshold")),
		BlunderThreshold: envFloatOr("BLUNDER_THRESHOLD", v.GetFloat64("blunder_threshold")),
	}, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.StockfishDepth < 1 || c.StockfishDepth > 30 {
		return fmt.Errorf("STOCKFISH_DEPTH must be between 1 and 30, got %d", c.StockfishDepth)
	}
	if c.StockfishThreads < 1 {
		return fmt.Errorf("STOCKFISH_THREADS must be at least 1, got %d", c.StockfishThreads)
	}
	if c.StockfishTimeout < 0 {
		return fmt.Errorf("STOCKFISH_TIMEOUT cannot be negative")
	}
	if _, err := analysis.ModelByName(c.WDLModel); err != nil {
		return fmt.Errorf("WDL_MODEL: %w", err)
	}
	if _, err := analysis.ParsePolicy(c.AssessmentPolicy); err != nil {
		return fmt.Errorf("ASSESSMENT_POLICY: %w", err)
	}
	if c.Color != "" {
		if _, err := analysis.ParseColor(c.Color); err != nil {
			return fmt.Errorf("ANALYZE_COLOR: %w", err)
		}
	}
	if c.MistakeThreshold <= 0 || c.MistakeThreshold >= c.BlunderThreshold {
		return fmt.Errorf("MISTAKE_THRESHOLD must be positive and below BLUNDER_THRESHOLD (%v >= %v)",
			c.MistakeThreshold, c.BlunderThreshold)
	}
	if c.BlunderThreshold > 1 {
		return fmt.Errorf("BLUNDER_THRESHOLD must be at most 1, got %v", c.BlunderThreshold)
	}
	if strings.TrimSpace(c.PlotCSV) == "" {
		return fmt.Errorf("PLOT_CSV cannot be empty")
	}
	return nil
}

// Model resolves the configured WDL model.
func (c Config) Model() (analysis.WDLModel, error) {
	return analysis.ModelByName(c.WDLModel)
}

// Classifier builds the move classifier from the thresholds and policy.
func (c Config) Classifier() (analysis.Classifier, error) {
	policy, err := analysis.ParsePolicy(c.AssessmentPolicy)
	if err != nil {
		return analysis.Classifier{}, err
	}
	return analysis.Classifier{
		MistakeThreshold: c.MistakeThreshold,
		BlunderThreshold: c.BlunderThreshold,
		Policy:           policy,
	}, nil
}

// Engine returns the engine process settings.
func (c Config) Engine() analysis.EngineConfig {
	return analysis.EngineConfig{
		Path:        c.StockfishPath,
		Threads:     c.StockfishThreads,
		EvalTimeout: c.StockfishTimeout,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
