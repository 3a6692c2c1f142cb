package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppConfig captures configuration for the server, lexicon search paths, and hashing defaults.
type AppConfig struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Lexicon LexiconConfig `toml:"lexicon" yaml:"lexicon"`
	Hashing HashingConfig `toml:"hashing" yaml:"hashing"`
	Journal JournalConfig `toml:"journal" yaml:"journal"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// ServerConfig controls network settings.
type ServerConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
}

// LexiconConfig lists directories searched, in order, before the builtin word lists.
type LexiconConfig struct {
	StopwordsPath     []string `toml:"stopwords_path" yaml:"stopwords_path"`
	AllowAcronymsPath []string `toml:"allow_acronyms_path" yaml:"allow_acronyms_path"`
	DisableBuiltin    *bool    `toml:"disable_builtin" yaml:"disable_builtin"`
}

// HashingConfig provides the defaults applied when a request omits them.
type HashingConfig struct {
	Language         string `toml:"language" yaml:"language"`
	Stemming         *bool  `toml:"stemming" yaml:"stemming"`
	StemmerLanguage  string `toml:"stemmer_language" yaml:"stemmer_language"`
	NormalizeUnicode *bool  `toml:"normalize_unicode" yaml:"normalize_unicode"`
}

// JournalConfig enables the hashed-document journal when Dir is set.
type JournalConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

// LoggingConfig controls log verbosity and per-request logs.
type LoggingConfig struct {
	Level       string `toml:"level" yaml:"level"`
	RequestLogs *bool  `toml:"request_logs" yaml:"request_logs"`
}

// MetricsConfig enables counters/telemetry endpoints.
type MetricsConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the baseline configuration used when no file is supplied.
func DefaultConfig() AppConfig {
	return AppConfig{
		Server:  ServerConfig{Listen: ":8080"},
		Lexicon: LexiconConfig{DisableBuiltin: boolPtr(false)},
		Hashing: HashingConfig{
			Language:         "en",
			Stemming:         boolPtr(true),
			StemmerLanguage:  "english",
			NormalizeUnicode: boolPtr(false),
		},
		Logging: LoggingConfig{Level: "info", RequestLogs: boolPtr(true)},
		Metrics: MetricsConfig{Enabled: boolPtr(true)},
	}
}

// Load reads the provided config path, merging it onto the defaults.
func Load(path string) (AppConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var fileCfg AppConfig
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return AppConfig{}, errors.New("config file must be .toml, .yaml, or .yml")
	}

	merged := mergeConfig(cfg, fileCfg)
	if _, err := merged.LogLevel(); err != nil {
		return AppConfig{}, err
	}
	return merged, nil
}

// ApplyEnv overlays environment overrides. Lexicon paths from the environment are searched first.
func (cfg *AppConfig) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if raw := getenv("WORDHASH_STOPWORDS_PATH"); raw != "" {
		cfg.Lexicon.StopwordsPath = append(filepath.SplitList(raw), cfg.Lexicon.StopwordsPath...)
	}
	if raw := getenv("WORDHASH_ALLOW_ACRONYMS_PATH"); raw != "" {
		cfg.Lexicon.AllowAcronymsPath = append(filepath.SplitList(raw), cfg.Lexicon.AllowAcronymsPath...)
	}
	if dir := getenv("WORDHASH_JOURNAL_DIR"); dir != "" {
		cfg.Journal.Dir = dir
	}
}

func mergeConfig(base, override AppConfig) AppConfig {
	if override.Server.Listen != "" {
		base.Server.Listen = override.Server.Listen
	}

	if len(override.Lexicon.StopwordsPath) > 0 {
		base.Lexicon.StopwordsPath = override.Lexicon.StopwordsPath
	}
	if len(override.Lexicon.AllowAcronymsPath) > 0 {
		base.Lexicon.AllowAcronymsPath = override.Lexicon.AllowAcronymsPath
	}
	if override.Lexicon.DisableBuiltin != nil {
		base.Lexicon.DisableBuiltin = override.Lexicon.DisableBuiltin
	}

	if override.Hashing.Language != "" {
		base.Hashing.Language = override.Hashing.Language
	}
	if override.Hashing.Stemming != nil {
		base.Hashing.Stemming = override.Hashing.Stemming
	}
	if override.Hashing.StemmerLanguage != "" {
		base.Hashing.StemmerLanguage = override.Hashing.StemmerLanguage
	}
	if override.Hashing.NormalizeUnicode != nil {
		base.Hashing.NormalizeUnicode = override.Hashing.NormalizeUnicode
	}

	if override.Journal.Dir != "" {
		base.Journal.Dir = override.Journal.Dir
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.RequestLogs != nil {
		base.Logging.RequestLogs = override.Logging.RequestLogs
	}

	if override.Metrics.Enabled != nil {
		base.Metrics.Enabled = override.Metrics.Enabled
	}

	return base
}

// LogLevel parses Logging.Level into a slog level.
func (cfg AppConfig) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level '%s': %w", cfg.Logging.Level, err)
	}
	return level, nil
}

// IncludeBuiltin reports whether the builtin word lists end each search path.
func (cfg AppConfig) IncludeBuiltin() bool {
	return !isTrue(cfg.Lexicon.DisableBuiltin)
}

// StemmingEnabled reports the default stemming setting.
func (cfg AppConfig) StemmingEnabled() bool {
	return cfg.Hashing.Stemming == nil || *cfg.Hashing.Stemming
}

// NormalizeUnicode reports whether input text is NFC-normalized before hashing.
func (cfg AppConfig) NormalizeUnicode() bool {
	return isTrue(cfg.Hashing.NormalizeUnicode)
}

// RequestLogsEnabled reports whether each HTTP request is logged.
func (cfg AppConfig) RequestLogsEnabled() bool {
	return cfg.Logging.RequestLogs == nil || *cfg.Logging.RequestLogs
}

// MetricsEnabled reports whether telemetry is collected and exposed.
func (cfg AppConfig) MetricsEnabled() bool {
	return isTrue(cfg.Metrics.Enabled)
}

func isTrue(v *bool) bool {
	return v != nil && *v
}

func boolPtr(v bool) *bool {
	return &v
}
