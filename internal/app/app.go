// Package app assembles the lexicon cache, hasher and journal from an AppConfig.
package app

import (
	"fmt"
	"log/slog"

	"wordhash/internal/config"
	"wordhash/internal/hasher"
	"wordhash/internal/journal"
	"wordhash/internal/lexicon"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config  config.AppConfig
	Lexicon *lexicon.Cache
	Hasher  *hasher.Hasher
	Journal *journal.Journal
}

// New builds the components. The journal is only opened when Journal.Dir is configured.
func New(cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !hasher.ValidLanguage(cfg.Hashing.Language) {
		return nil, fmt.Errorf("invalid hashing language '%s'", cfg.Hashing.Language)
	}

	builtin := cfg.IncludeBuiltin()
	cache := lexicon.NewCache(lexicon.Paths{
		Stopwords:     lexicon.SearchPath(lexicon.KindStopwords, cfg.Lexicon.StopwordsPath, builtin),
		AllowAcronyms: lexicon.SearchPath(lexicon.KindAllowAcronyms, cfg.Lexicon.AllowAcronymsPath, builtin),
	}, logger.With("component", "lexicon"))

	h := hasher.New(cache, hasher.NewSnowball(cfg.Hashing.StemmerLanguage), hasher.Options{
		Language:         cfg.Hashing.Language,
		Stemming:         cfg.StemmingEnabled(),
		NormalizeUnicode: cfg.NormalizeUnicode(),
	})

	a := &App{Config: cfg, Lexicon: cache, Hasher: h}
	if cfg.Journal.Dir != "" {
		j, size, err := journal.Open(cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("journal opened", "path", j.Path(), "offset", size)
		a.Journal = j
	}
	return a, nil
}

// Close releases the journal, if any.
func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}
