package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Hashing.Language != "en" || !cfg.StemmingEnabled() || cfg.NormalizeUnicode() {
		t.Fatalf("unexpected hashing defaults %+v", cfg.Hashing)
	}
	if !cfg.IncludeBuiltin() || !cfg.MetricsEnabled() || !cfg.RequestLogsEnabled() {
		t.Fatalf("unexpected toggles %+v", cfg)
	}
}

func TestLoadTOMLMergesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordhash.toml")
	content := `
[server]
listen = ":9090"

[lexicon]
stopwords_path = ["/etc/wordhash/stopwords", "/usr/share/wordhash/stopwords"]
disable_builtin = true

[hashing]
language = "fr"
stemming = false

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}

	if cfg.Server.Listen != ":9090" {
		t.Errorf("expected listen override, got %s", cfg.Server.Listen)
	}
	if want := []string{"/etc/wordhash/stopwords", "/usr/share/wordhash/stopwords"}; !reflect.DeepEqual(cfg.Lexicon.StopwordsPath, want) {
		t.Errorf("expected stopwords path %v got %v", want, cfg.Lexicon.StopwordsPath)
	}
	if cfg.IncludeBuiltin() {
		t.Errorf("expected builtin lexicons disabled")
	}
	if cfg.Hashing.Language != "fr" || cfg.StemmingEnabled() {
		t.Errorf("unexpected hashing %+v", cfg.Hashing)
	}
	if cfg.Hashing.StemmerLanguage != "english" {
		t.Errorf("expected untouched stemmer language, got %s", cfg.Hashing.StemmerLanguage)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("expected debug level got %v", level)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordhash.yaml")
	content := `
hashing:
  normalize_unicode: true
journal:
  dir: /var/lib/wordhash
metrics:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if !cfg.NormalizeUnicode() || cfg.MetricsEnabled() {
		t.Fatalf("unexpected toggles %+v", cfg)
	}
	if cfg.Journal.Dir != "/var/lib/wordhash" {
		t.Fatalf("expected journal dir, got %q", cfg.Journal.Dir)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "config.json", "{}"},
		{"bad toml", "config.toml", "[server"},
		{"bad level", "config.toml", "[logging]\nlevel = \"loud\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnvPrependsLexiconPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lexicon.StopwordsPath = []string{"/from/file"}

	env := map[string]string{
		"WORDHASH_STOPWORDS_PATH":      "/a" + string(os.PathListSeparator) + "/b",
		"WORDHASH_ALLOW_ACRONYMS_PATH": "/c",
		"WORDHASH_JOURNAL_DIR":         "/journal",
	}
	cfg.ApplyEnv(func(key string) string { return env[key] })

	if want := []string{"/a", "/b", "/from/file"}; !reflect.DeepEqual(cfg.Lexicon.StopwordsPath, want) {
		t.Fatalf("expected %v got %v", want, cfg.Lexicon.StopwordsPath)
	}
	if want := []string{"/c"}; !reflect.DeepEqual(cfg.Lexicon.AllowAcronymsPath, want) {
		t.Fatalf("expected %v got %v", want, cfg.Lexicon.AllowAcronymsPath)
	}
	if cfg.Journal.Dir != "/journal" {
		t.Fatalf("expected journal dir override")
	}
}
