package lexicon

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Set is a read-only view of a resolved word list. The zero value is an empty set.
type Set struct {
	words map[string]struct{}
}

// NewSet builds a Set from the provided words as-is.
func NewSet(words ...string) Set {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return Set{words: set}
}

// Has reports whether word is a member of the set.
func (s Set) Has(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of entries.
func (s Set) Len() int {
	return len(s.words)
}

// Words returns the entries in lexical order. The slice is a copy.
func (s Set) Words() []string {
	words := make([]string, 0, len(s.words))
	for word := range s.words {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// Paths configures the ordered search path per kind.
type Paths struct {
	Stopwords     []Source
	AllowAcronyms []Source
}

// DefaultPaths searches only the builtin word lists.
func DefaultPaths() Paths {
	return Paths{
		Stopwords:     []Source{Builtin(KindStopwords)},
		AllowAcronyms: []Source{Builtin(KindAllowAcronyms)},
	}
}

type entryKey struct {
	kind     Kind
	language string
}

type entry struct {
	once     sync.Once
	resolved atomic.Bool
	set      Set
	source   string
}

// Cache lazily resolves and memoizes word lists per (kind, language).
// Each pair is resolved at most once for the lifetime of the cache, including negative results.
type Cache struct {
	paths   map[Kind][]Source
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[entryKey]*entry
}

// NewCache constructs a cache over the supplied search paths.
func NewCache(paths Paths, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		paths: map[Kind][]Source{
			KindStopwords:     append([]Source(nil), paths.Stopwords...),
			KindAllowAcronyms: append([]Source(nil), paths.AllowAcronyms...),
		},
		logger:  logger,
		entries: make(map[entryKey]*entry),
	}
}

// Stopwords returns the stopword set for language, resolving it on first use.
func (c *Cache) Stopwords(language string) Set {
	return c.Lookup(KindStopwords, language)
}

// AllowAcronyms returns the short-token allow-list for language, resolving it on first use.
func (c *Cache) AllowAcronyms(language string) Set {
	return c.Lookup(KindAllowAcronyms, language)
}

// Lookup returns the set for (kind, language). Unknown languages and missing resources yield an empty set.
func (c *Cache) Lookup(kind Kind, language string) Set {
	key := entryKey{kind: kind, language: language}

	// The table lock is held only long enough to find or create the entry; loading happens under the
	// entry's own once so other languages proceed in parallel.
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	c.load(e, key)
	return e.set
}

func (c *Cache) load(e *entry, key entryKey) {
	e.once.Do(func() {
		e.set, e.source = c.resolve(key.kind, key.language)
		e.resolved.Store(true)
	})
}

// Languages lists the languages whose lookup for kind has completed, in lexical order.
// Misses count once resolved; entries still loading are left out.
func (c *Cache) Languages(kind Kind) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	languages := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if key.kind == kind && e.resolved.Load() {
			languages = append(languages, key.language)
		}
	}
	sort.Strings(languages)
	return languages
}

// SourceOf reports which source satisfied (kind, language), or "" when none did or it is unresolved.
func (c *Cache) SourceOf(kind Kind, language string) string {
	key := entryKey{kind: kind, language: language}
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return ""
	}
	c.load(e, key)
	return e.source
}

func (c *Cache) resolve(kind Kind, language string) (Set, string) {
	start := time.Now()
	for _, src := range c.paths[kind] {
		if !src.Has(language) {
			continue
		}

		content, err := src.Read(language)
		if err != nil {
			c.logger.Warn("lexicon unreadable, using empty set", "kind", kind, "language", language, "source", src.Name(), "error", err)
			return Set{}, ""
		}

		set := NewSet(strings.Fields(string(content))...)
		c.logger.Debug("lexicon resolved", "kind", kind, "language", language, "source", src.Name(), "entries", set.Len(), "duration_ms", time.Since(start).Milliseconds())
		return set, src.Name()
	}

	c.logger.Debug("lexicon not found, using empty set", "kind", kind, "language", language, "sources", len(c.paths[kind]))
	return Set{}, ""
}
