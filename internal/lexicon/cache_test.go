package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
)

type countingSource struct {
	Source
	has   atomic.Int64
	reads atomic.Int64
}

func (s *countingSource) Has(language string) bool {
	s.has.Add(1)
	return s.Source.Has(language)
}

func (s *countingSource) Read(language string) ([]byte, error) {
	s.reads.Add(1)
	return s.Source.Read(language)
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }
func (brokenSource) Has(string) bool { return true }
func (brokenSource) Read(string) ([]byte, error) { return nil, errors.New("disk on fire") }

type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (blockingSource) Name() string { return "blocking" }
func (blockingSource) Has(string) bool { return true }
func (s blockingSource) Read(string) ([]byte, error) {
	close(s.entered)
	<-s.release
	return []byte("the"), nil
}

func TestCacheMemoizesPerLanguage(t *testing.T) {
	src := &countingSource{Source: FS("mem", fstest.MapFS{
		"en": {Data: []byte("the a\nand   of\t")},
	}, ".")}
	cache := NewCache(Paths{Stopwords: []Source{src}}, nil)

	first := cache.Stopwords("en")
	second := cache.Stopwords("en")

	if first.Len() != 4 || !first.Has("the") || !first.Has("of") {
		t.Fatalf("unexpected stopwords %v", first.Words())
	}
	if got, want := second.Words(), first.Words(); len(got) != len(want) {
		t.Fatalf("second lookup differs: %v vs %v", got, want)
	}
	if src.has.Load() != 1 || src.reads.Load() != 1 {
		t.Fatalf("expected a single probe and read, got has=%d reads=%d", src.has.Load(), src.reads.Load())
	}
}

func TestCacheUnknownLanguageIsEmptyAndMemoized(t *testing.T) {
	src := &countingSource{Source: FS("mem", fstest.MapFS{"en": {Data: []byte("the")}}, ".")}
	cache := NewCache(Paths{Stopwords: []Source{src}}, nil)

	for i := 0; i < 3; i++ {
		if set := cache.Stopwords("zz"); set.Len() != 0 {
			t.Fatalf("expected empty set for unknown language, got %v", set.Words())
		}
	}
	if src.has.Load() != 1 {
		t.Fatalf("negative result should be cached, probed %d times", src.has.Load())
	}
	if src.reads.Load() != 0 {
		t.Fatalf("missing resource should never be read")
	}
}

func TestCacheSearchPathOrder(t *testing.T) {
	primary := FS("primary", fstest.MapFS{"de": {Data: []byte("der die das")}}, ".")
	fallback := &countingSource{Source: FS("fallback", fstest.MapFS{
		"de": {Data: []byte("und")},
		"en": {Data: []byte("the")},
	}, ".")}
	cache := NewCache(Paths{Stopwords: []Source{primary, fallback}}, nil)

	de := cache.Stopwords("de")
	if de.Len() != 3 || de.Has("und") {
		t.Fatalf("expected first matching source to win, got %v", de.Words())
	}
	if fallback.has.Load() != 0 {
		t.Fatalf("search should stop at the first source holding the resource")
	}
	if got := cache.SourceOf(KindStopwords, "de"); got != "primary" {
		t.Fatalf("expected source primary, got %q", got)
	}

	en := cache.Stopwords("en")
	if !en.Has("the") || cache.SourceOf(KindStopwords, "en") != "fallback" {
		t.Fatalf("expected fallback to serve en, got %v", en.Words())
	}
}

func TestCacheKindsAreIndependent(t *testing.T) {
	cache := NewCache(Paths{
		Stopwords:     []Source{FS("sw", fstest.MapFS{"en": {Data: []byte("us the")}}, ".")},
		AllowAcronyms: []Source{FS("ac", fstest.MapFS{"en": {Data: []byte("us uk")}}, ".")},
	}, nil)

	if cache.Stopwords("en").Has("uk") {
		t.Fatalf("stopwords leaked acronym entries")
	}
	if !cache.AllowAcronyms("en").Has("uk") || cache.AllowAcronyms("en").Has("the") {
		t.Fatalf("unexpected acronyms %v", cache.AllowAcronyms("en").Words())
	}
	if got := cache.Languages(KindAllowAcronyms); len(got) != 1 || got[0] != "en" {
		t.Fatalf("unexpected resolved acronyms %v", got)
	}
}

func TestCacheUnreadableResourceIsEmpty(t *testing.T) {
	cache := NewCache(Paths{Stopwords: []Source{brokenSource{}}}, nil)
	if set := cache.Stopwords("en"); set.Len() != 0 {
		t.Fatalf("expected empty set on read failure")
	}
}

func TestCacheConcurrentFirstAccessLoadsOnce(t *testing.T) {
	src := &countingSource{Source: FS("mem", fstest.MapFS{
		"en": {Data: []byte("the a")},
		"fr": {Data: []byte("le la les")},
	}, ".")}
	cache := NewCache(Paths{Stopwords: []Source{src}}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := "en"
			if i%2 == 1 {
				lang = "fr"
			}
			cache.Stopwords(lang)
		}(i)
	}
	wg.Wait()

	if got := src.reads.Load(); got != 2 {
		t.Fatalf("expected one read per language, got %d", got)
	}
}

func TestCacheSourceOfDuringFirstLookup(t *testing.T) {
	src := FS("mem", fstest.MapFS{"en": {Data: []byte("the a")}}, ".")
	cache := NewCache(Paths{Stopwords: []Source{src}}, nil)

	if got := cache.SourceOf(KindStopwords, "en"); got != "" {
		t.Fatalf("expected no source before first lookup, got %q", got)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.SourceOf(KindStopwords, "en")
		}()
		go func() {
			defer wg.Done()
			if set := cache.Stopwords("en"); set.Len() != 2 {
				t.Errorf("expected loaded stopwords, got %v", set.Words())
			}
		}()
	}
	wg.Wait()

	if got := cache.SourceOf(KindStopwords, "en"); got != "mem" {
		t.Fatalf("expected source mem, got %q", got)
	}
}

func TestCacheLanguagesSkipsLoadingEntries(t *testing.T) {
	src := blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	cache := NewCache(Paths{Stopwords: []Source{src}}, nil)

	done := make(chan Set)
	go func() { done <- cache.Stopwords("en") }()
	<-src.entered

	if got := cache.Languages(KindStopwords); len(got) != 0 {
		t.Fatalf("expected no languages while loading, got %v", got)
	}

	close(src.release)
	if set := <-done; !set.Has("the") {
		t.Fatalf("unexpected stopwords %v", set.Words())
	}
	if got := cache.Languages(KindStopwords); len(got) != 1 || got[0] != "en" {
		t.Fatalf("expected en after loading, got %v", got)
	}
}

func TestDirSourceRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en"), []byte("the"), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	src := Dir(dir)

	if !src.Has("en") {
		t.Fatalf("expected en to exist")
	}
	for _, lang := range []string{"", ".", "..", "../en", "a/b", `a\b`} {
		if src.Has(lang) {
			t.Fatalf("expected %q to be rejected", lang)
		}
	}
}

func TestBuiltinEnglish(t *testing.T) {
	cache := NewCache(DefaultPaths(), nil)

	if !cache.Stopwords("en").Has("the") {
		t.Fatalf("builtin stopwords should contain 'the'")
	}
	if !cache.AllowAcronyms("en").Has("us") {
		t.Fatalf("builtin acronyms should contain 'us'")
	}
	if cache.Stopwords("zz").Len() != 0 {
		t.Fatalf("unknown language should be empty")
	}
}

func TestSearchPathSkipsBlankDirs(t *testing.T) {
	sources := SearchPath(KindStopwords, []string{"", "  ", "/srv/lexicon"}, true)
	if len(sources) != 2 {
		t.Fatalf("expected configured dir plus builtin, got %d", len(sources))
	}
	if sources[0].Name() != "/srv/lexicon" || sources[1].Name() != "builtin:stopwords" {
		t.Fatalf("unexpected order %s, %s", sources[0].Name(), sources[1].Name())
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"stopwords", KindStopwords, false},
		{"Acronyms", KindAllowAcronyms, false},
		{"allow_acronyms", KindAllowAcronyms, false},
		{"verbs", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseKind(tc.in)
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}
