package hasher

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a lowercase word to its stem. Implementations must be deterministic and total.
type Stemmer interface {
	Stem(word string) string
}

// StemmerFunc adapts a plain function to the Stemmer interface.
type StemmerFunc func(word string) string

// Stem calls f(word).
func (f StemmerFunc) Stem(word string) string {
	return f(word)
}

// Identity leaves words untouched; useful when callers want stemming plumbing without a real algorithm.
var Identity Stemmer = StemmerFunc(func(word string) string { return word })

// snowballLanguages maps short codes onto the algorithm names understood by the snowball package.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"nb": "norwegian",
	"hu": "hungarian",
}

// Snowball stems with the Snowball algorithm for a single language.
type Snowball struct {
	language string
}

// NewSnowball accepts either an algorithm name ("english") or a short code ("en").
// Unsupported languages still produce a usable stemmer that returns words unchanged.
func NewSnowball(language string) Snowball {
	language = strings.ToLower(strings.TrimSpace(language))
	if name, ok := snowballLanguages[language]; ok {
		language = name
	}
	return Snowball{language: language}
}

// Language returns the algorithm name in use.
func (s Snowball) Language() string {
	return s.language
}

// Stem returns the snowball stem of word, or word itself if the algorithm rejects it.
func (s Snowball) Stem(word string) string {
	stemmed, err := snowball.Stem(word, s.language, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}
