// Package hasher turns free text into token frequency maps suitable as classifier features.
package hasher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"wordhash/internal/lexicon"
)

const (
	DefaultLanguage = "en"
	minWordLength   = 3

	// MaxLanguageLength bounds the codes accepted by ValidLanguage.
	MaxLanguageLength = 16
)

// Lexicons supplies the per-language word lists consulted while filtering words.
type Lexicons interface {
	Stopwords(language string) lexicon.Set
	AllowAcronyms(language string) lexicon.Set
}

// Options are the defaults applied by Hash and HashClean.
type Options struct {
	Language         string
	Stemming         bool
	NormalizeUnicode bool
}

// DefaultOptions hashes English text with stemming enabled.
func DefaultOptions() Options {
	return Options{Language: DefaultLanguage, Stemming: true}
}

// Hasher derives frequency maps from text. It is safe for concurrent use when its Lexicons and Stemmer are.
type Hasher struct {
	lexicons Lexicons
	stemmer  Stemmer
	defaults Options
}

// New wires a hasher. A nil stemmer selects English snowball stemming.
func New(lexicons Lexicons, stemmer Stemmer, defaults Options) *Hasher {
	if stemmer == nil {
		stemmer = NewSnowball("english")
	}
	if defaults.Language == "" {
		defaults.Language = DefaultLanguage
	}
	return &Hasher{lexicons: lexicons, stemmer: stemmer, defaults: defaults}
}

// Defaults returns the options used by Hash and HashClean.
func (h *Hasher) Defaults() Options {
	return h.defaults
}

// Hash is WordHash with the configured defaults.
func (h *Hasher) Hash(text string) FrequencyMap {
	return h.WordHash(text, h.defaults.Language, h.defaults.Stemming)
}

// HashClean is CleanWordHash with the configured defaults.
func (h *Hasher) HashClean(text string) FrequencyMap {
	return h.CleanWordHash(text, h.defaults.Language, h.defaults.Stemming)
}

// WordHash counts the filtered words of text together with every symbol character it contains.
// A word and a symbol sharing the same key have their counts summed.
func (h *Hasher) WordHash(text, lang string, stemming bool) FrequencyMap {
	text = h.normalize(text)
	words := h.wordHashForWords(strings.Fields(CleanText(text)), lang, stemming)
	return words.Merge(WordHashForSymbols(Symbols(text)))
}

// CleanWordHash counts only the filtered words of text, with punctuation and symbols removed.
func (h *Hasher) CleanWordHash(text, lang string, stemming bool) FrequencyMap {
	return h.wordHashForWords(strings.Fields(CleanText(h.normalize(text))), lang, stemming)
}

// WordHashForWords counts the words that pass the length, stopword and acronym rules.
func (h *Hasher) WordHashForWords(words []string, lang string, stemming bool) FrequencyMap {
	return h.wordHashForWords(words, lang, stemming)
}

func (h *Hasher) wordHashForWords(words []string, lang string, stemming bool) FrequencyMap {
	freq := make(FrequencyMap)
	if len(words) == 0 {
		return freq
	}

	stopwords := h.lexicons.Stopwords(lang)
	acronyms := h.lexicons.AllowAcronyms(lang)
	lower := cases.Lower(languageTag(lang))

	for _, word := range words {
		lowered := lower.String(word)
		// An allow-listed acronym is kept even when it is short or a stopword.
		keep := (utf8.RuneCountInString(word) >= minWordLength && !stopwords.Has(lowered)) || acronyms.Has(lowered)
		if !keep {
			continue
		}

		token := lowered
		if stemming {
			token = h.stemmer.Stem(lowered)
		}
		freq[token]++
	}
	return freq
}

// WordHashForSymbols counts each entry verbatim.
func WordHashForSymbols(symbols []string) FrequencyMap {
	freq := make(FrequencyMap, len(symbols))
	for _, symbol := range symbols {
		freq[symbol]++
	}
	return freq
}

// Symbols returns every rune of text that is neither whitespace nor a word character, in order.
// Bytes that are not valid UTF-8 are skipped; an encoded U+FFFD is still a symbol.
func Symbols(text string) []string {
	var symbols []string
	for i, r := range text {
		if unicode.IsSpace(r) || isWordRune(r) {
			continue
		}
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		symbols = append(symbols, string(r))
	}
	return symbols
}

// CleanText drops every rune that is neither whitespace nor a word character, invalid UTF-8 included.
// Nothing is put in its place, so "wait...what" becomes "waitwhat".
func CleanText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || isWordRune(r) {
			return r
		}
		return -1
	}, text)
}

// isWordRune matches letters, combining marks, decimal digits and connector punctuation such as '_'.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.Is(unicode.M, r) ||
		unicode.Is(unicode.Nd, r) ||
		unicode.Is(unicode.Pc, r)
}

func (h *Hasher) normalize(text string) string {
	if !h.defaults.NormalizeUnicode {
		return text
	}
	return norm.NFC.String(text)
}

// ValidLanguage reports whether code is a short, well-formed and registered BCP 47 tag such as "en" or "pt-BR".
// Callers taking codes from untrusted input check it before resolving lexicons, since every code is cached.
func ValidLanguage(code string) bool {
	if code == "" || len(code) > MaxLanguageLength {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// languageTag falls back to the undetermined tag so unknown codes still lowercase with the root rules.
func languageTag(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return tag
}
