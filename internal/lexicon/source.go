package lexicon

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed data
var builtinData embed.FS

// Kind names one of the word lists a Cache manages.
type Kind string

const (
	KindStopwords     Kind = "stopwords"
	KindAllowAcronyms Kind = "allow_acronyms"
)

// ParseKind accepts the canonical kind names plus a couple of short aliases used by the CLI and API.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stopwords", "stopword":
		return KindStopwords, nil
	case "allow_acronyms", "acronyms", "allow-acronyms":
		return KindAllowAcronyms, nil
	default:
		return "", fmt.Errorf("unknown lexicon kind '%s'", raw)
	}
}

// Source is one location on a lexicon search path. A resource is identified by the language code alone.
type Source interface {
	Name() string
	Has(language string) bool
	Read(language string) ([]byte, error)
}

// fsSource resolves resources as files directly under root inside fsys.
type fsSource struct {
	name string
	fsys fs.FS
	root string
}

// FS returns a Source reading files named after the language code from root within fsys.
func FS(name string, fsys fs.FS, root string) Source {
	if root == "" {
		root = "."
	}
	return &fsSource{name: name, fsys: fsys, root: root}
}

// Dir returns a Source reading files from a directory on the local filesystem.
func Dir(dir string) Source {
	return FS(dir, os.DirFS(dir), ".")
}

// Builtin returns the Source backed by the word lists compiled into the binary.
func Builtin(kind Kind) Source {
	return FS("builtin:"+string(kind), builtinData, path.Join("data", string(kind)))
}

func (s *fsSource) Name() string { return s.name }

func (s *fsSource) Has(language string) bool {
	name, ok := s.resolve(language)
	if !ok {
		return false
	}
	info, err := fs.Stat(s.fsys, name)
	return err == nil && !info.IsDir()
}

func (s *fsSource) Read(language string) ([]byte, error) {
	name, ok := s.resolve(language)
	if !ok {
		return nil, fmt.Errorf("invalid language code '%s'", language)
	}
	content, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", language, s.name, err)
	}
	return content, nil
}

// resolve maps a language code onto a file name, refusing anything that could escape root.
func (s *fsSource) resolve(language string) (string, bool) {
	if language == "" || language == "." || language == ".." || strings.ContainsAny(language, `/\`) {
		return "", false
	}
	name := path.Join(s.root, language)
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// SearchPath builds the ordered source list for kind: configured directories first, then the builtin data.
func SearchPath(kind Kind, dirs []string, includeBuiltin bool) []Source {
	sources := make([]Source, 0, len(dirs)+1)
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		sources = append(sources, Dir(dir))
	}
	if includeBuiltin {
		sources = append(sources, Builtin(kind))
	}
	return sources
}
