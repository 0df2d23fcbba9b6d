package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// File cache for markdown rendered on the entry detail page. Files are keyed
// by the entry slug plus an xxHash of the source text, so an edited entry gets
// a fresh key and a stale render can never be served.

// Dir is the cache root. Overridable so tests can point it at a temp dir.
var Dir = "cache"

func cachePath(slug, source string) string {
	return filepath.Join(Dir, fmt.Sprintf("%s_%016x.html", slug, xxhash.Sum64String(source)))
}

// Read returns the cached render of source, if one exists.
func Read(slug, source string) (string, bool) {
	content, err := os.ReadFile(cachePath(slug, source))
	if err != nil {
		return "", false
	}
	return string(content), true
}

// Write stores the rendered HTML for source.
func Write(slug, source, html string) error {
	if err := os.MkdirAll(Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(cachePath(slug, source), []byte(html), 0644)
}

// Clear removes every cached render for the slug, whatever source it came
// from. Called when an entry is edited or deleted.
func Clear(slug string) error {
	matches, err := filepath.Glob(filepath.Join(Dir, slug+"_*.html"))
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
