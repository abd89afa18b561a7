package schema

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Export writes every embedded schema into dir as <name>.schema.json.
// Existing files are left alone unless force is set. It returns the paths
// that were written.
func Export(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create schemas dir: %w", err)
	}

	var written []string
	for _, name := range Names() {
		path := filepath.Join(dir, name.FileName())
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		data, err := Raw(name)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("write schema %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// FileURL returns the file:// URL of an exported schema, the form stored in
// a document's $schema tag.
func FileURL(dir string, name Name) string {
	abs, err := filepath.Abs(filepath.Join(dir, name.FileName()))
	if err != nil {
		abs = filepath.Join(dir, name.FileName())
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
