package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/jobqueue-go/internal/schema"
	"github.com/nibzard/jobqueue-go/internal/store"
	"github.com/nibzard/jobqueue-go/internal/tracker"
)

// Bootstrap runs the first-run setup when the config file does not exist:
// it writes the config file, exports the schemas and creates empty
// documents referencing them. Existing files are never overwritten. It
// returns the paths it created.
func Bootstrap(ws *WithSources) ([]string, error) {
	if ws.Exists {
		return nil, nil
	}
	cfg := ws.Config

	if err := Save(ws.Path, cfg); err != nil {
		return nil, err
	}
	created := []string{ws.Path}
	ws.Exists = true
	file := *cfg
	ws.File = &file

	exported, err := schema.Export(cfg.Schemas, false)
	created = append(created, exported...)
	if err != nil {
		return created, err
	}

	docs := []struct {
		path  string
		empty any
		ref   schema.Name
	}{
		{cfg.JobQueue, &tracker.JobQueue{}, schema.JobQueue},
		{cfg.ProjectPool, &tracker.ProjectPool{}, schema.ProjectPool},
	}
	for _, doc := range docs {
		if err := os.MkdirAll(filepath.Dir(doc.path), 0755); err != nil {
			return created, fmt.Errorf("create document dir: %w", err)
		}
		ok, err := store.Create(doc.path, doc.empty, schema.FileURL(cfg.Schemas, doc.ref))
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, doc.path)
		}
	}
	return created, nil
}

// CheckError reports a file named by the config that does not exist.
type CheckError struct {
	ConfigPath string
	File       string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("Config at '%s'.\nFile '%s' in config does not exist", e.ConfigPath, e.File)
}

// Check verifies that every file the config names exists.
func Check(ws *WithSources) error {
	cfg := ws.Config
	files := []string{cfg.JobQueue, cfg.ProjectPool}
	for _, name := range schema.Names() {
		files = append(files, filepath.Join(cfg.Schemas, name.FileName()))
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &CheckError{ConfigPath: ws.Path, File: file}
			}
			return fmt.Errorf("check config file %s: %w", file, err)
		}
	}
	return nil
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

// Reconcile offers to persist each document path or editor override that
// differs from the config file. The overrides stay in effect for this run
// whatever the answer. It returns the keys written back.
func Reconcile(ctx context.Context, ws *WithSources, confirm ConfirmFunc) ([]string, error) {
	var updated []string
	for _, key := range reconcileKeys {
		source := ws.Sources[key]
		if source != SourceFlag && source != SourceEnv {
			continue
		}
		want, _ := ws.Config.Value(key)
		have, _ := ws.File.Value(key)
		if want == have {
			continue
		}

		ok, err := confirm(ctx, fmt.Sprintf("Supplied '%s' is different than in config. Want to update config?", key))
		if err != nil {
			return updated, err
		}
		if !ok {
			continue
		}
		for _, f := range ws.File.fields() {
			if f.key == key {
				*f.str = want
			}
		}
		updated = append(updated, key)
	}

	if len(updated) == 0 {
		return nil, nil
	}
	if err := Save(ws.Path, ws.File); err != nil {
		return updated, err
	}
	return updated, nil
}
