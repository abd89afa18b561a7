package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nibzard/jobqueue-go/internal/editor"
	"github.com/nibzard/jobqueue-go/internal/schema"
	"github.com/nibzard/jobqueue-go/internal/store"
	"github.com/nibzard/jobqueue-go/internal/tracker"
	"github.com/nibzard/jobqueue-go/internal/utils"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, editor, schemas and both documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			return doctor(cmd.OutOrStdout(), ws)
		},
	}
}

// doctor prints one section per check and fails if any check failed.
func doctor(w io.Writer, ws *workspace) error {
	cfg := ws.Config

	fmt.Fprintln(w, "JobQueue Doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	// Check config file
	fmt.Fprintf(w, "Config file: %s\n", ws.Path)
	if ws.Exists {
		fmt.Fprintln(w, "  ✅ OK")
	} else {
		fmt.Fprintln(w, "  ⚠️  Not found (will be created on first run)")
	}
	fmt.Fprintln(w)

	// Check editor
	fmt.Fprintln(w, "Editor:")
	command := editor.Resolve(cfg.Editor)
	if args, err := utils.SplitCommand(command); err != nil {
		fmt.Fprintf(w, "  ❌ command %q: %v\n", command, err)
		allOK = false
	} else if len(args) > 0 {
		if !checkBinary(w, "command", args[0], true) {
			allOK = false
		}
	}
	fmt.Fprintln(w)

	// Check schemas
	fmt.Fprintf(w, "Schemas directory: %s\n", cfg.Schemas)
	for _, name := range schema.Names() {
		path := filepath.Join(cfg.Schemas, name.FileName())
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintf(w, "  ⚠️  %s: not found (run 'jobqueue schemas')\n", name.FileName())
			} else {
				fmt.Fprintf(w, "  ❌ %s: %v\n", name.FileName(), err)
				allOK = false
			}
			continue
		}
		fmt.Fprintf(w, "  ✅ %s\n", name.FileName())
	}
	fmt.Fprintln(w)

	// Check documents
	set := schema.Default()
	queue, ok := checkDocument[tracker.JobQueue](w, "Job queue", cfg.JobQueue, set.Get(schema.JobQueue))
	allOK = allOK && ok
	pool, ok := checkDocument[tracker.ProjectPool](w, "Project pool", cfg.ProjectPool, set.Get(schema.ProjectPool))
	allOK = allOK && ok

	if queue != nil && pool != nil {
		fmt.Fprintln(w, "References:")
		problems := tracker.Check(queue.Data.Queue, pool.Data.Pool)
		for _, p := range problems {
			fmt.Fprintf(w, "  ❌ %v\n", p)
		}
		if len(problems) == 0 {
			fmt.Fprintln(w, "  ✅ OK")
		} else {
			allOK = false
		}
		fmt.Fprintln(w)
	}

	// Overall status
	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// checkDocument loads one document and prints the outcome. The document is
// nil when it could not be loaded.
func checkDocument[T any](w io.Writer, label, path string, sch *schema.Schema) (*store.Document[T], bool) {
	fmt.Fprintf(w, "%s: %s\n", label, path)
	doc, err := store.Load[T](path, sch)
	if err != nil {
		var sve *store.SchemaValidationError
		switch {
		case errors.As(err, &sve):
			fmt.Fprintln(w, "  ❌ Validation failed:")
			for _, issue := range sve.Err.Issues {
				fmt.Fprintf(w, "     - %s\n", issue)
			}
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintln(w, "  ❌ Not found")
		default:
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		}
		fmt.Fprintln(w)
		return nil, false
	}
	fmt.Fprintln(w, "  ✅ Valid")
	if doc.SchemaRef != "" {
		fmt.Fprintf(w, "  $schema: %s\n", doc.SchemaRef)
	}
	fmt.Fprintln(w)
	return doc, true
}

func checkBinary(w io.Writer, label, binary string, required bool) bool {
	fmt.Fprintf(w, "  %s: %s\n", label, binary)
	if strings.TrimSpace(binary) == "" {
		if required {
			fmt.Fprintln(w, "  ❌ Not configured")
			return false
		}
		fmt.Fprintln(w, "  ⚠️  Not configured")
		return true
	}
	if info, err := os.Stat(binary); err == nil {
		if info.IsDir() {
			fmt.Fprintln(w, "  ❌ Path is a directory")
			return !required
		}
		if !isExecutablePath(binary, info) {
			fmt.Fprintln(w, "  ❌ Not executable")
			return !required
		}
		fmt.Fprintln(w, "  ✅ OK")
		return true
	}

	resolved, err := exec.LookPath(binary)
	if err == nil {
		fmt.Fprintf(w, "  ✅ OK (found in PATH: %s)\n", resolved)
		return true
	}

	if required {
		fmt.Fprintf(w, "  ❌ Not found: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  ⚠️  Not found: %v\n", err)
	return true
}

func isExecutablePath(path string, info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return isWindowsExecutable(path)
	}
	return info.Mode().Perm()&0111 != 0
}

func isWindowsExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return windowsExecutableExts()[ext]
}

func windowsExecutableExts() map[string]bool {
	exts := map[string]bool{}
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}
	for _, ext := range strings.Split(pathext, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}
	return exts
}
