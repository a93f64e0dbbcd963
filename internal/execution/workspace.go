package execution

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	cp "github.com/otiai10/copy"
)

// Workspace is the per-run materialised copy of a workflow folder. The
// engine only creates it; the owner of the handle decides when the
// directory is removed, so logs can keep referencing the path after
// the run ends.
type Workspace struct {
	Root string
}

// MaterializeWorkspace deep-copies the workflow folder's content into
// a fresh temp directory named silva-YYYY-MM-DD-HH-MM-SS-XXXXXX. The
// source folder is never mutated afterwards.
func MaterializeWorkspace(source string) (*Workspace, error) {
	stamp := time.Now().Format("2006-01-02-15-04-05")
	root, err := os.MkdirTemp("", fmt.Sprintf("silva-%s-", stamp))
	if err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	if err := cp.Copy(source, root, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction { return cp.Shallow },
	}); err != nil {
		os.RemoveAll(root)
		return nil, fmt.Errorf("copy workflow into workspace: %w", err)
	}
	return &Workspace{Root: root}, nil
}

// JobDir returns the workspace directory of a job.
func (w *Workspace) JobDir(jobName string) string {
	return filepath.Join(w.Root, jobName)
}

// Remove deletes the workspace directory.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Root)
}
