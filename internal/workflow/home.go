package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Home manages the directory under which workflow folders live.
// Its location comes from SILVA_HOME_DIR (default ./home).
type Home struct {
	Dir string
}

// NewHome creates a Home for the given directory.
func NewHome(dir string) Home {
	return Home{Dir: dir}
}

// EnsureExists creates the home directory if it is missing.
func (h Home) EnsureExists() error {
	return os.MkdirAll(h.Dir, 0o755)
}

// List returns every workflow folder in the home directory, sorted by
// name. Plain files are ignored.
func (h Home) List() ([]WorkflowFolder, error) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		return nil, err
	}

	var workflows []WorkflowFolder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		workflows = append(workflows, NewWorkflowFolder(entry.Name(), filepath.Join(h.Dir, entry.Name())))
	}

	sort.Slice(workflows, func(i, j int) bool { return workflows[i].Name < workflows[j].Name })
	return workflows, nil
}

// Resolve turns a workflow name or path into a WorkflowFolder. A name
// is looked up under the home directory; anything that stats as a
// directory is accepted as a path.
func (h Home) Resolve(nameOrPath string) (WorkflowFolder, error) {
	if info, err := os.Stat(nameOrPath); err == nil && info.IsDir() {
		abs, err := filepath.Abs(nameOrPath)
		if err != nil {
			return WorkflowFolder{}, err
		}
		return NewWorkflowFolder(filepath.Base(abs), abs), nil
	}

	path := filepath.Join(h.Dir, nameOrPath)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return NewWorkflowFolder(nameOrPath, path), nil
	}
	return WorkflowFolder{}, fmt.Errorf("workflow %q not found under %s", nameOrPath, h.Dir)
}
