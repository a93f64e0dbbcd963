package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrInvalidWorkflow reports a workflow path that does not exist or is
// not a directory.
type ErrInvalidWorkflow struct {
	Path   string
	Reason string
}

func (e *ErrInvalidWorkflow) Error() string {
	return fmt.Sprintf("invalid workflow %s: %s", e.Path, e.Reason)
}

// ScanJobs returns every immediate subdirectory of workflowPath that
// contains .chiral/job.toml, sorted by name. Files and directories
// without the config are ignored.
func ScanJobs(workflowPath string) ([]JobFolder, error) {
	info, err := os.Stat(workflowPath)
	if err != nil {
		return nil, &ErrInvalidWorkflow{Path: workflowPath, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return nil, &ErrInvalidWorkflow{Path: workflowPath, Reason: "path is not a directory"}
	}

	entries, err := os.ReadDir(workflowPath)
	if err != nil {
		return nil, err
	}

	var jobs []JobFolder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		job := NewJobFolder(entry.Name(), filepath.Join(workflowPath, entry.Name()))
		if job.HasMeta() {
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs, nil
}

// IsJobFolder reports whether path is a directory with .chiral/job.toml.
func IsJobFolder(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	return NewJobFolder(filepath.Base(path), path).HasMeta()
}
