package workflow

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"silva/internal/jobconfig"
)

const (
	chiralDir          = ".chiral"
	jobMetaFile        = "job.toml"
	workflowMetaFile   = "workflow.toml"
	jobParamsFile      = "params.json"
	workflowParamsFile = "global_params.json"
)

// JobFolder is an on-disk view of a single job directory.
type JobFolder struct {
	Name string
	Path string
}

// NewJobFolder creates a JobFolder for the given directory.
func NewJobFolder(name, path string) JobFolder {
	return JobFolder{Name: name, Path: path}
}

// MetaPath returns the path of the job's .chiral/job.toml.
func (j JobFolder) MetaPath() string {
	return filepath.Join(j.Path, chiralDir, jobMetaFile)
}

// ParamsPath returns the path of the job's params.json.
func (j JobFolder) ParamsPath() string {
	return filepath.Join(j.Path, jobParamsFile)
}

// HasMeta reports whether the job has a configuration file.
func (j JobFolder) HasMeta() bool {
	info, err := os.Stat(j.MetaPath())
	return err == nil && info.Mode().IsRegular()
}

// LoadMeta reads the job's metadata.
func (j JobFolder) LoadMeta() (*jobconfig.JobMeta, error) {
	return jobconfig.LoadJobMeta(j.MetaPath())
}

// LoadParams reads the job's params.json. A missing file is reported
// through the second return value, not as an error.
func (j JobFolder) LoadParams() (jobconfig.Params, bool, error) {
	path := j.ParamsPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	params, err := jobconfig.LoadParams(path)
	if err != nil {
		return nil, false, err
	}
	return params, true, nil
}

// SaveParams writes the job's params.json.
func (j JobFolder) SaveParams(params jobconfig.Params) error {
	return jobconfig.SaveParams(j.ParamsPath(), params)
}

// EnsureDefaultParams writes params.json from the metadata defaults if
// it does not exist yet, and returns the effective values.
func (j JobFolder) EnsureDefaultParams() (jobconfig.Params, error) {
	params, ok, err := j.LoadParams()
	if err != nil {
		return nil, err
	}
	if ok {
		return params, nil
	}

	meta, err := j.LoadMeta()
	if err != nil {
		return nil, err
	}
	params = meta.GenerateDefaultParams()
	if err := j.SaveParams(params); err != nil {
		return nil, err
	}
	return params, nil
}

// WorkflowFolder is an on-disk view of a workflow directory whose
// immediate subdirectories are job folders.
type WorkflowFolder struct {
	Name string
	Path string
}

// NewWorkflowFolder creates a WorkflowFolder for the given directory.
func NewWorkflowFolder(name, path string) WorkflowFolder {
	return WorkflowFolder{Name: name, Path: path}
}

// MetaPath returns the path of .chiral/workflow.toml.
func (w WorkflowFolder) MetaPath() string {
	return filepath.Join(w.Path, chiralDir, workflowMetaFile)
}

// ParamsPath returns the path of global_params.json.
func (w WorkflowFolder) ParamsPath() string {
	return filepath.Join(w.Path, workflowParamsFile)
}

// LoadMeta reads .chiral/workflow.toml. A missing file is reported
// through the second return value, not as an error.
func (w WorkflowFolder) LoadMeta() (*jobconfig.WorkflowMeta, bool, error) {
	path := w.MetaPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	meta, err := jobconfig.LoadWorkflowMeta(path)
	if err != nil {
		return nil, false, err
	}
	return meta, true, nil
}

// SaveMeta writes .chiral/workflow.toml, creating .chiral if needed.
func (w WorkflowFolder) SaveMeta(meta *jobconfig.WorkflowMeta) error {
	if err := os.MkdirAll(filepath.Join(w.Path, chiralDir), 0o755); err != nil {
		return err
	}
	return jobconfig.SaveWorkflowMeta(w.MetaPath(), meta)
}

// LoadParams reads global_params.json. A missing file is reported
// through the second return value, not as an error.
func (w WorkflowFolder) LoadParams() (jobconfig.Params, bool, error) {
	path := w.ParamsPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	params, err := jobconfig.LoadParams(path)
	if err != nil {
		return nil, false, err
	}
	return params, true, nil
}

// SaveParams writes global_params.json.
func (w WorkflowFolder) SaveParams(params jobconfig.Params) error {
	return jobconfig.SaveParams(w.ParamsPath(), params)
}
