package jobconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Container describes how a job's container image is obtained and run.
// Exactly one of Image and Dockerfile must be set.
type Container struct {
	// Image is a registry reference, e.g. "ubuntu:22.04".
	Image string `toml:"image,omitempty"`
	// Dockerfile is a path relative to the job folder; the image is
	// built from its parent directory and tagged silva-job:latest.
	Dockerfile string `toml:"dockerfile,omitempty"`
	// UseGPU requests all GPUs via a device request on creation.
	UseGPU bool `toml:"use_gpu"`
	// ReuseContainer allows sharing a container with other jobs that
	// use the same image within one workflow run.
	ReuseContainer bool `toml:"reuse_container"`
}

// Scripts names the three scripts executed for a job, in order.
type Scripts struct {
	Pre  string `toml:"pre"`
	Run  string `toml:"run"`
	Post string `toml:"post"`
}

// DefaultScripts returns the conventional script names.
func DefaultScripts() Scripts {
	return Scripts{
		Pre:  "./pre_run.sh",
		Run:  "./run.sh",
		Post: "./post_run.sh",
	}
}

// JobMeta is the content of <job>/.chiral/job.toml.
type JobMeta struct {
	Name        string    `toml:"name"`
	Description string    `toml:"description"`
	Container   Container `toml:"container"`
	Scripts     Scripts   `toml:"scripts"`
	// Inputs are glob patterns selecting files to copy from the
	// outputs of dependency jobs. An empty list copies every
	// top-level entry of each dependency's outputs folder.
	Inputs []string `toml:"inputs,omitempty"`
	// Outputs are glob patterns documenting what the job exports
	// under its outputs/ folder.
	Outputs []string `toml:"outputs,omitempty"`
	// DependsOn is the legacy per-job dependency list, consulted only
	// when the workflow metadata declares no dependencies.
	DependsOn []string                   `toml:"depends_on,omitempty"`
	Params    map[string]ParamDefinition `toml:"params,omitempty"`
}

// LoadJobMeta reads and validates a job.toml file.
func LoadJobMeta(path string) (*JobMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	meta := JobMeta{
		Container: Container{ReuseContainer: true},
		Scripts:   DefaultScripts(),
	}
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if err := meta.check(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &meta, nil
}

// SaveJobMeta writes job metadata back to a job.toml file.
func SaveJobMeta(path string, meta *JobMeta) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

func (m *JobMeta) check() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Container.Image == "" && m.Container.Dockerfile == "" {
		return fmt.Errorf("container section must set either image or dockerfile")
	}
	if m.Container.Image != "" && m.Container.Dockerfile != "" {
		return fmt.Errorf("container section cannot set both image and dockerfile")
	}
	for name, def := range m.Params {
		if !def.Type.Valid() {
			return fmt.Errorf("parameter %q: unknown type %q", name, def.Type)
		}
		if def.Type == TypeEnum && len(def.EnumValues) == 0 {
			return fmt.Errorf("parameter %q: enum type requires enum_values", name)
		}
	}
	return nil
}

// ValidateParams checks a params map against this job's definitions.
func (m *JobMeta) ValidateParams(params Params) error {
	return validateParams(m.Params, params)
}

// GenerateDefaultParams returns every declared parameter with its
// default in the value language.
func (m *JobMeta) GenerateDefaultParams() Params {
	return generateDefaultParams(m.Params)
}
