package jobconfig

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// WorkflowMeta is the content of <workflow>/.chiral/workflow.toml.
type WorkflowMeta struct {
	Name        string                     `toml:"name"`
	Description string                     `toml:"description"`
	Params      map[string]ParamDefinition `toml:"params,omitempty"`
	// Dependencies maps a job name to the jobs it depends on. When
	// non-empty it takes precedence over the jobs' own depends_on.
	Dependencies map[string][]string `toml:"dependencies,omitempty"`
}

// NewWorkflowMeta returns an empty metadata for workflows without a
// workflow.toml.
func NewWorkflowMeta(name, description string) *WorkflowMeta {
	return &WorkflowMeta{
		Name:         name,
		Description:  description,
		Params:       map[string]ParamDefinition{},
		Dependencies: map[string][]string{},
	}
}

// LoadWorkflowMeta reads and validates a workflow.toml file.
func LoadWorkflowMeta(path string) (*WorkflowMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var meta WorkflowMeta
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	for name, def := range meta.Params {
		if !def.Type.Valid() {
			return nil, &ConfigError{Path: path, Err: &ValidationError{Param: name, Reason: "unknown type " + string(def.Type)}}
		}
	}
	return &meta, nil
}

// SaveWorkflowMeta writes workflow metadata back to a workflow.toml file.
func SaveWorkflowMeta(path string, meta *WorkflowMeta) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// ValidateParams checks a params map against the workflow definitions.
func (m *WorkflowMeta) ValidateParams(params Params) error {
	return validateParams(m.Params, params)
}

// GenerateDefaultParams returns every declared parameter with its
// default in the value language.
func (m *WorkflowMeta) GenerateDefaultParams() Params {
	return generateDefaultParams(m.Params)
}
