package jobconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkflowMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.toml")
	require.NoError(t, writeFile(path, `
name = "ml-pipeline"
description = "prepare, train, report"

[params.threads]
type = "integer"
default = 8
hint = "Worker threads"

[dependencies]
train = ["prepare"]
report = ["train"]
`))

	meta, err := LoadWorkflowMeta(path)
	require.NoError(t, err)

	assert.Equal(t, "ml-pipeline", meta.Name)
	assert.Equal(t, int64(8), meta.Params["threads"].Default)
	assert.Equal(t, []string{"prepare"}, meta.Dependencies["train"])
	assert.Equal(t, []string{"train"}, meta.Dependencies["report"])
}

func TestLoadWorkflowMetaInvalidParamType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.toml")
	require.NoError(t, writeFile(path, `
name = "wf"

[params.bad]
type = "tuple"
default = "x"
hint = "h"
`))

	_, err := LoadWorkflowMeta(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestWorkflowMetaDefaultsRoundTrip(t *testing.T) {
	meta := NewWorkflowMeta("wf", "")
	meta.Params["project"] = ParamDefinition{Type: TypeString, Default: "demo", Hint: "project name"}
	meta.Params["workers"] = ParamDefinition{Type: TypeInteger, Default: int64(4), Hint: "worker count"}

	defaults := meta.GenerateDefaultParams()
	require.NoError(t, meta.ValidateParams(defaults))
	assert.Equal(t, "demo", defaults["project"])
	assert.Equal(t, int64(4), defaults["workers"])
}

func TestSaveWorkflowMetaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.toml")
	meta := NewWorkflowMeta("wf", "two stages")
	meta.Dependencies["b"] = []string{"a"}

	require.NoError(t, SaveWorkflowMeta(path, meta))
	loaded, err := LoadWorkflowMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "wf", loaded.Name)
	assert.Equal(t, []string{"a"}, loaded.Dependencies["b"])
}
