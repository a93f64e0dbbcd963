package jobconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func loadMetaFromString(t *testing.T, content string) *JobMeta {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.toml")
	require.NoError(t, writeFile(path, content))
	meta, err := LoadJobMeta(path)
	require.NoError(t, err)
	return meta
}

func TestLoadJobMetaBasic(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"
`)

	assert.Equal(t, "Test Job", meta.Name)
	assert.Equal(t, "A test job", meta.Description)
	assert.Equal(t, "ubuntu:22.04", meta.Container.Image)
	assert.False(t, meta.Container.UseGPU)
	assert.True(t, meta.Container.ReuseContainer)
}

func TestLoadJobMetaScriptDefaults(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"
`)

	assert.Equal(t, "./pre_run.sh", meta.Scripts.Pre)
	assert.Equal(t, "./run.sh", meta.Scripts.Run)
	assert.Equal(t, "./post_run.sh", meta.Scripts.Post)
}

func TestLoadJobMetaWithScripts(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"

[scripts]
pre = "setup.sh"
run = "compute.sh"
post = "cleanup.sh"
`)

	assert.Equal(t, "setup.sh", meta.Scripts.Pre)
	assert.Equal(t, "compute.sh", meta.Scripts.Run)
	assert.Equal(t, "cleanup.sh", meta.Scripts.Post)
}

func TestLoadJobMetaWithParams(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"

[params.pdb_id]
type = "string"
default = "4OHU"
hint = "The ID of the PDB file to download."

[params.num_iterations]
type = "integer"
default = 100
hint = "Number of iterations to run."
`)

	require.Len(t, meta.Params, 2)

	pdbID := meta.Params["pdb_id"]
	assert.Equal(t, TypeString, pdbID.Type)
	assert.Equal(t, "4OHU", pdbID.Default)
	assert.Equal(t, "The ID of the PDB file to download.", pdbID.Hint)

	iterations := meta.Params["num_iterations"]
	assert.Equal(t, TypeInteger, iterations.Type)
	assert.Equal(t, int64(100), iterations.Default)
}

func TestLoadJobMetaWithEnumParam(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"

[params.format]
type = "enum"
default = "pdb"
hint = "Output format"
enum_values = ["pdb", "cif", "xml"]
`)

	format := meta.Params["format"]
	assert.Equal(t, TypeEnum, format.Type)
	assert.Equal(t, []string{"pdb", "cif", "xml"}, format.EnumValues)
}

func TestLoadJobMetaWithIOPatterns(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Test Job"
description = "A test job"
inputs = ["*.csv"]
outputs = ["results/*.json"]
depends_on = ["upstream"]

[container]
image = "ubuntu:22.04"
`)

	assert.Equal(t, []string{"*.csv"}, meta.Inputs)
	assert.Equal(t, []string{"results/*.json"}, meta.Outputs)
	assert.Equal(t, []string{"upstream"}, meta.DependsOn)
}

func TestLoadJobMetaGPU(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "GPU Job"
description = "A GPU job"

[container]
image = "nvidia/cuda:11.8.0-base-ubuntu22.04"
use_gpu = true
`)

	assert.True(t, meta.Container.UseGPU)
	assert.Equal(t, "nvidia/cuda:11.8.0-base-ubuntu22.04", meta.Container.Image)
}

func TestLoadJobMetaReuseOptOut(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Isolated Job"
description = "no container sharing"

[container]
image = "ubuntu:22.04"
reuse_container = false
`)

	assert.False(t, meta.Container.ReuseContainer)
}

func TestLoadJobMetaDockerfile(t *testing.T) {
	meta := loadMetaFromString(t, `
name = "Built Job"
description = "built from Dockerfile"

[container]
dockerfile = "./Dockerfile"
`)

	assert.Equal(t, "./Dockerfile", meta.Container.Dockerfile)
	assert.Empty(t, meta.Container.Image)
}

func TestLoadJobMetaErrors(t *testing.T) {
	t.Run("Should fail on missing file", func(t *testing.T) {
		_, err := LoadJobMeta(filepath.Join(t.TempDir(), "nope", "job.toml"))
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("Should fail on invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.toml")
		require.NoError(t, writeFile(path, "name = [unterminated"))
		_, err := LoadJobMeta(path)
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("Should fail without a name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.toml")
		require.NoError(t, writeFile(path, "[container]\nimage = \"ubuntu:22.04\"\n"))
		_, err := LoadJobMeta(path)
		assert.Error(t, err)
	})

	t.Run("Should fail without image or dockerfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.toml")
		require.NoError(t, writeFile(path, "name = \"x\"\ndescription = \"y\"\n"))
		_, err := LoadJobMeta(path)
		assert.Error(t, err)
	})

	t.Run("Should fail with both image and dockerfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.toml")
		require.NoError(t, writeFile(path, `
name = "x"
description = "y"

[container]
image = "ubuntu:22.04"
dockerfile = "./Dockerfile"
`))
		_, err := LoadJobMeta(path)
		assert.Error(t, err)
	})

	t.Run("Should fail on enum param without enum_values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.toml")
		require.NoError(t, writeFile(path, `
name = "x"
description = "y"

[container]
image = "ubuntu:22.04"

[params.format]
type = "enum"
default = "pdb"
hint = "h"
`))
		_, err := LoadJobMeta(path)
		assert.Error(t, err)
	})
}

func TestSaveJobMetaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.toml")
	meta := &JobMeta{
		Name:        "Round Trip",
		Description: "saved and reloaded",
		Container:   Container{Image: "ubuntu:22.04", ReuseContainer: true},
		Scripts:     DefaultScripts(),
		Inputs:      []string{"*.csv"},
		Params: map[string]ParamDefinition{
			"count": {Type: TypeInteger, Default: int64(10), Hint: "A count"},
		},
	}

	require.NoError(t, SaveJobMeta(path, meta))
	loaded, err := LoadJobMeta(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Name, loaded.Name)
	assert.Equal(t, meta.Inputs, loaded.Inputs)
	assert.Equal(t, int64(10), loaded.Params["count"].Default)
}
