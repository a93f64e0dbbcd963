package execution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"silva/internal/jobconfig"
)

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}

func TestBuildEnvPrefixes(t *testing.T) {
	env := envMap(BuildEnv(
		jobconfig.Params{"project": "demo"},
		jobconfig.Params{"threads": int64(4)},
	))

	assert.Equal(t, "demo", env["SILVA_PROJECT"])
	assert.Equal(t, "demo", env["PARAM_PROJECT"])
	assert.Equal(t, "4", env["PARAM_THREADS"])
	_, hasGlobalThreads := env["SILVA_THREADS"]
	assert.False(t, hasGlobalThreads)
}

func TestBuildEnvJobLocalWins(t *testing.T) {
	// a workflow-global threads=8 must not shadow the job's threads=4
	env := envMap(BuildEnv(
		jobconfig.Params{"threads": int64(8)},
		jobconfig.Params{"threads": int64(4)},
	))

	assert.Equal(t, "4", env["PARAM_THREADS"])
	assert.Equal(t, "8", env["SILVA_THREADS"])
}

func TestBuildEnvRendering(t *testing.T) {
	env := envMap(BuildEnv(nil, jobconfig.Params{
		"name":    "input.csv",
		"flag":    true,
		"off":     false,
		"count":   json.Number("42"),
		"rate":    0.5,
		"tags":    []any{"a", "b"},
		"empty":   nil,
		"mapping": map[string]any{"k": int64(1)},
	}))

	assert.Equal(t, "input.csv", env["PARAM_NAME"])
	assert.Equal(t, "true", env["PARAM_FLAG"])
	assert.Equal(t, "false", env["PARAM_OFF"])
	assert.Equal(t, "42", env["PARAM_COUNT"])
	assert.Equal(t, "0.5", env["PARAM_RATE"])
	assert.Equal(t, `["a","b"]`, env["PARAM_TAGS"])
	assert.Equal(t, "", env["PARAM_EMPTY"])
	assert.Equal(t, `{"k":1}`, env["PARAM_MAPPING"])
}

func TestBuildEnvNameNormalisation(t *testing.T) {
	env := envMap(BuildEnv(nil, jobconfig.Params{"learning-rate": 0.001}))
	assert.Equal(t, "0.001", env["PARAM_LEARNING_RATE"])
}

func TestBuildEnvDeterministicOrder(t *testing.T) {
	params := jobconfig.Params{"b": "2", "a": "1", "c": "3"}
	first := BuildEnv(params, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildEnv(params, nil))
	}
}
