package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silva/internal/jobconfig"
)

func newTestJob(t *testing.T) JobFolder {
	t.Helper()
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job_1")
	require.NoError(t, os.MkdirAll(jobPath, 0o755))
	createJobConfig(t, jobPath)
	return NewJobFolder("job_1", jobPath)
}

func TestJobFolderPaths(t *testing.T) {
	job := NewJobFolder("job_1", "/tmp/wf/job_1")
	assert.Equal(t, filepath.Join("/tmp/wf/job_1", ".chiral", "job.toml"), job.MetaPath())
	assert.Equal(t, filepath.Join("/tmp/wf/job_1", "params.json"), job.ParamsPath())
}

func TestJobFolderLoadMeta(t *testing.T) {
	job := newTestJob(t)
	meta, err := job.LoadMeta()
	require.NoError(t, err)
	assert.Equal(t, "Test Job", meta.Name)
	assert.Equal(t, "ubuntu:22.04", meta.Container.Image)
}

func TestJobFolderLoadParamsAbsent(t *testing.T) {
	job := newTestJob(t)
	params, ok, err := job.LoadParams()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, params)
}

func TestJobFolderSaveAndLoadParams(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.SaveParams(jobconfig.Params{"threads": int64(4)}))

	params, ok, err := job.LoadParams()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, json.Number("4"), params["threads"])
}

func TestJobFolderEnsureDefaultParams(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job_1")
	chiral := filepath.Join(jobPath, ".chiral")
	require.NoError(t, os.MkdirAll(chiral, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chiral, "job.toml"), []byte(`name = "Test Job"
description = "A test job"

[container]
image = "ubuntu:22.04"

[params.count]
type = "integer"
default = 10
hint = "A count"
`), 0o644))

	job := NewJobFolder("job_1", jobPath)

	params, err := job.EnsureDefaultParams()
	require.NoError(t, err)
	assert.Equal(t, int64(10), params["count"])
	assert.FileExists(t, job.ParamsPath())

	// a second call returns the persisted values, not fresh defaults
	require.NoError(t, job.SaveParams(jobconfig.Params{"count": int64(42)}))
	params, err = job.EnsureDefaultParams()
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), params["count"])
}

func TestWorkflowFolderMetaAbsent(t *testing.T) {
	wf := NewWorkflowFolder("wf", t.TempDir())
	meta, ok, err := wf.LoadMeta()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, meta)
}

func TestWorkflowFolderSaveAndLoadMeta(t *testing.T) {
	wf := NewWorkflowFolder("wf", t.TempDir())
	meta := jobconfig.NewWorkflowMeta("wf", "two stages")
	meta.Dependencies["b"] = []string{"a"}
	require.NoError(t, wf.SaveMeta(meta))

	loaded, ok, err := wf.LoadMeta()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, loaded.Dependencies["b"])
}

func TestWorkflowFolderParams(t *testing.T) {
	wf := NewWorkflowFolder("wf", t.TempDir())

	_, ok, err := wf.LoadParams()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, wf.SaveParams(jobconfig.Params{"project": "demo"}))
	params, ok, err := wf.LoadParams()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "demo", params["project"])
}
