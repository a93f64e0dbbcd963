package execution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeWorkspaceCopiesContent(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(source, "job_1", ".chiral"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "job_1", ".chiral", "job.toml"), []byte("name = \"j\""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "job_1", "run.sh"), []byte("echo hi"), 0o755))

	ws, err := MaterializeWorkspace(source)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Remove() })

	assert.FileExists(t, filepath.Join(ws.Root, "job_1", ".chiral", "job.toml"))
	assert.FileExists(t, filepath.Join(ws.JobDir("job_1"), "run.sh"))

	// the source is left untouched by later workspace writes
	require.NoError(t, os.WriteFile(filepath.Join(ws.JobDir("job_1"), "scratch.txt"), []byte("x"), 0o644))
	assert.NoFileExists(t, filepath.Join(source, "job_1", "scratch.txt"))
}

func TestMaterializeWorkspaceNaming(t *testing.T) {
	ws, err := MaterializeWorkspace(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Remove() })

	base := filepath.Base(ws.Root)
	assert.True(t, strings.HasPrefix(base, "silva-"), "workspace %s should carry the silva- prefix", base)
	// silva-YYYY-MM-DD-HH-MM-SS-XXXXXX
	assert.GreaterOrEqual(t, len(strings.Split(base, "-")), 7)
}

func TestWorkspaceRemove(t *testing.T) {
	ws, err := MaterializeWorkspace(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, ws.Remove())
	assert.NoDirExists(t, ws.Root)
}
