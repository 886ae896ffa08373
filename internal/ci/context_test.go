package ci

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutputs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", out)

	require.NoError(t, WriteOutputs(map[string]string{"cause": "Data", "relevant": "true"}))
	require.NoError(t, WriteOutputs(map[string]string{"extra": "1"}))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "cause=Data\nrelevant=true\nextra=1\n", string(raw))
}

func TestWriteOutputsNoEnvIsNoOp(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	assert.NoError(t, WriteOutputs(map[string]string{"cause": "Data"}))
}

func TestAppendStepSummary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "summary")
	t.Setenv("GITHUB_STEP_SUMMARY", out)

	require.NoError(t, AppendStepSummary("# Pipeline Summary"))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# Pipeline Summary\n", string(raw))
}

func TestCommitURL(t *testing.T) {
	c := Context{Repository: "acme/widgets"}
	assert.Equal(t, "https://github.com/acme/widgets/commit/abc", c.CommitURL("abc"))
	assert.Equal(t, "", Context{}.CommitURL("abc"))
}
