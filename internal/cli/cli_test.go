package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/domain"
)

const testProfile = `{
  "personal": {"name": "Jordan Reyes", "title": "Backend Engineer", "summary": "Builds APIs."},
  "experience": [{"company": "Acme", "title": "Engineer", "duration": "2020-2022"}]
}`

// writeConfig writes a profile and a config pointing at it, returning the
// config path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(profilePath, []byte(testProfile), 0o644))
	cfg := "profile:\n  path: " + profilePath + "\nvector_store:\n  type: none\nlog:\n  output: \"-\"\n" + extra
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))
	return cfgFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "twin version test-version-1.0.0")
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"chat", "ask", "chunks", "serve", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestChunksCmd_Text(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t, ""), "chunks")
	require.NoError(t, err)
	assert.Contains(t, out, "[personal_info] Personal Information")
	assert.Contains(t, out, "[experience_0] Experience at Acme")
	assert.Contains(t, out, "2 chunks")
}

func TestChunksCmd_JSON(t *testing.T) {
	defer func() { chunksJSON = false }()
	out, err := execute(t, "--config", writeConfig(t, ""), "chunks", "--json")
	require.NoError(t, err)

	var chunks []domain.Chunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, "experience_0", chunks[1].ID)
}

func TestAskCmd_MissingAPIKey(t *testing.T) {
	t.Setenv("TWIN_TEST_MISSING_KEY", "")
	cfg := writeConfig(t, "llm:\n  api_key_env: TWIN_TEST_MISSING_KEY\n")

	_, err := execute(t, "--config", cfg, "ask", "Where did you work?")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t, ""), "ask")
	assert.Error(t, err)
}
