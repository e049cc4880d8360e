package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-agency/site-core/internal/modules/indexing"
	jwtpkg "github.com/lumen-agency/site-core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := "env: production\n" +
		"jwt_secret: indexctl-test-secret\n" +
		"database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "site.db") + "\n" +
		"site:\n  base_url: https://example.com/\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestURLsCommand(t *testing.T) {
	out, err := run(t, "--config", writeTestConfig(t), "urls")
	require.NoError(t, err)

	var targets []indexing.Target
	require.NoError(t, json.Unmarshal([]byte(out), &targets))
	require.NotEmpty(t, targets)
	assert.Equal(t, "https://example.com/", targets[0].URL)
}

func TestURLsCommand_Table(t *testing.T) {
	out, err := run(t, "--config", writeTestConfig(t), "-o", "table", "urls")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/contact")
	assert.Contains(t, out, "PAGE TYPE")
}

func TestRunCommands_RejectWhenDisabled(t *testing.T) {
	cfg := writeTestConfig(t)
	for _, args := range [][]string{
		{"refresh-token", "--force"},
		{"inspect"},
		{"submit", "https://example.com/"},
		{"health"},
	} {
		_, err := run(t, append([]string{"--config", cfg}, args...)...)
		assert.ErrorIs(t, err, indexing.ErrDisabled, args[0])
	}
}

func TestSubmitCommand_RequiresURL(t *testing.T) {
	_, err := run(t, "--config", writeTestConfig(t), "submit")
	assert.Error(t, err)
}

func TestAdminTokenCommand(t *testing.T) {
	out, err := run(t, "--config", writeTestConfig(t), "admin-token", "--subject", "ops")
	require.NoError(t, err)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	claims, err := jwtpkg.Parse(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestUnknownOutput(t *testing.T) {
	_, err := run(t, "--config", writeTestConfig(t), "-o", "yaml", "urls")
	assert.Error(t, err)
}

func TestResealCommand_RequiresSecretKey(t *testing.T) {
	_, err := run(t, "--config", writeTestConfig(t), "reseal")
	assert.ErrorIs(t, err, indexing.ErrNoSecretKey)
}

func TestResealCommand_NothingToSeal(t *testing.T) {
	t.Setenv("SITE_CORE_INDEXING_SECRET_KEY", "indexctl-seal-key-0123")
	out, err := run(t, "--config", writeTestConfig(t), "reseal")
	require.NoError(t, err)
	assert.JSONEq(t, `{"resealed":0}`, out)
}
