package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cifsgate/pkg/auth"
	"github.com/marmos91/cifsgate/pkg/config"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func starterConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.InitConfigToPath(path, false))
	return path
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "dev" })

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "cifsgate 1.2.3 "), out)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cifsgate", "config.yaml")

	out, err := execute(t, "", "config", "init", "--config", path, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)

	out, err = execute(t, "", "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "Shares:          2")
}

func TestConfigShowJSON(t *testing.T) {
	path := starterConfig(t)

	out, err := execute(t, "", "config", "show", "--config", path, "-o", "json")
	require.NoError(t, err)

	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "Server")
}

func TestACLCheckCommand(t *testing.T) {
	path := starterConfig(t)

	tests := []struct {
		name    string
		address string
		public  string
	}{
		{"LocalNetwork", "192.168.1.20", "allow"},
		{"Elsewhere", "10.0.0.5", "disallow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", "acl", "check", "--config", path, "--address", tt.address, "-o", "json")
			require.NoError(t, err)

			var results []ShareVerdict
			require.NoError(t, json.Unmarshal([]byte(out), &results))
			require.Len(t, results, 2)
			assert.Equal(t, "PUBLIC", results[0].Share)
			assert.Equal(t, tt.public, results[0].Verdict)
			assert.Equal(t, "IPC$", results[1].Share)
			assert.True(t, results[1].Allowed)
		})
	}

	t.Run("UnknownShare", func(t *testing.T) {
		_, err := execute(t, "", "acl", "check", "NOPE", "--config", path, "--address", "10.0.0.5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})

	t.Run("InvalidAddress", func(t *testing.T) {
		_, err := execute(t, "", "acl", "check", "--config", path, "--address", "not-an-ip")
		require.Error(t, err)
	})
}

func TestACLTypesCommand(t *testing.T) {
	out, err := execute(t, "", "acl", "types")
	require.NoError(t, err)
	for _, typ := range []string{"address", "user", "domain", "protocol"} {
		assert.Contains(t, out, typ)
	}
}

func TestHashPasswordStdin(t *testing.T) {
	out, err := execute(t, "s3cret-pass\n", "hash-password", "--stdin", "--cost", "4")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), hash)
	assert.True(t, auth.VerifyPassword("s3cret-pass", hash))

	_, err = execute(t, "short\n", "hash-password", "--stdin", "--cost", "4")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestStatusNotRunning(t *testing.T) {
	out, err := execute(t, "", "status", "--api", "http://127.0.0.1:1", "-o", "json")
	require.NoError(t, err)

	var status ServerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Running)
	assert.NotEmpty(t, status.Error)
}
