package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AUTH_DATABASE_FILE", filepath.Join(dir, "auth.db"))
	t.Setenv("AUTH_PEPPER_FILE", filepath.Join(dir, "pepper"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENV", "dev")
	t.Setenv("AUTH_ACCOUNTS_DRIVER", "")
	t.Setenv("AUTH_MAIL_TRANSPORT", "")
	return dir
}

func TestVerifierCommand(t *testing.T) {
	out, err := execute(t, "verifier", "player", "hunter2", "--salt", strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.Contains(t, out, "salt:     "+strings.Repeat("00", 32))
	assert.Contains(t, out, "verifier: f5d2c4d683287497b16bc2b427defdf1b6691faf61e3cecd0b81c773754f515b")
}

func TestVerifierCommandFreshSalt(t *testing.T) {
	first, err := execute(t, "verifier", "player", "hunter2")
	require.NoError(t, err)
	second, err := execute(t, "verifier", "player", "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifierCommandBadSalt(t *testing.T) {
	tests := []struct {
		name string
		salt string
	}{
		{name: "not hex", salt: "zz"},
		{name: "short", salt: "0011"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "verifier", "player", "hunter2", "--salt", tt.salt)
			require.Error(t, err)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "INVALID_SALT", oopsErr.Code())
		})
	}
}

func TestMigrateCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "auth.db"))
	assert.Contains(t, out, "Migrations completed successfully")
}

func TestAccountCreateAndVerify(t *testing.T) {
	isolate(t)

	out, err := execute(t, "account", "create", "arthas", "arthas@lordaeron.io", "--password", "frostmourne")
	require.NoError(t, err)
	assert.Contains(t, out, "Created account ARTHAS with id 1")

	out, err = execute(t, "account", "verify", "Arthas", "--password", "FROSTMOURNE")
	require.NoError(t, err)
	assert.Contains(t, out, "Password matches account ARTHAS (id 1)")

	_, err = execute(t, "account", "verify", "arthas", "--password", "lightbringer")
	require.ErrorIs(t, err, ErrCredentialsMismatch)

	_, err = execute(t, "account", "verify", "uther", "--password", "lightbringer")
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", oopsErr.Code())
}

func TestAccountCreateRejectsInvalidInput(t *testing.T) {
	isolate(t)

	_, err := execute(t, "account", "create", "ab", "arthas@lordaeron.io", "--password", "frostmourne")
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_CREATE_FAILED", oopsErr.Code())
}

func TestInvalidConfigRejected(t *testing.T) {
	isolate(t)

	_, err := execute(t, "migrate", "--env", "qa")
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}
