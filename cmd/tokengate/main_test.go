package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordFromStdin(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("correct-password-123\n"))
	cmd.SetArgs([]string{"hash-password"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(hash, "$argon2id$"), hash)

	hasher, err := password.NewHasher(tokengate.DefaultConfig().Password.HasherConfig())
	require.NoError(t, err)
	ok, err := hasher.Verify("correct-password-123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPasswordRejectsShortInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"hash-password", "short"})

	assert.ErrorIs(t, cmd.Execute(), password.ErrTooShort)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKENGATE_DATABASE_TYPE", "memory")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.type=postgres")
}
