package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// When: executing with --help
	output, err := execute(t, "--help")

	// Then: usage lists every subcommand
	require.NoError(t, err)
	assert.Contains(t, output, "searchsync")
	for _, sub := range []string{"run", "drain", "status", "requeue", "verify", "config", "version"} {
		assert.Contains(t, output, sub, "help should list the %s command", sub)
	}
}

func TestRootCmd_NoArgsShowsHelp(t *testing.T) {
	// When: executing without arguments
	output, err := execute(t)

	// Then: usage is shown instead of starting anything
	require.NoError(t, err)
	assert.Contains(t, output, "Usage:")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	// When: executing with --version
	output, err := execute(t, "--version")

	// Then: the version template is used
	require.NoError(t, err)
	assert.Contains(t, output, "searchsync version")
}

func TestRootCmd_UnknownCommandFails(t *testing.T) {
	// When: executing an unknown subcommand
	_, err := execute(t, "definitely-not-a-command")

	// Then: it fails
	require.Error(t, err)
}
