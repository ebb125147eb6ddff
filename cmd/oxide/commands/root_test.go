package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/oxide/cmd/oxide/handlers"
)

func TestRoot_Subcommands(t *testing.T) {
	t.Parallel()
	cmd := Root()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "create", "status", "scale", "destroy", "deploy-nginx", "upgrade", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRoot_GlobalFlags(t *testing.T) {
	t.Parallel()
	flags := Root().PersistentFlags()

	tests := []struct {
		name, shorthand, def string
	}{
		{"config", "c", handlers.DefaultConfigPath},
		{"output", "o", handlers.DefaultOutputDir},
		{"verbose", "v", "false"},
		{"metrics-file", "", ""},
	}
	for _, tt := range tests {
		flag := flags.Lookup(tt.name)
		require.NotNil(t, flag, tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand, tt.name)
		assert.Equal(t, tt.def, flag.DefValue, tt.name)
	}
}

func TestScale_Flags(t *testing.T) {
	t.Parallel()
	cmd := Scale(&handlers.Options{})

	require.NotNil(t, cmd.Flags().Lookup("count"))
	require.NotNil(t, cmd.Flags().Lookup("pool"))
	_, required := cmd.Flags().Lookup("count").Annotations["cobra_annotation_bash_completion_one_required_flag"]
	assert.True(t, required)
}

func TestScale_RequiresRoleArgument(t *testing.T) {
	t.Parallel()
	cmd := Root()
	cmd.SetArgs([]string{"scale", "--count", "3"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestUpgrade_Fails(t *testing.T) {
	t.Parallel()
	cmd := Root()
	cmd.SetArgs([]string{"upgrade"})

	assert.EqualError(t, cmd.Execute(), "cluster upgrade is not yet implemented")
}

func TestVersion(t *testing.T) {
	SetVersionInfo("v0.3.0", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "oxide v0.3.0")
	assert.Contains(t, out.String(), "commit: abc123")
}
