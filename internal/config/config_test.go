package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFlagsOrFile(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultThreadBudget, c.ThreadBudget)
	require.Equal(t, DefaultMaxBoards, c.MaxBoards)
}

func TestLoadFlagOverridesDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("thread-budget", DefaultThreadBudget, "")
	require.NoError(t, fs.Set("thread-budget", "4"))

	c, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, 4, c.ThreadBudget)
}

func TestLoadRejectsNonPositiveThreadBudget(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("thread-budget", DefaultThreadBudget, "")
	require.NoError(t, fs.Set("thread-budget", "0"))

	_, err := Load(fs)
	require.Error(t, err)
}
