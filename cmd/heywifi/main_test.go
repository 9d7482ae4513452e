// ABOUTME: Tests for the heywifi command line
// ABOUTME: Executes the cobra tree with fresh flags per test
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heywifi/heywifi-go/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configFile = ""
		verbosity = 0
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestProfilesCommand(t *testing.T) {
	store := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(store, []byte(`{"wave": {}, "audible": {}, "ultrasonic": {}}`), 0o644))

	out, err := execute(t, "profiles", "-f", store, "-p", "audible")
	require.NoError(t, err)
	assert.Equal(t, "* audible\n  ultrasonic\n  wave\n", out)
}

func TestProfilesCommandMissingStore(t *testing.T) {
	_, err := execute(t, "profiles", "-f", filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestListenRejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, "listen", "-f", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestFlagKeysAreDefined(t *testing.T) {
	for name := range flagKeys {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
