package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smolBlackCat/progress-tracker/pkg/config"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}

	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) int {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), config.File)))
	return Execute()
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, ioutil.WriteFile(path, []byte(filepath.Base(path)), 0o644))
}

func TestStageRejectsUnknownEnvironment(t *testing.T) {
	dir := t.TempDir()

	code := run(t, "stage", "--env", "CLANG64", "--dir", dir)
	assert.Equal(t, ExitConfig, code)

	_, err := os.Stat(filepath.Join(dir, "share"))
	assert.True(t, os.IsNotExist(err))
}

func TestStageRequiresEnvironment(t *testing.T) {
	t.Setenv("MSYSTEM", "")
	require.NoError(t, os.Unsetenv("MSYSTEM"))

	assert.Equal(t, ExitConfig, run(t, "stage", "--dir", t.TempDir()))
	assert.Equal(t, ExitConfig, run(t, "deps", "--dir", t.TempDir()))
}

func TestStageIsBestEffort(t *testing.T) {
	base := t.TempDir()
	prefix := filepath.Join(base, "msys64")
	build := filepath.Join(base, "build")
	writeFile(t, filepath.Join(prefix, "ucrt64", "share", "glib-2.0", "schemas", "org.gtk.gtk4.Settings.ColorChooser.gschema.xml"))
	writeFile(t, filepath.Join(prefix, "ucrt64", "bin", "librsvg-2-2.dll"))
	writeFile(t, filepath.Join(build, "src", "progress-tracker.exe"))

	args := []string{"stage", "--env", "UCRT64", "--mode", "minimal", "--prefix", prefix, "--dir", build}
	assert.Equal(t, ExitOK, run(t, args...))

	_, err := os.Stat(filepath.Join(build, "share", "glib-2.0", "schemas", "org.gtk.gtk4.Settings.ColorChooser.gschema.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(build, "librsvg-2-2.dll"))
	assert.NoError(t, err)

	assert.Equal(t, ExitWarnings, run(t, append(args, "--strict")...))
}

func TestVersion(t *testing.T) {
	out := bytes.Buffer{}
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	assert.Equal(t, ExitOK, run(t, "version"))
	assert.Equal(t, "stage-tool dev\n", out.String())
}

func TestPackDefaults(t *testing.T) {
	build := t.TempDir()
	writeFile(t, filepath.Join(build, "src", "progress-tracker.exe"))
	writeFile(t, filepath.Join(build, "share", "icons", "hicolor", "index.theme"))
	dest := filepath.Join(t.TempDir(), "progress.zip")

	assert.Equal(t, ExitOK, run(t, "pack", dest, "--dir", build))
	_, err := os.Stat(dest)
	assert.NoError(t, err)

	assert.Equal(t, ExitConfig, run(t, "pack", filepath.Join(t.TempDir(), "progress.rar"), "--dir", build))
}
