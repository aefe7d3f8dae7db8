package shell

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesBuiltinOutput(t *testing.T) {
	r := &Interp{}

	res, err := r.Run(context.Background(), t.TempDir(), "echo", "libfoo.dll => /ucrt64/bin/libfoo.dll")
	require.NoError(t, err)
	assert.Equal(t, "libfoo.dll => /ucrt64/bin/libfoo.dll\n", string(res.Stdout))
	assert.Empty(t, res.Stderr)
}

func TestRunKeepsArgumentsIntact(t *testing.T) {
	r := &Interp{}

	res, err := r.Run(context.Background(), "", "echo", "a b", "it's", "$HOME", `C:\msys64`)
	require.NoError(t, err)
	assert.Equal(t, "a b it's $HOME C:\\msys64\n", string(res.Stdout))
}

func TestRunMissingTool(t *testing.T) {
	r := &Interp{}

	_, err := r.Run(context.Background(), "", "definitely-not-a-real-walker-tool")
	require.Error(t, err)

	var notFound *ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "definitely-not-a-real-walker-tool", notFound.Name)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestRunWithoutCommand(t *testing.T) {
	r := &Interp{}

	_, err := r.Run(context.Background(), "")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "ntldd -R src/progress-tracker.exe", Format("ntldd", "-R", "src/progress-tracker.exe"))
	assert.True(t, strings.HasPrefix(Format("cp", "a b", "c"), "cp 'a b'"))
}
