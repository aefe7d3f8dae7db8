package msys

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smolBlackCat/progress-tracker/pkg/shell"
)

type fakeWalker struct {
	output string
	err    error
	calls  [][]string
}

func (w *fakeWalker) Run(ctx context.Context, dir string, args ...string) (shell.Result, error) {
	w.calls = append(w.calls, args)
	return shell.Result{Stdout: []byte(w.output)}, w.err
}

func TestDiscoverUCRT64(t *testing.T) {
	walker := &fakeWalker{output: "  libfoo.dll => /ucrt64/bin/libfoo.dll (0x...)\n"}

	libs, err := Discover(context.Background(), walker, ".", UCRT64, "src/progress-tracker.exe", Supplemental)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"libfoo.dll",
		"librsvg-2-2.dll",
		"libxml2-2.dll",
		"libiconv-2.dll",
		"libcharset-1.dll",
		"zlib1.dll",
	}, libs)
	assert.Equal(t, [][]string{{"ldd", "src/progress-tracker.exe"}}, walker.calls)
}

func TestDiscoverMINGW32UsesNtldd(t *testing.T) {
	walker := &fakeWalker{output: "\tlibgtk-4-1.dll => C:\\msys64\\mingw32\\bin\\libgtk-4-1.dll (0x6b000000)\n" +
		"\tKERNEL32.dll => C:\\Windows\\SYSTEM32\\KERNEL32.dll (0x76000000)\n"}

	libs, err := Discover(context.Background(), walker, ".", MINGW32, "src/progress-tracker.exe", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"libgtk-4-1.dll"}, libs)
	assert.Equal(t, [][]string{{"ntldd", "-R", "src/progress-tracker.exe"}}, walker.calls)
}

func TestDiscoverUnknownEnvironment(t *testing.T) {
	walker := &fakeWalker{output: "libfoo.dll => /clang64/bin/libfoo.dll\n"}

	libs, err := Discover(context.Background(), walker, ".", Environment("CLANG64"), "src/progress-tracker.exe", Supplemental)
	require.NoError(t, err)
	assert.Empty(t, libs)
	assert.Empty(t, walker.calls)
}

func TestDiscoverWalkerFailure(t *testing.T) {
	walker := &fakeWalker{err: errors.New("ldd: command not found")}

	libs, err := Discover(context.Background(), walker, ".", UCRT64, "src/progress-tracker.exe", Supplemental)
	assert.Error(t, err)
	assert.Equal(t, Supplemental, libs)
}

func TestParseWalkerOutput(t *testing.T) {
	output := []byte("\tntdll.dll => /c/WINDOWS/SYSTEM32/ntdll.dll (0x7ffb)\n" +
		"\tlibgtk-4-1.dll => /ucrt64/bin/libgtk-4-1.dll (0x7ffa)\n" +
		"\tlibglib-2.0-0.dll => /ucrt64/bin/libglib-2.0-0.dll (0x7ff9)\n" +
		"\tlibglib-2.0-0.dll => /ucrt64/bin/libglib-2.0-0.dll (0x7ff9)\n" +
		"\n")

	assert.Equal(t, []string{"libgtk-4-1.dll", "libglib-2.0-0.dll", "libglib-2.0-0.dll"}, ParseWalkerOutput(output, "ucrt64"))
	assert.Empty(t, ParseWalkerOutput(nil, "ucrt64"))
}

func TestParseWalkerOutputWithoutSeparator(t *testing.T) {
	assert.Equal(t, []string{"/ucrt64/bin/libfoo.dll"}, ParseWalkerOutput([]byte("\t/ucrt64/bin/libfoo.dll\n"), "ucrt64"))
}
