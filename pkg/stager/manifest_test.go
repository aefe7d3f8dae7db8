package stager

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smolBlackCat/progress-tracker/pkg/msys"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestDefaultManifest(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)

	assert.Equal(t, msys.Supplemental, m.Supplemental)
	assert.Equal(t, []Asset{
		{Source: "share/glib-2.0", Dest: "share"},
		{Source: "share/icons", Dest: "share"},
		{Source: "lib/gdk-pixbuf-2.0", Dest: "lib"},
	}, m.Assets)
	assert.Equal(t, []string{"bin/gdbus.exe"}, m.Helpers)
	assert.Equal(t, []string{"ucrtbase.dll"}, m.SystemLibraries["UCRT64"])
	assert.Empty(t, m.SystemLibraries["MINGW32"])
	assert.Equal(t, "share/glib-2.0/schemas", m.SchemaDir)
}

func TestStagingDirs(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)

	assert.Equal(t, []string{"share", "lib"}, m.StagingDirs("."))
	assert.Equal(t, []string{"share", "lib", "DLLS"}, m.StagingDirs(LibDir))
}

func TestParseManifestRejectsEscapingPaths(t *testing.T) {
	cases := map[string]string{
		"absolute source": "assets:\n  - source: /etc\n    dest: share\n",
		"parent dest":     "assets:\n  - source: share/icons\n    dest: ../outside\n",
		"helper":          "helpers:\n  - ../../gdbus.exe\n",
		"library path":    "supplemental:\n  - bin/zlib1.dll\n",
		"environment":     "systemLibraries:\n  CLANG64:\n    - ucrtbase.dll\n",
		"schema dir":      "schemaDir: /share/glib-2.0/schemas\n",
	}

	for name, doc := range cases {
		_, err := ParseManifest([]byte(doc), name)
		assert.Error(t, err, name)
	}
}

func TestLoadManifest(t *testing.T) {
	file := filepath.Join(t.TempDir(), "staging.yml")
	require.NoError(t, ioutil.WriteFile(file, []byte("supplemental:\n  - zlib1.dll\nassets:\n  - source: share/icons\n    dest: share\n"), 0o644))

	m, err := LoadManifest(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"zlib1.dll"}, m.Supplemental)
	assert.Empty(t, m.Helpers)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	require.NoError(t, ioutil.WriteFile(file, []byte("assets: [\n"), 0o644))
	_, err = LoadManifest(file)
	assert.Error(t, err)
}
