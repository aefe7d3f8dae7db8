package msys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredTools(t *testing.T) {
	assert.Equal(t, []Tool{
		{Name: "ldd", Package: "msys2-runtime"},
		{Name: "glib-compile-schemas", Package: "mingw-w64-ucrt-x86_64-glib2"},
	}, UCRT64.RequiredTools(true))

	assert.Equal(t, []Tool{
		{Name: "ntldd", Package: "mingw-w64-i686-ntldd"},
	}, MINGW32.RequiredTools(false))

	assert.Nil(t, Environment("CLANG64").RequiredTools(true))
}

func TestLookupTools(t *testing.T) {
	tools := LookupTools([]Tool{{Name: "surely-not-installed-walker"}})
	assert.False(t, tools[0].Found)
	assert.Empty(t, tools[0].Path)
}
