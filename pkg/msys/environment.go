package msys

import (
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Environment identifies the MSYS2 toolchain the application was built with
type Environment string

const (
	// UCRT64 is the 64-bit environment linked against the Universal C Runtime
	UCRT64 Environment = "UCRT64"
	// MINGW32 is the legacy 32-bit environment linked against msvcrt
	MINGW32 Environment = "MINGW32"
)

// ErrUnsupportedEnvironment is returned for missing or unknown environment identifiers
var ErrUnsupportedEnvironment = eris.New("not a supported MSYS2 environment")

// Supported lists every recognized environment
var Supported = []Environment{UCRT64, MINGW32}

// ParseEnvironment validates the given identifier. An empty identifier is treated like an unknown one.
func ParseEnvironment(value string) (Environment, error) {
	if value == "" {
		return "", eris.Wrap(ErrUnsupportedEnvironment, "MSYSTEM is not set")
	}

	env := Environment(value)
	if !env.Valid() {
		return "", eris.Wrapf(ErrUnsupportedEnvironment, "unknown environment %s (expected one of %s)", value, supportedNames())
	}

	return env, nil
}

func supportedNames() string {
	names := make([]string, len(Supported))
	for idx, env := range Supported {
		names[idx] = string(env)
	}

	return strings.Join(names, ", ")
}

// Valid reports whether env is one of the recognized environments
func (env Environment) Valid() bool {
	for _, item := range Supported {
		if item == env {
			return true
		}
	}

	return false
}

// Namespace returns the substring that marks libraries belonging to this environment in the walker output
func (env Environment) Namespace() string {
	return strings.ToLower(string(env))
}

// Root returns the environment's installation root below prefix (i.e. /ucrt64)
func (env Environment) Root(prefix string) string {
	if prefix == "" {
		prefix = "/"
	}

	return path.Join(prefix, env.Namespace())
}

// WalkerCommand returns the dependency walker invocation for exe or nil if env is not recognized
func (env Environment) WalkerCommand(exe string) []string {
	switch env {
	case UCRT64:
		return []string{"ldd", exe}
	case MINGW32:
		return []string{"ntldd", "-R", exe}
	default:
		return nil
	}
}

func (env Environment) String() string {
	return string(env)
}
