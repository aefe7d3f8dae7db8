package msys

import (
	"os/exec"
)

// Tool is an external program needed for staging
type Tool struct {
	Name string
	// Package is the pacman package providing the tool
	Package string
	Path    string
	Found   bool
}

func (env Environment) packagePrefix() string {
	switch env {
	case UCRT64:
		return "mingw-w64-ucrt-x86_64-"
	case MINGW32:
		return "mingw-w64-i686-"
	default:
		return ""
	}
}

// RequiredTools lists the tools a staging run in env invokes. The schema compiler is only needed when
// schemas are compiled (full mode).
func (env Environment) RequiredTools(compileSchemas bool) []Tool {
	var tools []Tool

	switch env {
	case UCRT64:
		tools = append(tools, Tool{Name: "ldd", Package: "msys2-runtime"})
	case MINGW32:
		tools = append(tools, Tool{Name: "ntldd", Package: env.packagePrefix() + "ntldd"})
	default:
		return nil
	}

	if compileSchemas {
		tools = append(tools, Tool{Name: "glib-compile-schemas", Package: env.packagePrefix() + "glib2"})
	}

	return tools
}

// LookupTools resolves every tool in PATH
func LookupTools(tools []Tool) []Tool {
	result := make([]Tool, len(tools))
	for idx, tool := range tools {
		path, err := exec.LookPath(tool.Name)
		tool.Path = path
		tool.Found = err == nil
		result[idx] = tool
	}

	return result
}
