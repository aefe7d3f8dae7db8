package msys

import (
	"context"
	"strings"

	"github.com/smolBlackCat/progress-tracker/pkg/shell"
)

// Supplemental lists libraries loaded at runtime (by librsvg and the pixbuf loaders) which the walkers
// don't report.
var Supplemental = []string{
	"librsvg-2-2.dll",
	"libxml2-2.dll",
	"libiconv-2.dll",
	"libcharset-1.dll",
	"zlib1.dll",
}

const separator = "=>"

// ParseWalkerOutput extracts the library names from ldd / ntldd output. Only lines mentioning namespace
// are considered; each of them yields exactly one entry.
func ParseWalkerOutput(output []byte, namespace string) []string {
	text := strings.ReplaceAll(string(output), "\t", "")
	result := []string{}

	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, namespace) {
			continue
		}

		line = strings.TrimSpace(line)
		name := strings.SplitN(line, separator, 2)[0]
		result = append(result, strings.TrimSpace(name))
	}

	return result
}

// Discover returns the libraries exe needs in env followed by the supplemental libraries passed in extra.
// Unknown environments produce an empty list.
//
// A walker failure doesn't stop discovery. Whatever the walker printed is still parsed and the failure is
// returned together with the list so the caller can decide how severe it is.
func Discover(ctx context.Context, runner shell.Runner, dir string, env Environment, exe string, extra []string) ([]string, error) {
	walker := env.WalkerCommand(exe)
	if walker == nil {
		return []string{}, nil
	}

	res, err := runner.Run(ctx, dir, walker...)
	libs := ParseWalkerOutput(res.Stdout, env.Namespace())

	return append(libs, extra...), err
}
