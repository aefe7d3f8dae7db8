package stager

import (
	_ "embed"
	"io/ioutil"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/smolBlackCat/progress-tracker/pkg/msys"
)

//go:embed staging.yml
var defaultManifest []byte

// Asset is a directory copied recursively from the environment root into Dest
type Asset struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// Manifest describes the static part of the staged tree
type Manifest struct {
	Supplemental    []string            `yaml:"supplemental"`
	Assets          []Asset             `yaml:"assets"`
	Helpers         []string            `yaml:"helpers"`
	SystemLibraries map[string][]string `yaml:"systemLibraries"`
	SchemaDir       string              `yaml:"schemaDir"`
}

// DefaultManifest returns the built-in layout
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(defaultManifest, "staging.yml")
}

// LoadManifest reads and validates the manifest at file
func LoadManifest(file string) (*Manifest, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", file)
	}

	return ParseManifest(data, file)
}

// ParseManifest decodes a manifest. name is only used for error messages.
func ParseManifest(data []byte, name string) (*Manifest, error) {
	var m Manifest
	err := yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", name)
	}

	err = m.Validate()
	if err != nil {
		return nil, eris.Wrapf(err, "invalid manifest %s", name)
	}

	return &m, nil
}

func isLocalPath(p string) bool {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}

	clean := path.Clean(filepath.ToSlash(p))
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// Validate makes sure that every path stays inside the environment root and the build directory
func (m *Manifest) Validate() error {
	for idx, asset := range m.Assets {
		if !isLocalPath(asset.Source) {
			return eris.Errorf("assets[%d]: source %q must be relative to the environment root", idx, asset.Source)
		}

		if !isLocalPath(asset.Dest) {
			return eris.Errorf("assets[%d]: dest %q must be relative to the build directory", idx, asset.Dest)
		}
	}

	for idx, helper := range m.Helpers {
		if !isLocalPath(helper) {
			return eris.Errorf("helpers[%d]: %q must be relative to the environment root", idx, helper)
		}
	}

	for _, list := range [][]string{m.Supplemental, systemLibraryNames(m.SystemLibraries)} {
		for _, name := range list {
			if name == "" || strings.ContainsAny(name, `/\`) {
				return eris.Errorf("%q is not a plain library name", name)
			}
		}
	}

	for env := range m.SystemLibraries {
		if !msys.Environment(env).Valid() {
			return eris.Errorf("systemLibraries: unknown environment %s", env)
		}
	}

	if m.SchemaDir != "" && !isLocalPath(m.SchemaDir) {
		return eris.Errorf("schemaDir %q must be relative to the build directory", m.SchemaDir)
	}

	return nil
}

func systemLibraryNames(libs map[string][]string) []string {
	result := []string{}
	for _, names := range libs {
		result = append(result, names...)
	}

	return result
}

// StagingDirs returns the directories every run creates. The library directory comes last if it's not the
// build directory itself.
func (m *Manifest) StagingDirs(libDir string) []string {
	dirs := []string{}
	seen := map[string]bool{}

	for _, asset := range m.Assets {
		dest := filepath.FromSlash(path.Clean(asset.Dest))
		if !seen[dest] {
			seen[dest] = true
			dirs = append(dirs, dest)
		}
	}

	if libDir != "" && libDir != "." && !seen[libDir] {
		dirs = append(dirs, libDir)
	}

	return dirs
}
