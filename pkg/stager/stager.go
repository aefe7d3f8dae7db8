// Package stager assembles the Windows distribution of Progress: the libraries progress-tracker.exe links
// against, the GTK runtime data and, in full mode, the helper executables and the compiled settings schema.
//
// Staging is best effort. Failed copies and tool invocations are collected in the Report instead of
// aborting the run.
package stager

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"

	"github.com/smolBlackCat/progress-tracker/pkg/msys"
	"github.com/smolBlackCat/progress-tracker/pkg/shell"
)

// Mode selects how much gets staged
type Mode string

const (
	// ModeMinimal copies the libraries next to the executable's build directory and the GTK data
	ModeMinimal Mode = "minimal"
	// ModeFull additionally stages helpers and system libraries into DLLS and compiles the schemas
	ModeFull Mode = "full"
)

// LibDir is the library directory used in full mode
const LibDir = "DLLS"

const (
	// DefaultExecutable is the build output relative to the build directory
	DefaultExecutable = "src/progress-tracker.exe"
	// DefaultSchema is the application schema relative to the build directory
	DefaultSchema = "../data/io.github.smolblackcat.Progress.gschema.xml"
	// DefaultSystemDir is where Windows keeps its runtime libraries, as seen from an MSYS2 shell
	DefaultSystemDir = "/c/Windows/System32"
	// SchemaCompiler compiles the schema directory into gschemas.compiled
	SchemaCompiler = "glib-compile-schemas"
)

// ErrInvalidMode is returned for modes other than ModeMinimal and ModeFull
var ErrInvalidMode = eris.New("invalid staging mode")

// ParseMode validates value
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeMinimal, ModeFull:
		return Mode(value), nil
	default:
		return "", eris.Wrapf(ErrInvalidMode, "%q (must be %s or %s)", value, ModeMinimal, ModeFull)
	}
}

// Options configures a Stager
type Options struct {
	Environment msys.Environment
	Mode        Mode
	// Dir is the build directory; every relative path is resolved against it
	Dir string
	// Prefix is the MSYS2 installation the environment roots live in
	Prefix     string
	Executable string
	SystemDir  string
	Schema     string
	// Manifest defaults to DefaultManifest()
	Manifest *Manifest
	// Runner defaults to shell.Interp
	Runner shell.Runner
	DryRun bool
	// Progress receives the library copy progress bar; nil disables it
	Progress io.Writer
}

// Report summarizes a staging run
type Report struct {
	Environment msys.Environment
	Root        string
	Libraries   []string
	Copied      int
	Warnings    []*StepError
}

// OK reports whether every step succeeded
func (r *Report) OK() bool {
	return len(r.Warnings) == 0
}

// Stager stages a distribution according to its Options
type Stager struct {
	opts Options
}

// New creates a Stager and fills in defaults for unset options
func New(opts Options) *Stager {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Prefix == "" {
		opts.Prefix = "/"
	}
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
	}
	if opts.SystemDir == "" {
		opts.SystemDir = DefaultSystemDir
	}
	if opts.Schema == "" {
		opts.Schema = DefaultSchema
	}
	if opts.Runner == nil {
		opts.Runner = &shell.Interp{}
	}

	return &Stager{opts: opts}
}

func (s *Stager) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(s.opts.Dir, filepath.FromSlash(rel))
}

func (s *Stager) manifest() (*Manifest, error) {
	if s.opts.Manifest != nil {
		return s.opts.Manifest, nil
	}

	return DefaultManifest()
}

// libDir returns the directory the libraries are copied into relative to the build directory
func (s *Stager) libDir() string {
	if s.opts.Mode == ModeFull {
		return LibDir
	}

	return "."
}

// Libraries runs the dependency walker for the configured environment and returns the libraries that
// have to be staged. The error is non-nil if the environment is invalid; walker failures are returned
// as a *StepError next to the list.
func (s *Stager) Libraries(ctx context.Context) ([]string, *StepError, error) {
	env, err := msys.ParseEnvironment(string(s.opts.Environment))
	if err != nil {
		return nil, nil, err
	}

	m, err := s.manifest()
	if err != nil {
		return nil, nil, err
	}

	libs, err := msys.Discover(ctx, s.opts.Runner, s.opts.Dir, env, s.opts.Executable, m.Supplemental)
	if err != nil {
		return libs, newStepError("discover", shell.Format(env.WalkerCommand(s.opts.Executable)...), KindToolFailed, err), nil
	}

	return libs, nil, nil
}

// Stage runs every step. The returned error is only non-nil for configuration problems, in which case
// nothing was touched. Failed steps end up in Report.Warnings.
func (s *Stager) Stage(ctx context.Context) (*Report, error) {
	env, err := msys.ParseEnvironment(string(s.opts.Environment))
	if err != nil {
		return nil, err
	}

	if _, err := ParseMode(string(s.opts.Mode)); err != nil {
		return nil, err
	}

	m, err := s.manifest()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Environment: env,
		Root:        env.Root(s.opts.Prefix),
	}
	logger := log(ctx)
	logger.Info().
		Str("env", string(env)).
		Str("mode", string(s.opts.Mode)).
		Str("path", report.Root).
		Msgf("Staging from %s", report.Root)

	err = s.createDirs(ctx, m.StagingDirs(s.libDir()))
	if err != nil {
		return report, err
	}

	libs, stepErr, err := s.Libraries(ctx)
	if err != nil {
		return report, err
	}
	if stepErr != nil {
		s.warn(ctx, report, stepErr)
	}
	report.Libraries = libs

	for _, asset := range m.Assets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		src := filepath.Join(report.Root, filepath.FromSlash(asset.Source))
		s.copyInto(ctx, report, "copy asset", src, s.path(asset.Dest))
	}

	err = s.copyLibraries(ctx, report, libs)
	if err != nil {
		return report, err
	}

	if s.opts.Mode == ModeFull {
		for _, name := range m.SystemLibraries[string(env)] {
			s.copyInto(ctx, report, "copy system library", filepath.Join(s.opts.SystemDir, name), s.path(LibDir))
		}

		for _, helper := range m.Helpers {
			s.copyInto(ctx, report, "copy helper", filepath.Join(report.Root, filepath.FromSlash(helper)), s.opts.Dir)
		}

		if m.SchemaDir != "" {
			logger.Info().Msg("Setting up Progress schemas")
			s.copyInto(ctx, report, "copy schema", s.path(s.opts.Schema), s.path(m.SchemaDir))
			s.compileSchemas(ctx, report, m.SchemaDir)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	return report, nil
}

func (s *Stager) warn(ctx context.Context, report *Report, stepErr *StepError) {
	report.Warnings = append(report.Warnings, stepErr)
	log(ctx).Warn().
		Str("step", stepErr.Step).
		Str("kind", string(stepErr.Kind)).
		Str("path", stepErr.Target).
		Msg(stepErr.Error())
}

// createDirs creates the staging directories. Existing directories are fine since their content will
// simply be replaced.
func (s *Stager) createDirs(ctx context.Context, dirs []string) error {
	existing := 0
	for _, dir := range dirs {
		dir = s.path(dir)
		if s.opts.DryRun {
			log(ctx).Info().Bool("command", true).Msg(shell.Format("mkdir", dir))
			continue
		}

		err := os.Mkdir(dir, 0o755)
		if err == nil {
			continue
		}

		if !eris.Is(err, os.ErrExist) {
			return eris.Wrapf(err, "failed to create %s", dir)
		}

		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			return eris.Wrapf(err, "%s exists but is not a directory", dir)
		}
		existing++
	}

	if existing > 0 {
		log(ctx).Info().Msg("Directories already exist. Files will be replaced")
	}
	return nil
}

// copyInto copies src (file or directory) into destDir keeping its base name
func (s *Stager) copyInto(ctx context.Context, report *Report, step, src, destDir string) {
	dest := filepath.Join(destDir, filepath.Base(src))
	if s.opts.DryRun {
		log(ctx).Info().Bool("command", true).Msg(shell.Format("cp", "-r", src, destDir))
		return
	}

	log(ctx).Debug().Str("step", step).Str("path", src).Msgf("%s -> %s", src, dest)
	err := copy.Copy(src, dest)
	if err != nil {
		s.warn(ctx, report, newStepError(step, src, KindOther, err))
		return
	}

	report.Copied++
}

func (s *Stager) copyLibraries(ctx context.Context, report *Report, libs []string) error {
	var bar *progressbar.ProgressBar
	if s.opts.Progress != nil && !s.opts.DryRun {
		bar = progressbar.NewOptions(len(libs),
			progressbar.OptionSetWriter(s.opts.Progress),
			progressbar.OptionSetDescription("libraries"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	binDir := filepath.Join(report.Root, "bin")
	destDir := s.path(s.libDir())
	seen := make(map[string]bool, len(libs))

	for _, name := range libs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if bar != nil {
			bar.Add(1)
		}

		if seen[name] {
			continue
		}
		seen[name] = true

		s.copyInto(ctx, report, "copy library", filepath.Join(binDir, name), destDir)
	}

	return nil
}

func (s *Stager) compileSchemas(ctx context.Context, report *Report, schemaDir string) {
	args := []string{SchemaCompiler, filepath.ToSlash(filepath.Clean(schemaDir)) + "/"}
	log(ctx).Info().Bool("command", true).Msg(shell.Format(args...))
	if s.opts.DryRun {
		return
	}

	_, err := s.opts.Runner.Run(ctx, s.opts.Dir, args...)
	if err != nil {
		s.warn(ctx, report, newStepError("compile schemas", shell.Format(args...), KindToolFailed, err))
	}
}
