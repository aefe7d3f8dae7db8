package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/smolBlackCat/progress-tracker/pkg/msys"
	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

// File is the optional config file looked up in the working directory
const File = "progress-stage.toml"

// Config describes all configuration options
type Config struct {
	Environment string `env:"MSYSTEM" toml:"environment" usage:"MSYS2 environment to stage for (UCRT64 or MINGW32)"`
	Mode        string `default:"full" env:"PROGRESS_STAGE_MODE" toml:"mode" usage:"Staging mode (full or minimal)"`
	Dir         string `default:"." env:"PROGRESS_STAGE_DIR" toml:"dir" usage:"Build directory (PROJECT_BINARY_DIR)"`
	Prefix      string `default:"/" env:"PROGRESS_STAGE_PREFIX" toml:"prefix" usage:"MSYS2 installation directory containing the environment roots"`
	Executable  string `default:"src/progress-tracker.exe" env:"PROGRESS_STAGE_EXE" toml:"executable" usage:"Executable to inspect, relative to the build directory"`
	Schema      string `default:"../data/io.github.smolblackcat.Progress.gschema.xml" env:"PROGRESS_STAGE_SCHEMA" toml:"schema" usage:"Application settings schema"`
	SystemDir   string `default:"/c/Windows/System32" env:"PROGRESS_STAGE_SYSTEM_DIR" toml:"system_dir" usage:"Directory containing the Windows runtime libraries"`
	Manifest    string `env:"PROGRESS_STAGE_MANIFEST" toml:"manifest" usage:"Staging manifest replacing the built-in layout"`
	Strict      bool   `default:"false" env:"PROGRESS_STAGE_STRICT" toml:"strict" usage:"Fail if any step failed"`
	LogLevel    string `default:"info" env:"PROGRESS_STAGE_LOG_LEVEL" toml:"log_level"`
	LogJSON     bool   `default:"false" env:"PROGRESS_STAGE_LOG_JSON" toml:"log_json" usage:"Output JSON lines instead of pretty console messages"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object. Flags are handled by
// the CLI so they are skipped here.
func Loader(files ...string) (*Config, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{File}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads defaults, the config files and the environment
func Load(files ...string) (*Config, error) {
	cfg, loader := Loader(files...)
	err := loader.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, err := msys.ParseEnvironment(cfg.Environment)
	if err != nil {
		return err
	}

	return cfg.ValidateOptions()
}

// ValidateOptions is Validate without the environment check for commands that don't need one
func (cfg *Config) ValidateOptions() error {
	_, err := stager.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	_, ok := logLevels[cfg.LogLevel]
	if !ok {
		return eris.Errorf(`Invalid value for log_level: %s`, cfg.LogLevel)
	}

	return nil
}

// Level converts the LogLevel field to a zerolog.Level
func (cfg *Config) Level() zerolog.Level {
	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		return zerolog.InfoLevel
	}

	return level
}

// Options turns the configuration into stager options. The manifest is loaded if one was configured.
func (cfg *Config) Options() (stager.Options, error) {
	opts := stager.Options{
		Environment: msys.Environment(cfg.Environment),
		Mode:        stager.Mode(cfg.Mode),
		Dir:         cfg.Dir,
		Prefix:      cfg.Prefix,
		Executable:  cfg.Executable,
		SystemDir:   cfg.SystemDir,
		Schema:      cfg.Schema,
	}

	if cfg.Manifest != "" {
		m, err := stager.LoadManifest(cfg.Manifest)
		if err != nil {
			return opts, err
		}
		opts.Manifest = m
	}

	return opts, nil
}
