package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smolBlackCat/progress-tracker/pkg"
	"github.com/smolBlackCat/progress-tracker/pkg/config"
	"github.com/smolBlackCat/progress-tracker/pkg/msys"
	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

// Exit codes
const (
	ExitOK       = 0
	ExitConfig   = 1
	ExitWarnings = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

var rootCmd = &cobra.Command{
	Use:   "stage-tool",
	Short: "Packaging tools for Progress on Windows",
	Long: `This command bundles the tools used to turn a Progress build inside an MSYS2
environment into a self-contained Windows distribution. It has to be run from
the build directory (PROJECT_BINARY_DIR) unless --dir is passed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.File, "configuration file (optional)")
	flags.String("env", "", "MSYS2 environment (defaults to $MSYSTEM)")
	flags.StringP("dir", "C", "", "build directory")
	flags.String("prefix", "", "MSYS2 installation directory (i.e. C:/msys64)")
	flags.String("exe", "", "executable to inspect, relative to the build directory")
	flags.String("manifest", "", "YAML staging manifest replacing the built-in layout")
	flags.Bool("strict", false, "exit with status 2 if any step failed")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "print JSON lines instead of pretty console messages")
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			pkg.PrintError(exitErr.Error())
		}
		return exitErr.code
	}

	pkg.PrintError(err.Error())
	return ExitConfig
}

var stringOverrides = map[string]func(*config.Config) *string{
	"env":        func(c *config.Config) *string { return &c.Environment },
	"dir":        func(c *config.Config) *string { return &c.Dir },
	"prefix":     func(c *config.Config) *string { return &c.Prefix },
	"exe":        func(c *config.Config) *string { return &c.Executable },
	"manifest":   func(c *config.Config) *string { return &c.Manifest },
	"log-level":  func(c *config.Config) *string { return &c.LogLevel },
	"mode":       func(c *config.Config) *string { return &c.Mode },
	"schema":     func(c *config.Config) *string { return &c.Schema },
	"system-dir": func(c *config.Config) *string { return &c.SystemDir },
}

var boolOverrides = map[string]func(*config.Config) *bool{
	"strict":   func(c *config.Config) *bool { return &c.Strict },
	"log-json": func(c *config.Config) *bool { return &c.LogJSON },
}

// loadConfig merges the config file, the environment and the command line flags. Configuration errors
// are turned into exit code 1.
func loadConfig(cmd *cobra.Command, needEnv bool) (*config.Config, error) {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, &exitError{code: ExitConfig, err: err}
	}

	for name, field := range stringOverrides {
		flag := cmd.Flags().Lookup(name)
		if flag != nil && flag.Changed {
			*field(cfg) = flag.Value.String()
		}
	}

	for name, field := range boolOverrides {
		flag := cmd.Flags().Lookup(name)
		if flag != nil && flag.Changed {
			value, err := cmd.Flags().GetBool(name)
			if err != nil {
				return nil, err
			}
			*field(cfg) = value
		}
	}

	if needEnv {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateOptions()
	}
	if err != nil {
		if eris.Is(err, msys.ErrUnsupportedEnvironment) {
			pkg.PrintError("Not running inside a supported MSYS2 environment (UCRT64 or MINGW32).")
		}
		return nil, &exitError{code: ExitConfig, err: err}
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *zerolog.Logger {
	var logger zerolog.Logger
	if cfg.LogJSON {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(NewConsoleWriter(os.Stderr))
	}

	logger = logger.Level(cfg.Level())
	return &logger
}

func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, *zerolog.Logger) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger(cfg)
	return stager.WithLogger(ctx, logger), logger
}
