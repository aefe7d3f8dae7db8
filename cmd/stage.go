package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smolBlackCat/progress-tracker/pkg"
	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Copies libraries and GTK runtime data into the build directory",
	Long: `Runs the dependency walker (ldd for UCRT64, ntldd for MINGW32) on the built
executable and copies every library it reports, a few libraries loaded at runtime
and the GTK data (schemas, icons, pixbuf loaders) into the build directory.

In full mode the libraries go into DLLS/, gdbus.exe and (for UCRT64) ucrtbase.dll
are staged as well and the Progress settings schema is compiled.

Failed copies don't stop the run. They are reported at the end and only affect
the exit status if --strict is passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		opts, err := cfg.Options()
		if err != nil {
			return &exitError{code: ExitConfig, err: err}
		}

		opts.DryRun, err = cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}
		opts.Progress = os.Stderr

		ctx, _ := commandContext(cmd, cfg)
		pkg.PrintTask(fmt.Sprintf("Staging Progress for %s (%s mode)", cfg.Environment, cfg.Mode))
		report, err := stager.New(opts).Stage(ctx)
		if err != nil {
			if report == nil {
				return &exitError{code: ExitConfig, err: err}
			}
			return eris.Wrap(err, "staging aborted")
		}

		pkg.PrintSubtask(fmt.Sprintf("%d libraries resolved, %d items copied", len(report.Libraries), report.Copied))
		if report.OK() {
			pkg.PrintTask("Done")
			return nil
		}

		pkg.PrintTask(fmt.Sprintf("Done with %d warnings", len(report.Warnings)))
		for _, w := range report.Warnings {
			pkg.PrintWarning(w.Error())
		}

		if cfg.Strict {
			return &exitError{code: ExitWarnings}
		}
		return nil
	},
}

func init() {
	stageCmd.Flags().String("mode", "", "staging mode: full (DLLS directory, helpers, schemas) or minimal")
	stageCmd.Flags().String("schema", "", "application settings schema to stage in full mode")
	stageCmd.Flags().String("system-dir", "", "directory containing ucrtbase.dll")
	stageCmd.Flags().BoolP("dry", "n", false, "dry run; only print the steps, don't copy anything")

	rootCmd.AddCommand(stageCmd)
}
