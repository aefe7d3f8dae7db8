package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smolBlackCat/progress-tracker/pkg"
	"github.com/smolBlackCat/progress-tracker/pkg/archive"
	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

var packCmd = &cobra.Command{
	Use:   "pack archive_name [items...]",
	Short: "Packs the staged build directory into a .tar.xz, .tar.br or .zip archive",
	Long: `Pass the name of the archive that should be generated and optionally the files
and directories (relative to the build directory) it should contain. Without
items, the executable, gdbus.exe, share, lib and DLLS are packed and missing
ones are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return eris.New("Expected at least 1 argument!")
		}

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		opts := archive.Options{
			Base:  cfg.Dir,
			Items: args[1:],
		}
		if len(opts.Items) == 0 {
			opts.Items = []string{cfg.Executable, "gdbus.exe", "share", "lib", stager.LibDir}
			opts.IgnoreMissing = true
		}

		ctx, _ := commandContext(cmd, cfg)
		pkg.PrintTask(fmt.Sprintf("Packing %s", filepath.Base(args[0])))
		count, err := archive.Pack(ctx, args[0], opts)
		if err != nil {
			return err
		}

		pkg.PrintSubtask(fmt.Sprintf("%d files packed", count))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
}
