package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Prints the libraries that would be staged",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		opts, err := cfg.Options()
		if err != nil {
			return &exitError{code: ExitConfig, err: err}
		}

		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		ctx, logger := commandContext(cmd, cfg)
		libs, stepErr, err := stager.New(opts).Libraries(ctx)
		if err != nil {
			return &exitError{code: ExitConfig, err: err}
		}

		out := cmd.OutOrStdout()
		if asJSON {
			data, err := json.MarshalIndent(libs, "", "  ")
			if err != nil {
				return eris.Wrap(err, "failed to encode library list")
			}
			fmt.Fprintln(out, string(data))
		} else {
			for _, lib := range libs {
				fmt.Fprintln(out, lib)
			}
		}

		if stepErr != nil {
			if cfg.Strict {
				return &exitError{code: ExitWarnings, err: stepErr}
			}
			logger.Warn().Str("step", stepErr.Step).Msg(stepErr.Error())
		}

		return nil
	},
}

func init() {
	depsCmd.Flags().Bool("json", false, "print the list as JSON array")

	rootCmd.AddCommand(depsCmd)
}
