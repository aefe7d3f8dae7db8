package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smolBlackCat/progress-tracker/pkg"
	"github.com/smolBlackCat/progress-tracker/pkg/msys"
	"github.com/smolBlackCat/progress-tracker/pkg/shell"
	"github.com/smolBlackCat/progress-tracker/pkg/stager"
)

var checkToolsCmd = &cobra.Command{
	Use:   "check-tools",
	Short: "Checks that the external tools used for staging are installed",
	Long: `Looks up the dependency walker of the current environment and, in full mode,
glib-compile-schemas in PATH and prints the pacman packages providing the
missing ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		env := msys.Environment(cfg.Environment)
		tools := msys.LookupTools(env.RequiredTools(stager.Mode(cfg.Mode) == stager.ModeFull))

		pkg.PrintTask(fmt.Sprintf("Checking tools for %s", env))
		missing := []string{}
		for _, tool := range tools {
			if tool.Found {
				pkg.PrintSubtask(fmt.Sprintf("%s: %s", tool.Name, tool.Path))
			} else {
				pkg.PrintError(fmt.Sprintf("%s: not found", tool.Name))
				missing = append(missing, tool.Package)
			}
		}

		if len(missing) > 0 {
			pkg.PrintTask("Install the missing tools with:")
			install := append([]string{"pacman", "-S", "--needed"}, missing...)
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", shell.Format(install...))
			return &exitError{code: ExitWarnings}
		}

		return nil
	},
}

func init() {
	checkToolsCmd.Flags().String("mode", "", "staging mode the tools are checked for (full or minimal)")

	rootCmd.AddCommand(checkToolsCmd)
}
