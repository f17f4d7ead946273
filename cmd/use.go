package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rexologue/isopy/pkg/poetry"
)

// useCmd represents the use command
var useCmd = &cobra.Command{
	Use:   "use <version>",
	Short: "Install if needed, then point Poetry at the interpreter",
	Long: `Resolve and install the requested version like install does, then run
"poetry env use <python>" for the current project. A non-zero exit from
poetry fails the command with its status.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		python, err := ensure(args[0])
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}

		printInfo("Using %s", python)
		if err := poetry.EnvUse(python); err != nil {
			printError("%v", err)
			os.Exit(1)
		}
	},
}
