package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show installed Python versions",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, err := newManager()
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}

		installed, err := mgr.ListInstalled()
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}

		if len(installed) == 0 {
			printInfo("No versions installed yet. Try: isopy install 3.12")
			return
		}
		for _, i := range installed {
			printInfo("%s → %s", color.CyanString(i.Version), i.Executable)
		}
	},
}
