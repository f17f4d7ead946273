package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// updateIndexCmd represents the update-index command
var updateIndexCmd = &cobra.Command{
	Use:   "update-index",
	Short: "Force a refresh of the version index",
	Long: `Discard the cached version index and fetch a fresh one immediately,
regardless of the cache's age. Normally the cache refreshes itself once
it is older than the configured TTL (12 hours by default).`,
	Run: func(cmd *cobra.Command, args []string) {
		mgr, err := newManager()
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}

		count, err := mgr.UpdateIndex()
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}
		printInfo("%s  Index updated: %d versions available", color.GreenString("✔"), count)
	},
}
