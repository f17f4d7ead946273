package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rexologue/isopy/pkg/config"
	"github.com/rexologue/isopy/pkg/index"
	"github.com/rexologue/isopy/pkg/install"
)

var (
	// Version information set from main
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// Global flags
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "isopy",
	Short: "Install isolated CPython builds and integrate them with Poetry",
	Long: `isopy installs standalone CPython builds into a per-user directory
(~/.isopy/<version>) and wires them into Poetry projects.

Versions come from a remote index of prebuilt archives. A request may
name a branch (3.12) or an exact version (3.12.10); branches resolve to
the newest matching build.

Examples:
  isopy install 3.12     # install the newest 3.12.x build
  isopy use 3.12.10      # install if needed, then: poetry env use
  isopy list             # show installed versions
  isopy update-index     # refresh the version index now`,

	// Show help if no command is provided
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information from main
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	index.UserAgent = "isopy/" + v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateIndexCmd)
	rootCmd.AddCommand(versionCmd)
}

// newManager loads the effective settings and wires a manager from them
func newManager() (*install.Manager, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	printVerbose("Install root: %s", settings.Home)
	printVerbose("Index source: %s (%s)", settings.Source, settings.IndexURL)
	return install.NewManager(settings), nil
}

// Helper functions for output
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
