package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	pyversion "github.com/rexologue/isopy/pkg/version"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Download a clean CPython build into the install root",
	Long: `Resolve a version specification against the index and install the
matching build if it is not already present.

The specification is either a branch (3.12), which selects the newest
3.12.x build published, or an exact version (3.12.10). On success the
interpreter path is printed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		python, err := ensure(args[0])
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}
		printInfo("%s  %s", color.GreenString("✔"), python)
	},
}

// ensure resolves and, when absent, installs the requested version,
// returning the interpreter path. Shared by install and use.
func ensure(spec string) (string, error) {
	// Malformed input fails before any network or filesystem work
	if _, err := pyversion.ParseSpec(spec); err != nil {
		return "", err
	}

	mgr, err := newManager()
	if err != nil {
		return "", err
	}
	return mgr.Ensure(spec)
}
