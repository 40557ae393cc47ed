package cli

import (
	"github.com/spf13/cobra"
)

// Version is the CLI version, overridable at build time via
// -ldflags "-X .../cli.Version=...".
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mantis version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("mantis %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
