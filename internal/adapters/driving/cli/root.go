// Package cli implements the mantis command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/config/file"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driving"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

var verbose bool

// Injected ports; set by Wire before Execute runs.
var (
	dispatcher   driving.Dispatcher
	orchestrator driving.SpaceOrchestrator
	spaceStore   driven.SpaceStore
	settings     *file.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "mantis",
	Short: "Turn web pages into Mantis spaces",
	Long: `mantis extracts structured data from supported sites (Wikipedia,
PubMed, Google Scholar, GitHub, and more), submits it to the Mantis
backend, and emits an embeddable space portal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Wiring carries the constructed ports into the command tree.
type Wiring struct {
	Dispatcher   driving.Dispatcher
	Orchestrator driving.SpaceOrchestrator
	Spaces       driven.SpaceStore
	Settings     *file.ConfigStore
}

// Wire injects the application ports. It must run before Execute.
func Wire(w Wiring) {
	dispatcher = w.Dispatcher
	orchestrator = w.Orchestrator
	spaceStore = w.Spaces
	settings = w.Settings
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
