package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mantis-labs/mantis-cli/internal/adapters/driving/tui"
	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driving"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

var (
	createConnection string
	createName       string
	createForce      bool
	createPlain      bool
)

var createCmd = &cobra.Command{
	Use:   "create <url>",
	Short: "Create a space from a web page",
	Long: `Matches the URL against the registered connections, extracts the
page's data, submits it to the backend, and prints the portal embed for
the finished space. If a space already exists for the exact URL its
portal is reopened instead, unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createConnection, "connection", "c", "", "connection name to use (defaults to the first trigger match)")
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "space name (connections may derive one when omitted)")
	createCmd.Flags().BoolVar(&createForce, "force", false, "create a new space even if one is cached for this URL")
	createCmd.Flags().BoolVar(&createPlain, "plain", false, "plain line output instead of the live log view")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if dispatcher == nil || orchestrator == nil {
		return errors.New("pipeline not configured")
	}
	pageURL := args[0]
	ctx := cmd.Context()

	if !createForce {
		result, err := orchestrator.Reopen(ctx, pageURL)
		if err == nil {
			cmd.Printf("Reopened cached space %s\n", result.SpaceID)
			printPortal(cmd, result)
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrNoConnection) {
			return err
		}
	}

	connection, err := pickConnection(pageURL)
	if err != nil {
		return err
	}
	logger.Info("using connection %q for %s", connection.Name(), pageURL)

	var result *driving.CreateResult
	if createPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		result, err = createPlainRun(ctx, cmd, connection, pageURL)
	} else {
		result, err = createWithLogView(ctx, connection, pageURL)
	}
	if err != nil {
		return fmt.Errorf("space creation failed: %w", err)
	}

	cmd.Printf("Created space %s\n", result.SpaceID)
	printPortal(cmd, result)
	return nil
}

// pickConnection resolves the connection to run: the named one when
// --connection is set, otherwise the first trigger match.
func pickConnection(pageURL string) (driven.Connection, error) {
	matches := dispatcher.Search(pageURL)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no connection matches %s", domain.ErrNoConnection, pageURL)
	}

	if createConnection == "" {
		return matches[0], nil
	}
	for _, match := range matches {
		if match.Name() == createConnection {
			return match, nil
		}
	}
	return nil, fmt.Errorf("%w: connection %q does not match %s", domain.ErrNoConnection, createConnection, pageURL)
}

// createPlainRun runs the pipeline with line-oriented progress output.
func createPlainRun(ctx context.Context, cmd *cobra.Command, connection driven.Connection, pageURL string) (*driving.CreateResult, error) {
	done := make(chan struct{})
	defer close(done)
	go tailLogs(done, func(message domain.LogMessage) {
		cmd.Printf("  %s\n", message.Message)
	})

	return orchestrator.Create(ctx, connection, pageURL, createName, func(progress domain.GenerationProgress) {
		cmd.Printf("%s (%.0f%%)\n", progress, progress.Percent()*100)
	})
}

// createWithLogView runs the pipeline under the live bubbletea log view.
func createWithLogView(ctx context.Context, connection driven.Connection, pageURL string) (*driving.CreateResult, error) {
	program := tea.NewProgram(tui.NewModel(createName))

	var result *driving.CreateResult
	var createErr error
	done := make(chan struct{})

	go func() {
		result, createErr = orchestrator.Create(ctx, connection, pageURL, createName, func(progress domain.GenerationProgress) {
			program.Send(tui.StageMsg(progress))
		})
		close(done)
		program.Send(tui.DoneMsg{Err: createErr})
	}()

	go tailLogs(done, func(message domain.LogMessage) {
		program.Send(tui.LogMsg(message))
		if stream := orchestrator.Logs(); stream != nil {
			program.Send(tui.StatusMsg(stream.Status()))
		}
	})

	if _, err := program.Run(); err != nil {
		return nil, fmt.Errorf("log view: %w", err)
	}
	<-done

	if createErr != nil {
		return nil, createErr
	}
	return result, nil
}

// tailLogs forwards streamed log messages to sink. The stream opens
// mid-run, once the backend assigns a space id, so poll until it exists.
func tailLogs(done <-chan struct{}, sink func(domain.LogMessage)) {
	var stream driven.LogStream
	for stream == nil {
		select {
		case <-done:
			return
		case <-time.After(100 * time.Millisecond):
		}
		stream = orchestrator.Logs()
	}

	for {
		select {
		case <-done:
			return
		case message, ok := <-stream.Updates():
			if !ok {
				return
			}
			sink(message)
		}
	}
}

func printPortal(cmd *cobra.Command, result *driving.CreateResult) {
	if result.Name != "" {
		cmd.Printf("Name:  %s\n", result.Name)
	}
	if result.Portal != nil {
		cmd.Printf("Embed: %s\n", result.Portal.EmbedURL)
		cmd.Printf("Widget: %s (anchor %s)\n", result.Portal.WidgetID, result.Portal.Anchor)
	}
}
