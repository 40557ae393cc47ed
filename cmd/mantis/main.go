// Command mantis turns web pages into Mantis spaces from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/oauth2"

	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/auth"
	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/config/file"
	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/mantis"
	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/storage/sqlite"
	"github.com/mantis-labs/mantis-cli/internal/adapters/driven/web"
	"github.com/mantis-labs/mantis-cli/internal/adapters/driving/cli"
	"github.com/mantis-labs/mantis-cli/internal/connections/gdocs"
	"github.com/mantis-labs/mantis-cli/internal/connections/github"
	"github.com/mantis-labs/mantis-cli/internal/connections/pubmed"
	"github.com/mantis-labs/mantis-cli/internal/connections/scholar"
	"github.com/mantis-labs/mantis-cli/internal/connections/websearch"
	"github.com/mantis-labs/mantis-cli/internal/connections/wikipedia"
	"github.com/mantis-labs/mantis-cli/internal/connections/wikirefs"
	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/services"
	"github.com/mantis-labs/mantis-cli/internal/logger"
	"github.com/mantis-labs/mantis-cli/internal/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	if err := settings.Watch(ctx); err != nil {
		logger.Warn("config hot reload unavailable: %v", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening space cache: %w", err)
	}
	defer store.Close()

	credentials := auth.NewCookieSource(settings, file.KeySessionCookie, file.KeyCSRFCookie)

	sdkURL := settings.GetString(file.KeySDKURL)
	wsURL := settings.GetString(file.KeyWSURL)
	if wsURL == "" {
		wsURL = deriveWSURL(sdkURL)
	}

	var clientOpts []mantis.Option
	if interval := settings.GetDuration(file.KeyPollIntervalMS); interval > 0 {
		clientOpts = append(clientOpts, mantis.WithPollInterval(interval))
	}
	if attempts := settings.GetInt(file.KeyMaxPollAttempts); attempts > 0 {
		clientOpts = append(clientOpts, mantis.WithMaxAttempts(attempts))
	}
	if delay := settings.GetDuration(file.KeyReconnectDelayMS); delay > 0 {
		clientOpts = append(clientOpts, mantis.WithReconnectDelay(delay))
	}
	client := mantis.NewClient(sdkURL, wsURL, credentials, clientOpts...)

	broker := relay.New()
	host := relay.NewHost(broker, func(actions []domain.PageAction) {
		for _, action := range actions {
			logger.Info("page action: %s %s[%d]", action.Kind, action.Selector, action.Index)
		}
	})
	portals := services.NewPortalService(host, settings.GetString(file.KeyFrontendURL))

	collab := &driven.Collaborators{
		Pages:       web.NewFetcher(),
		Credentials: credentials,
		Portals:     portals,
	}

	registry := services.NewRegistry(buildConnections(ctx, settings)...)
	orchestrator := services.NewOrchestrator(client, client, store, registry, collab)

	cli.Wire(cli.Wiring{
		Dispatcher:   registry,
		Orchestrator: orchestrator,
		Spaces:       store,
		Settings:     settings,
	})
	return cli.Execute(ctx)
}

// buildConnections assembles the registry in presentation order. API-backed
// connections that need credentials are skipped when none are configured,
// so a bare install still handles the no-key sites.
func buildConnections(ctx context.Context, settings *file.ConfigStore) []driven.Connection {
	connections := []driven.Connection{
		wikipedia.New(),
		wikirefs.New(),
	}

	if token := settings.GetString(file.KeyGoogleDocsToken); token != "" {
		reader, err := gdocs.NewAPIReader(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		if err != nil {
			logger.Warn("google docs connection unavailable: %v", err)
		} else {
			connections = append(connections, gdocs.New(reader))
		}
	} else {
		logger.Debug("google docs connection disabled: no %s configured", file.KeyGoogleDocsToken)
	}

	if apiKey := settings.GetString(file.KeyGoogleAPIKey); apiKey != "" {
		engineID := settings.GetString(file.KeySearchEngineID)
		if engineID == "" {
			engineID = websearch.DefaultEngineID
		}
		searchClient, err := websearch.NewAPIClient(ctx, apiKey, engineID)
		if err != nil {
			logger.Warn("google search connection unavailable: %v", err)
		} else {
			connections = append(connections, websearch.New(searchClient))
		}
	} else {
		logger.Debug("google search connection disabled: no %s configured", file.KeyGoogleAPIKey)
	}

	if serpKey := settings.GetString(file.KeySerpAPIKey); serpKey != "" {
		connections = append(connections, scholar.New(settings.GetString(file.KeySDKURL), serpKey))
	} else {
		logger.Debug("google scholar connection disabled: no %s configured", file.KeySerpAPIKey)
	}

	connections = append(connections, pubmed.New())
	connections = append(connections, github.New(github.NewAPIClient(ctx, settings.GetString(file.KeyGitHubToken))))

	return connections
}

// deriveWSURL maps the HTTP API base to its websocket counterpart.
func deriveWSURL(sdkURL string) string {
	switch {
	case strings.HasPrefix(sdkURL, "https://"):
		return "wss://" + strings.TrimPrefix(sdkURL, "https://")
	case strings.HasPrefix(sdkURL, "http://"):
		return "ws://" + strings.TrimPrefix(sdkURL, "http://")
	default:
		return sdkURL
	}
}
