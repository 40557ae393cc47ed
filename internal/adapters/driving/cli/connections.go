package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var connectionsJSON bool

var connectionsCmd = &cobra.Command{
	Use:   "connections [url]",
	Short: "List the available site connections",
	Long: `Lists every registered connection. With a URL argument, lists only
the connections whose trigger matches it, in the order they would be
offered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnections,
}

func init() {
	connectionsCmd.Flags().BoolVar(&connectionsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(connectionsCmd)
}

func runConnections(cmd *cobra.Command, args []string) error {
	if dispatcher == nil {
		return errors.New("dispatcher not configured")
	}

	connections := dispatcher.List()
	if len(args) == 1 {
		connections = dispatcher.Search(args[0])
	}

	if connectionsJSON {
		type info struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		infos := make([]info, len(connections))
		for i, connection := range connections {
			infos[i] = info{Name: connection.Name(), Description: connection.Description()}
		}
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling connections: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(connections) == 0 {
		cmd.Println("No matching connections.")
		return nil
	}

	for i, connection := range connections {
		cmd.Printf("  [%d] %s\n", i+1, connection.Name())
		cmd.Printf("      %s\n", connection.Description())
	}
	return nil
}
