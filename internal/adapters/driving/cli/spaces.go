package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var spacesJSON bool

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Manage cached spaces",
}

var spacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List previously created spaces",
	RunE:  runSpacesList,
}

var spacesRmCmd = &cobra.Command{
	Use:   "rm <space-id>",
	Short: "Remove a space from the cache",
	Long: `Removes the cached record of a space. The space itself stays on the
backend; the next create for its URL builds a fresh one.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpacesRm,
}

func init() {
	spacesListCmd.Flags().BoolVar(&spacesJSON, "json", false, "output as JSON")
	spacesCmd.AddCommand(spacesListCmd)
	spacesCmd.AddCommand(spacesRmCmd)
	rootCmd.AddCommand(spacesCmd)
}

func runSpacesList(cmd *cobra.Command, args []string) error {
	if spaceStore == nil {
		return errors.New("space store not configured")
	}

	spaces, err := spaceStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing spaces: %w", err)
	}

	if spacesJSON {
		data, err := json.MarshalIndent(spaces, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling spaces: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(spaces) == 0 {
		cmd.Println("No cached spaces.")
		return nil
	}

	for _, space := range spaces {
		name := space.Name
		if name == "" {
			name = "(unnamed)"
		}
		cmd.Printf("  %s  %s\n", space.ID, name)
		cmd.Printf("      %s via %s, created %s\n", space.URL, space.ConnectionParent, space.DateCreated.Format("2006-01-02 15:04"))
	}
	return nil
}

func runSpacesRm(cmd *cobra.Command, args []string) error {
	if spaceStore == nil {
		return errors.New("space store not configured")
	}

	if err := spaceStore.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
