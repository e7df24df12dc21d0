package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var inspectAddr string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the running actorhostd's invariant snapshot (spec testable properties)",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectAddr, "server", "http://localhost:8080", "actorhostd gateway base URL")
}

func runInspect(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(inspectAddr + "/v1/snapshot")
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("actorhostd returned %s", resp.Status)
	}

	var snapshot map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
