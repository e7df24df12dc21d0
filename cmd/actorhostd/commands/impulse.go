package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	impulseAddr   string
	impulseFrom   uint32
	impulseTo     uint32
	impulseParams []string
)

var impulseCmd = &cobra.Command{
	Use:   "impulse <handler-name>",
	Short: "Send an externally originated impulse to a running actorhostd",
	Args:  cobra.ExactArgs(1),
	RunE:  runImpulse,
}

func init() {
	impulseCmd.Flags().StringVar(&impulseAddr, "server", "http://localhost:8080", "actorhostd gateway base URL")
	impulseCmd.Flags().Uint32Var(&impulseFrom, "from", 0, "origin address (0 is the host)")
	impulseCmd.Flags().Uint32Var(&impulseTo, "to", 0, "destination actor address")
	impulseCmd.Flags().StringArrayVar(&impulseParams, "param", nil, "a JSON-encoded parameter; may be repeated")
}

func runImpulse(cmd *cobra.Command, args []string) error {
	params := make([]json.RawMessage, 0, len(impulseParams))
	for _, p := range impulseParams {
		params = append(params, json.RawMessage(p))
	}

	body, err := json.Marshal(map[string]any{
		"from":   impulseFrom,
		"to":     impulseTo,
		"name":   args[0],
		"params": params,
	})
	if err != nil {
		return fmt.Errorf("encoding impulse request: %w", err)
	}

	resp, err := http.Post(impulseAddr+"/v1/impulse", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting impulse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("actorhostd rejected impulse: %s", resp.Status)
	}
	fmt.Println("ok")
	return nil
}
