package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/stev4501/e84ctl/internal/opapi"
)

var setModeCmd = &cobra.Command{
	Use:   "set-mode AUTO|MANUAL|MAINTENANCE",
	Short: "Change the operator mode (only AUTO permits HO_AVBL)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetMode,
}

func runSetMode(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(struct {
		Mode string `json:"mode"`
	}{Mode: args[0]})
	if err != nil {
		return fmt.Errorf("encode set-mode request: %w", err)
	}

	resp, err := http.Post(apiAddr+"/mode", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post mode: %w", err)
	}
	defer resp.Body.Close()

	var status opapi.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode set-mode response: %w", err)
	}
	if status.Error != "" {
		return fmt.Errorf("%s", status.Error)
	}
	fmt.Printf("mode: %s\nstate: %s\n", status.Mode, status.State)
	return nil
}
