package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/stev4501/e84ctl/internal/opapi"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Force the controller into ES_ASSERTED, dropping all outputs",
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	resp, err := http.Post(apiAddr+"/stop", "application/json", nil)
	if err != nil {
		return fmt.Errorf("post stop: %w", err)
	}
	defer resp.Body.Close()

	var status opapi.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode stop response: %w", err)
	}
	if status.Error != "" {
		return fmt.Errorf("%s", status.Error)
	}
	fmt.Printf("state: %s\n", status.State)
	return nil
}
