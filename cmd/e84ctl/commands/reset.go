package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/stev4501/e84ctl/internal/opapi"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a faulted controller back to IDLE",
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	resp, err := http.Post(apiAddr+"/reset", "application/json", nil)
	if err != nil {
		return fmt.Errorf("post reset: %w", err)
	}
	defer resp.Body.Close()

	var status opapi.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode reset response: %w", err)
	}
	if status.Error != "" {
		return fmt.Errorf("%s", status.Error)
	}
	fmt.Printf("state: %s\n", status.State)
	return nil
}
