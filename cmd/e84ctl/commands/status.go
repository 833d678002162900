package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/stev4501/e84ctl/internal/opapi"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the running controller's current state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(apiAddr + "/status")
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	var status opapi.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	if status.Error != "" {
		return fmt.Errorf("%s", status.Error)
	}

	fmt.Printf("state:   %s\n", status.State)
	fmt.Printf("mode:    %s\n", status.Mode)
	fmt.Println("signals:")
	for name, level := range status.Signals {
		fmt.Printf("  %-16s %v\n", name, level)
	}
	return nil
}
