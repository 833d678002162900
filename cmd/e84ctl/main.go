// Command e84ctl wires together the E84 controller (Signal Registry,
// Transition Table State Machine, Load Port Coordinator, Controller
// Facade) and exposes it as a small CLI, following
// marmos91-dittofs/cmd/dittofs's cobra root-command shape.
package main

import (
	"fmt"
	"os"

	"github.com/stev4501/e84ctl/cmd/e84ctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
