// Command flightplan searches airline award inventory and queries the
// stored results.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flightplan-tool/flightplan-sub000/cmd/flightplan/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
