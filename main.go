// nbtether - keeps a notebook instance tethered to its development
// endpoint: SSH key rotation, tunnel management, and background
// reconciliation of liveness and desired-target drift.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nbtether/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "nbtether: %v\n", err)
		os.Exit(1)
	}
}
