package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nebula-lang/nebula-setup/internal/app"
	"github.com/nebula-lang/nebula-setup/internal/installer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if installer.Classify(err).Fails() {
			os.Exit(1)
		}
	}
}
