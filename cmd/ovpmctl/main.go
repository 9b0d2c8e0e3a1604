// Package main provides the entry point for the ovpmctl admin CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cad/ovpm/sdk/go/cmd/ovpmctl/app"
)

// Version information populated at build time.
var version = "dev"

func main() {
	application, err := app.New(version)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	runErr := application.Execute(ctx, os.Args[1:])

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("shutdown")
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		os.Exit(1)
	}
}
