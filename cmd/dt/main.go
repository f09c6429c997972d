package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/osintworks/domaintools-client/internal/cmd"
	"github.com/osintworks/domaintools-client/pkg/client"
)

// Version information set via ldflags during build.
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	// Ctrl-C cancels in-flight work cooperatively; finished batch items
	// keep their results.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to distinct process exit codes so scripts can
// tell configuration mistakes from lookup failures.
func exitCode(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case client.KindAuthentication:
			return 3
		case client.KindConfiguration:
			return 2
		case client.KindCancelled:
			return 130
		default:
			return 1
		}
	}
	return 1
}
