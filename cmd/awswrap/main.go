// Package main is the awswrap command. It builds a cloud.Client from flags,
// environment and an optional config file, then runs one of the list, smoke
// or load-items subcommands against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/smithy-go"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

// describeError prefixes provider errors with their error code.
func describeError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (%s: %s)", err, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}
