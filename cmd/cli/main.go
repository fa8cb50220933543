package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/buildweld/fetchgraph/internal/app"
	"github.com/buildweld/fetchgraph/internal/cli"
)

// main is the entrypoint for the fetchgraph compiler.
func main() {
	// CI contexts often supply trust level and domain via a .env file.
	// Flags still override anything loaded here.
	_ = godotenv.Load()

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and
// error handling. Task JSON goes to outW, logs to logW.
func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, logW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	fetchApp, err := app.NewApp(outW, logW, appConfig)
	if err != nil {
		return err
	}

	return fetchApp.Run(context.Background(), appConfig)
}
