package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buildweld/fetchgraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// envOr returns the named environment variable, or fallback when unset.
// Environment values are flag defaults, so flags always win.
func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("fetchgraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fetchgraph - compiles declarative fetch jobs into CI task records.

Usage:
  fetchgraph [options] [JOBS_PATH]

Arguments:
  JOBS_PATH
    Path to a single .hcl job file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobsFlag := flagSet.String("jobs", "", "Path to the job file or directory.")
	jFlag := flagSet.String("j", "", "Path to the job file or directory (shorthand).")
	manifestsFlag := flagSet.String("manifests", "", "Path to manifest .hcl files for template expansion.")
	keysFlag := flagSet.String("keys", envOr("FETCHGRAPH_KEYS", "."), "Root directory for GPG key files.")
	outFlag := flagSet.String("out", "", "File to write emitted task JSON to. Empty writes to stdout.")
	levelFlag := flagSet.String("level", envOr("FETCHGRAPH_LEVEL", "1"), "Trust level. Options: '1', '2', or '3'.")
	trustDomainFlag := flagSet.String("trust-domain", envOr("FETCHGRAPH_TRUST_DOMAIN", ""), "Trust domain for index routes.")
	projectFlag := flagSet.String("project", envOr("FETCHGRAPH_PROJECT", ""), "Project name for index routes.")
	kindFlag := flagSet.String("kind", "fetch", "Task kind used as the label prefix.")
	fastFlag := flagSet.Bool("fast", false, "Skip cache optimizer registration.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *jobsFlag != "" {
		path = *jobsFlag
	} else if *jFlag != "" {
		path = *jFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		JobsPath:      path,
		ManifestsPath: *manifestsFlag,
		KeysPath:      *keysFlag,
		OutPath:       *outFlag,
		Level:         *levelFlag,
		TrustDomain:   *trustDomainFlag,
		Project:       *projectFlag,
		Kind:          *kindFlag,
		Fast:          *fastFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
