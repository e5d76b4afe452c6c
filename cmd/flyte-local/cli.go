package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
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

// config is the parsed CLI configuration.
type config struct {
	ManifestPath string
	Describe     bool
	UseEngine    bool
	Workers      int
	Retries      uint64
	LogFormat    string
	LogLevel     string
	Inputs       map[string]any
}

// inputFlags collects repeated -input name=value pairs.
type inputFlags map[string]any

func (f inputFlags) String() string {
	return fmt.Sprintf("%v", map[string]any(f))
}

func (f inputFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return fmt.Errorf("input must be name=value, got %q", raw)
	}
	f[name] = parseScalar(value)
	return nil
}

// parseScalar guesses the native type of a CLI-supplied value: bool, number,
// or string. Literal conversion to the declared type happens later.
func parseScalar(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	return value
}

// parseArgs processes command-line arguments. It returns a populated config,
// a boolean indicating a clean early exit, or an ExitError.
func parseArgs(args []string, output io.Writer) (*config, bool, error) {
	flagSet := flag.NewFlagSet("flyte-local", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
flyte-local - Compiles the bundled example workflow and runs it in-process.

Usage:
  flyte-local [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifests", "", "Path to a directory of .hcl task manifests for parity validation.")
	describeFlag := flagSet.Bool("describe", false, "Print the compiled graph instead of executing it.")
	engineFlag := flagSet.Bool("engine", false, "Execute via the graph engine instead of local replay.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the graph engine.")
	retriesFlag := flagSet.Uint64("retries", 2, "Per-node retry budget for the graph engine.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	inputs := inputFlags{}
	flagSet.Var(inputs, "input", "Workflow input as name=value. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
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

	return &config{
		ManifestPath: *manifestFlag,
		Describe:     *describeFlag,
		UseEngine:    *engineFlag,
		Workers:      *workersFlag,
		Retries:      *retriesFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Inputs:       inputs,
	}, false, nil
}
