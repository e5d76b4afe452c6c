package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/engine"
	"github.com/YmirKhang/flytekit/manifest"
	"github.com/YmirKhang/flytekit/workflow"
)

// main is the entrypoint for the flyte-local demo binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := parseArgs(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	ctx := ctxlog.WithLogger(context.Background(), newLogger(cfg))

	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	if cfg.ManifestPath != "" {
		defs, err := manifest.LoadDir(ctx, cfg.ManifestPath)
		if err != nil {
			return err
		}
		if err := reg.ValidateParity(ctx, defs); err != nil {
			return err
		}
		if err := reg.ApplyManifestDefaults(ctx, defs); err != nil {
			return err
		}
	}

	wf, err := compileExample(ctx, reg)
	if err != nil {
		return err
	}

	if cfg.Describe {
		describe(outW, wf)
		return nil
	}

	var result any
	if cfg.UseEngine {
		eng := engine.New(reg, engine.WithWorkers(cfg.Workers), engine.WithMaxRetries(cfg.Retries))
		result, err = eng.Execute(ctx, wf.Definition(), cfg.Inputs)
	} else {
		result, err = wf.Execute(ctx, cfg.Inputs)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(outW, "%v\n", result)
	return nil
}

// newLogger builds the slog logger the CLI flags ask for.
func newLogger(cfg *config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// describe prints the compiled graph: nodes with their bindings, then the
// workflow-level output bindings.
func describe(outW io.Writer, wf *workflow.Workflow) {
	def := wf.Definition()
	fmt.Fprintf(outW, "workflow %s\n", def.ID().String())
	for _, n := range def.Nodes() {
		fmt.Fprintf(outW, "  node %s (task %s)\n", n.ID, n.Name)
		for _, b := range n.Bindings {
			if ref, ok := b.Data.Reference(); ok {
				fmt.Fprintf(outW, "    %s <- %s.%s\n", b.Var, ref.NodeID, ref.Var)
				continue
			}
			val, _ := b.Data.Literal()
			fmt.Fprintf(outW, "    %s = %s\n", b.Var, val.GoString())
		}
	}
	for _, b := range def.OutputBindings() {
		if ref, ok := b.Data.Reference(); ok {
			fmt.Fprintf(outW, "  output %s <- %s.%s\n", b.Var, ref.NodeID, ref.Var)
			continue
		}
		val, _ := b.Data.Literal()
		fmt.Fprintf(outW, "  output %s = %s\n", b.Var, val.GoString())
	}
}
