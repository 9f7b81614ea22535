// Command scaffold_publish runs the publish action once
// outside a pipeline host. It reads the action input as
// JSON, publishes the target path of the workspace as an
// issue or merge request and writes the action outputs
// as JSON.
//
// The exit status is 2 when the failure is an input
// error the caller can fix, 1 otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/scaffold_publish/publish"
	"github.com/byte4ever/scaffold_publish/publish/errdefs"
	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
	"github.com/byte4ever/scaffold_publish/publish/remote/github"
	"github.com/byte4ever/scaffold_publish/publish/remote/gitlab"
)

const stdio = "-"

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	stop()

	if err == nil {
		return
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}

	slog.Error("fatal", "error", err)

	if errdefs.IsInputError(err) {
		os.Exit(2)
	}

	os.Exit(1)
}

//nolint:funlen // CLI flag setup is inherently long
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) error {
	const errCtx = "running scaffold_publish"

	fs := flag.NewFlagSet("scaffold_publish", flag.ContinueOnError)
	fs.SetOutput(stderr)

	workspaceDir := fs.String(
		"workspace", ".",
		"Workspace directory holding the generated files",
	)
	inputPath := fs.String(
		"input", stdio,
		"JSON action input file, - for stdin",
	)
	outputPath := fs.String(
		"output", stdio,
		"JSON action output file, - for stdout",
	)
	integrationsPath := fs.String(
		"integrations", "",
		"YAML integrations file; ${VAR} is expanded "+
			"from the environment",
	)
	modeName := fs.String(
		"mode", string(publish.ModeIssue),
		"What to create: issue or merge-request",
	)
	policyName := fs.String(
		"description_policy", string(payload.PolicyConcatenate),
		"How the description is derived: concatenate "+
			"or single-file",
	)
	dryRun := fs.Bool(
		"dry_run", false,
		"Resolve the project but create nothing",
	)
	timeout := fs.Duration(
		"timeout", 0,
		"Abort after this long, 0 for no limit",
	)
	logLevel := fs.String(
		"log_level", "info",
		"Log level: debug, info, warn or error",
	)
	logFormat := fs.String(
		"log_format", "text",
		"Log format: text or json",
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(stderr, *logLevel, *logFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	mode, err := publish.ParseMode(*modeName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	policy, err := payload.ParsePolicy(*policyName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *integrationsPath == "" {
		return fmt.Errorf(
			"%s: -integrations is required", errCtx,
		)
	}

	reg, err := integration.LoadFile(*integrationsPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	in, err := readInput(*inputPath, stdin)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	action := &publish.Action{
		Mode:     mode,
		Registry: reg,
		Providers: remote.FactoryByType{
			integration.TypeGitLab: gitlab.Factory(logger),
			integration.TypeGitHub: github.Factory(logger),
		},
		Policy: policy,
		DryRun: *dryRun,
	}

	logger.Info(
		"starting",
		"action", action.ID(),
		"integrations", reg.Hosts(),
		"dry_run", *dryRun,
	)

	start := time.Now()
	out := publish.Outputs{}

	if err := action.Handle(
		ctx,
		publish.ActionContext{
			Workspace: *workspaceDir,
			Input:     in,
			Output:    out,
			Logger:    logger,
		},
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	logger.Info("done", "elapsed", time.Since(start))

	if err := writeOutputs(*outputPath, stdout, out); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func newLogger(
	w io.Writer,
	level string,
	format string,
) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func readInput(path string, stdin io.Reader) (publish.Input, error) {
	if path == stdio {
		return publish.DecodeInput(stdin)
	}

	fi, err := os.Open(path) //nolint:gosec // path from CLI flags
	if err != nil {
		return publish.Input{}, fmt.Errorf("open input: %w", err)
	}

	defer fi.Close() //nolint:errcheck // read-only

	return publish.DecodeInput(fi)
}

func writeOutputs(
	path string,
	stdout io.Writer,
	out publish.Outputs,
) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}

	data = append(data, '\n')

	if path == stdio {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write outputs: %w", err)
		}

		return nil
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	return nil
}
