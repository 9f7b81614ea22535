package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/locator"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
	"github.com/byte4ever/scaffold_publish/publish/workspace"
)

// Sink records action outputs for later pipeline steps.
type Sink interface {
	Output(name string, value string)
}

// Outputs is a Sink backed by a map.
type Outputs map[string]string

// Output implements Sink.
func (o Outputs) Output(name string, value string) {
	o[name] = value
}

// ActionContext is what the host pipeline hands to one
// invocation.
type ActionContext struct {
	// Workspace is the pipeline-scoped directory
	// holding the generated template output.
	Workspace string
	Input     Input
	Output    Sink
	// Logger is the host's structured logger. Nil
	// discards logs.
	Logger *slog.Logger
}

// Action publishes a workspace subtree. An Action holds
// no per-invocation state and may serve concurrent
// invocations.
type Action struct {
	Mode Mode
	// Registry supplies the integration for the
	// repository host.
	Registry *integration.Registry
	// Providers builds the remote client for an
	// integration.
	Providers remote.FactoryByType
	// Policy derives the description from the files.
	Policy payload.Policy
	// DryRun resolves the project but creates nothing.
	DryRun bool
}

// ID returns the identifier the action registers under.
// It names the mode only; the platform follows from the
// integration matched by repoUrl.
func (a *Action) ID() string {
	if a.Mode == ModeMergeRequest {
		return "publish:merge-request"
	}

	return "publish:issue"
}

// Handle runs one invocation: locate the repository,
// resolve the credential, serialize the target path,
// assemble the payload, resolve the project and create
// the issue or merge request. Every step is sequential
// and any failure ends the invocation.
func (a *Action) Handle(
	ctx context.Context,
	actx ActionContext,
) error {
	const errCtx = "handling publish action"

	logger := actx.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger = logger.With("action", a.ID())

	in := actx.Input

	if err := in.Validate(a.Mode); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	loc, err := locator.Parse(in.RepoURL, a.Registry)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	projectPath := loc.ProjectPath()

	if in.ProjectID != "" {
		logger.Warn(
			"the projectid input is deprecated and "+
				"will be removed, the project is "+
				"derived from repoUrl",
			"projectid", in.ProjectID,
			"derived", projectPath,
		)

		projectPath = in.ProjectID
	}

	cred, cfg, err := integration.Resolve(
		a.Registry, loc.Host, in.Token,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	logger.Debug(
		"resolved integration",
		"host", cfg.Host,
		"type", cfg.Type,
		"credential", cred.Kind,
	)

	files, err := a.collect(ctx, actx.Workspace, in.TargetPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	logger.Info(
		"serialized workspace",
		"target_path", in.TargetPath,
		"files", len(files),
	)

	prov, err := a.Providers.New(cfg, cred)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	exe := Executor{
		Provider: prov,
		DryRun:   a.DryRun,
		Logger:   logger,
	}

	var res Result

	switch a.Mode {
	case ModeMergeRequest:
		mr := payload.AssembleMergeRequest(
			files,
			payload.MergeRequestInput{
				Title:              in.Title,
				Description:        in.Description,
				CommitMessage:      in.CommitMessage,
				BranchName:         in.BranchName,
				TargetPath:         in.TargetPath,
				RemoveSourceBranch: in.RemoveSourceBranch,
			},
			a.Policy,
		)

		res, err = exe.PublishMergeRequest(ctx, projectPath, mr)
	default:
		issue := payload.Assemble(
			files, in.Title, in.TargetPath, a.Policy,
		)

		res, err = exe.PublishIssue(ctx, projectPath, issue)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	a.report(actx.Output, res)

	logger.Info(
		"published",
		"project", res.ProjectPath,
		"url", res.ResourceURL,
	)

	return nil
}

// collect confines targetPath to the workspace and
// serializes it with workspace-relative paths.
func (a *Action) collect(
	ctx context.Context,
	ws string,
	targetPath string,
) ([]workspace.File, error) {
	root, err := workspace.SafeChildPath(ws, targetPath)
	if err != nil {
		return nil, err
	}

	absWS, err := filepath.Abs(ws)
	if err != nil {
		return nil, errdefs.Wrap(
			errdefs.KindContainment, err,
			"invalid workspace %q", ws,
		)
	}

	return workspace.Serialize(
		ctx, root,
		workspace.Options{
			Gitignore:  true,
			RelativeTo: absWS,
		},
	)
}

// report writes the declared outputs. The project path
// is written under both projectid and projectPath.
func (a *Action) report(sink Sink, res Result) {
	if sink == nil {
		return
	}

	sink.Output(OutputProjectID, res.ProjectPath)
	sink.Output(OutputProjectPath, res.ProjectPath)
	sink.Output(URLOutputKey(a.Mode), res.ResourceURL)
}
