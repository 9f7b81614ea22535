package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
)

// Result is what a successful publish reports back.
type Result struct {
	// ProjectPath is the path the project was looked
	// up by.
	ProjectPath string
	// ProjectID is the numeric id of the resolved
	// project.
	ProjectID int64
	// ResourceURL is the web URL of the created issue
	// or merge request. Empty on a dry run.
	ResourceURL string
}

// Executor resolves the target project and submits the
// payload through Provider.
type Executor struct {
	Provider remote.Provider
	// DryRun stops after project resolution.
	DryRun bool
	Logger *slog.Logger
}

// PublishIssue resolves projectPath and opens issue in
// it.
//
// A lookup failure is returned unclassified. A creation
// failure is returned as an errdefs.KindRemoteCreate
// input error naming projectPath, unless ctx was
// cancelled meanwhile.
func (e Executor) PublishIssue(
	ctx context.Context,
	projectPath string,
	issue payload.Issue,
) (Result, error) {
	const errCtx = "publishing issue"

	prj, err := e.Provider.GetProject(ctx, projectPath)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if e.DryRun {
		e.logger().Info(
			"dry run: skipping issue creation",
			"project", projectPath,
			"title", issue.Title,
			"description_bytes", len(issue.Description),
		)

		return Result{
			ProjectPath: projectPath,
			ProjectID:   prj.ID,
		}, nil
	}

	res, err := e.Provider.CreateIssue(ctx, prj, issue)
	if err != nil {
		return Result{}, classifyCreate(
			ctx, err, "issue", projectPath,
		)
	}

	return Result{
		ProjectPath: projectPath,
		ProjectID:   prj.ID,
		ResourceURL: res.WebURL,
	}, nil
}

// PublishMergeRequest resolves projectPath and opens mr
// in it. An empty mr.TargetBranch defaults to the
// project's default branch. Errors are classified as in
// PublishIssue.
func (e Executor) PublishMergeRequest(
	ctx context.Context,
	projectPath string,
	mr payload.MergeRequest,
) (Result, error) {
	const errCtx = "publishing merge request"

	prj, err := e.Provider.GetProject(ctx, projectPath)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if mr.TargetBranch == "" {
		mr.TargetBranch = prj.DefaultBranch
	}

	if e.DryRun {
		e.logger().Info(
			"dry run: skipping merge request creation",
			"project", projectPath,
			"source_branch", mr.SourceBranch,
			"target_branch", mr.TargetBranch,
			"files", len(mr.Files),
		)

		return Result{
			ProjectPath: projectPath,
			ProjectID:   prj.ID,
		}, nil
	}

	res, err := e.Provider.CreateMergeRequest(ctx, prj, mr)
	if err != nil {
		return Result{}, classifyCreate(
			ctx, err, "merge request", projectPath,
		)
	}

	return Result{
		ProjectPath: projectPath,
		ProjectID:   prj.ID,
		ResourceURL: res.WebURL,
	}, nil
}

func (e Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return e.Logger
}

// classifyCreate turns a creation failure into an input
// error. Cancellation stays a plain error.
func classifyCreate(
	ctx context.Context,
	err error,
	what string,
	projectPath string,
) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf(
			"creating %s in %q: %w", what, projectPath, err,
		)
	}

	return errdefs.Wrap(
		errdefs.KindRemoteCreate, err,
		"failed to create %s in project %q",
		what, projectPath,
	)
}
