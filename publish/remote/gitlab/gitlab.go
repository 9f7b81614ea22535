package gitlab

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
)

// Config holds the settings needed to create a GitLab
// provider.
type Config struct {
	// BaseURL is the web root of the GitLab instance
	// (e.g. "https://gitlab.com").
	BaseURL string
	// Credential selects the token and how it is sent:
	// KindToken as PRIVATE-TOKEN, KindOAuthToken as a
	// bearer token.
	Credential integration.Credential
	// Logger receives provider diagnostics. Nil
	// discards them.
	Logger *slog.Logger
}

// Provider talks to the GitLab REST API.
//
// Pattern: Strategy -- implements remote.Provider.
type Provider struct {
	client *gl.Client
	logger *slog.Logger
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.Credential.Token == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	host := cfg.BaseURL
	if host == "" {
		host = "https://gitlab.com"
	}

	var (
		client *gl.Client
		err    error
	)

	switch cfg.Credential.Kind {
	case integration.KindToken:
		client, err = gl.NewClient(
			cfg.Credential.Token,
			gl.WithBaseURL(host),
		)
	case integration.KindOAuthToken:
		client, err = gl.NewOAuthClient(
			cfg.Credential.Token,
			gl.WithBaseURL(host),
		)
	default:
		return nil, fmt.Errorf(
			"%s: unknown credential kind %d",
			errCtx, cfg.Credential.Kind,
		)
	}

	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Provider{
		client: client,
		logger: logger,
	}, nil
}

// Factory returns a remote.Factory building GitLab
// providers that log to logger.
func Factory(logger *slog.Logger) remote.Factory {
	return func(
		cfg integration.Config,
		cred integration.Credential,
	) (remote.Provider, error) {
		return NewProvider(Config{
			BaseURL:    cfg.BaseURL,
			Credential: cred,
			Logger:     logger,
		})
	}
}

// GetProject resolves a project by its full path
// ("group/sub/repo").
func (p *Provider) GetProject(
	ctx context.Context,
	path string,
) (*remote.Project, error) {
	const errCtx = "getting gitlab project"

	prj, resp, err := p.client.Projects.GetProject(
		path, nil, gl.WithContext(ctx),
	)
	if err != nil {
		p.logFailure(resp, "project", path)

		return nil, fmt.Errorf(
			"%s %q: %w", errCtx, path, err,
		)
	}

	return &remote.Project{
		ID:            int64(prj.ID),
		Path:          prj.PathWithNamespace,
		DefaultBranch: prj.DefaultBranch,
		WebURL:        prj.WebURL,
	}, nil
}

// CreateIssue opens an issue in prj.
func (p *Provider) CreateIssue(
	ctx context.Context,
	prj *remote.Project,
	issue payload.Issue,
) (*remote.Resource, error) {
	const errCtx = "creating gitlab issue"

	labels := gl.LabelOptions(issue.Labels)

	opts := gl.CreateIssueOptions{
		Title:       &issue.Title,
		Description: &issue.Description,
		Labels:      &labels,
	}

	created, resp, err := p.client.Issues.CreateIssue(
		int(prj.ID), &opts, gl.WithContext(ctx),
	)
	if err != nil {
		p.logFailure(resp, "issue", prj.Path)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	p.logger.Info(
		"created issue",
		"project", prj.Path,
		"url", created.WebURL,
	)

	return &remote.Resource{
		ID:     int64(created.IID),
		WebURL: created.WebURL,
	}, nil
}

// CreateMergeRequest commits mr.Files on
// mr.SourceBranch, branching from mr.TargetBranch, and
// opens a merge request between the two.
func (p *Provider) CreateMergeRequest(
	ctx context.Context,
	prj *remote.Project,
	mr payload.MergeRequest,
) (*remote.Resource, error) {
	const errCtx = "creating gitlab merge request"

	if err := p.pushBranch(ctx, prj, mr); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	opts := gl.CreateMergeRequestOptions{
		Title:              &mr.Title,
		Description:        &mr.Description,
		SourceBranch:       &mr.SourceBranch,
		TargetBranch:       &mr.TargetBranch,
		RemoveSourceBranch: &mr.RemoveSourceBranch,
	}

	created, resp, err := p.client.MergeRequests.CreateMergeRequest(
		int(prj.ID), &opts, gl.WithContext(ctx),
	)
	if err != nil {
		p.logFailure(resp, "merge request", prj.Path)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	p.logger.Info(
		"created merge request",
		"project", prj.Path,
		"url", created.WebURL,
	)

	return &remote.Resource{
		ID:     int64(created.IID),
		WebURL: created.WebURL,
	}, nil
}

// pushBranch creates mr.SourceBranch from
// mr.TargetBranch with one commit adding mr.Files. With
// nothing to commit the branch is created empty.
func (p *Provider) pushBranch(
	ctx context.Context,
	prj *remote.Project,
	mr payload.MergeRequest,
) error {
	actions := commitActions(mr, p.logger)

	if len(actions) == 0 {
		_, resp, err := p.client.Branches.CreateBranch(
			int(prj.ID),
			&gl.CreateBranchOptions{
				Branch: &mr.SourceBranch,
				Ref:    &mr.TargetBranch,
			},
			gl.WithContext(ctx),
		)
		if err != nil {
			p.logFailure(resp, "branch", prj.Path)

			return fmt.Errorf("create branch: %w", err)
		}

		return nil
	}

	_, resp, err := p.client.Commits.CreateCommit(
		int(prj.ID),
		&gl.CreateCommitOptions{
			Branch:        &mr.SourceBranch,
			StartBranch:   &mr.TargetBranch,
			CommitMessage: &mr.CommitMessage,
			Actions:       actions,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		p.logFailure(resp, "commit", prj.Path)

		return fmt.Errorf("create commit: %w", err)
	}

	return nil
}

// commitActions maps files to create actions. Content
// is sent base64-encoded so binary files survive.
// Symlinks cannot be expressed through the commits API
// and are skipped.
func commitActions(
	mr payload.MergeRequest,
	logger *slog.Logger,
) []*gl.CommitActionOptions {
	actions := make([]*gl.CommitActionOptions, 0, len(mr.Files))

	for _, f := range mr.Files {
		if f.Symlink {
			logger.Warn(
				"skipping symlink",
				"path", f.Path,
			)

			continue
		}

		actions = append(actions, &gl.CommitActionOptions{
			Action:   gl.Ptr(gl.FileCreate),
			FilePath: gl.Ptr(f.Path),
			Content: gl.Ptr(
				base64.StdEncoding.EncodeToString(f.Content),
			),
			Encoding:        gl.Ptr("base64"),
			ExecuteFilemode: gl.Ptr(f.Executable),
		})
	}

	return actions
}

// logFailure records the HTTP status of a failed call.
// The client has already consumed the body into the
// returned error.
func (p *Provider) logFailure(
	resp *gl.Response,
	what string,
	project string,
) {
	if resp == nil {
		return
	}

	p.logger.Warn(
		"gitlab request failed",
		"resource", what,
		"project", project,
		"status", resp.StatusCode,
	)
}
