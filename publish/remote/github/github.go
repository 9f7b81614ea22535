package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
	"github.com/byte4ever/scaffold_publish/publish/workspace"
)

const publicHost = "github.com"

// Config holds the settings needed to create a GitHub
// provider.
type Config struct {
	// Host is the integration host. "github.com" (or
	// empty) targets the public API.
	Host string
	// BaseURL is the web root of a GitHub Enterprise
	// installation (e.g. "https://git.corp.example.com").
	// Ignored for github.com.
	BaseURL string
	// Credential carries the token. Both kinds are sent
	// as a bearer token.
	Credential integration.Credential
	// Logger receives provider diagnostics. Nil
	// discards them.
	Logger *slog.Logger
}

// Provider publishes issues and pull requests on
// GitHub.
//
// Pattern: Strategy -- implements remote.Provider.
type Provider struct {
	client *gh.Client
	logger *slog.Logger
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.Credential.Token == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.Credential.Token)

	if cfg.Host != "" && cfg.Host != publicHost {
		base := cfg.BaseURL
		if base == "" {
			base = "https://" + cfg.Host
		}

		base = strings.TrimSuffix(base, "/") + "/"

		var err error

		client, err = client.WithEnterpriseURLs(
			base+"api/v3/", base+"api/uploads/",
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w", errCtx, err,
			)
		}
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

// Factory returns a remote.Factory building GitHub
// providers that log to logger.
func Factory(logger *slog.Logger) remote.Factory {
	return func(
		cfg integration.Config,
		cred integration.Credential,
	) (remote.Provider, error) {
		return NewProvider(Config{
			Host:       cfg.Host,
			BaseURL:    cfg.BaseURL,
			Credential: cred,
			Logger:     logger,
		})
	}
}

// GetProject resolves "owner/repo" to a repository.
func (p *Provider) GetProject(
	ctx context.Context,
	path string,
) (*remote.Project, error) {
	const errCtx = "getting github repository"

	owner, repo, err := splitPath(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	rp, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %q: %w", errCtx, path, err,
		)
	}

	return &remote.Project{
		ID:            rp.GetID(),
		Path:          rp.GetFullName(),
		DefaultBranch: rp.GetDefaultBranch(),
		WebURL:        rp.GetHTMLURL(),
	}, nil
}

// CreateIssue opens an issue in prj.
func (p *Provider) CreateIssue(
	ctx context.Context,
	prj *remote.Project,
	issue payload.Issue,
) (*remote.Resource, error) {
	const errCtx = "creating github issue"

	owner, repo, err := splitPath(prj.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	labels := append([]string(nil), issue.Labels...)

	created, _, err := p.client.Issues.Create(
		ctx, owner, repo,
		&gh.IssueRequest{
			Title:  &issue.Title,
			Body:   &issue.Description,
			Labels: &labels,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	p.logger.Info(
		"created issue",
		"project", prj.Path,
		"url", created.GetHTMLURL(),
	)

	return &remote.Resource{
		ID:     int64(created.GetNumber()),
		WebURL: created.GetHTMLURL(),
	}, nil
}

// CreateMergeRequest commits mr.Files on a new branch
// mr.SourceBranch based on mr.TargetBranch and opens a
// pull request. GitHub has no per-request source branch
// removal; mr.RemoveSourceBranch is ignored.
func (p *Provider) CreateMergeRequest(
	ctx context.Context,
	prj *remote.Project,
	mr payload.MergeRequest,
) (*remote.Resource, error) {
	const errCtx = "creating github pull request"

	owner, repo, err := splitPath(prj.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := p.pushBranch(
		ctx, owner, repo, mr,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if mr.RemoveSourceBranch {
		p.logger.Debug(
			"source branch removal is not supported "+
				"per pull request",
			"project", prj.Path,
		)
	}

	created, _, err := p.client.PullRequests.Create(
		ctx, owner, repo,
		&gh.NewPullRequest{
			Title: &mr.Title,
			Head:  &mr.SourceBranch,
			Base:  &mr.TargetBranch,
			Body:  &mr.Description,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	p.logger.Info(
		"created pull request",
		"project", prj.Path,
		"url", created.GetHTMLURL(),
	)

	return &remote.Resource{
		ID:     int64(created.GetNumber()),
		WebURL: created.GetHTMLURL(),
	}, nil
}

// pushBranch writes one commit holding mr.Files on top
// of mr.TargetBranch and points mr.SourceBranch at it.
func (p *Provider) pushBranch(
	ctx context.Context,
	owner string,
	repo string,
	mr payload.MergeRequest,
) error {
	base, _, err := p.client.Git.GetRef(
		ctx, owner, repo, "heads/"+mr.TargetBranch,
	)
	if err != nil {
		return fmt.Errorf("get base ref: %w", err)
	}

	head := base.GetObject().GetSHA()

	if len(mr.Files) > 0 {
		head, err = p.commitFiles(ctx, owner, repo, head, mr)
		if err != nil {
			return err
		}
	}

	_, _, err = p.client.Git.CreateRef(
		ctx, owner, repo,
		&gh.Reference{
			Ref:    gh.Ptr("refs/heads/" + mr.SourceBranch),
			Object: &gh.GitObject{SHA: &head},
		},
	)
	if err != nil {
		return fmt.Errorf("create branch ref: %w", err)
	}

	return nil
}

// commitFiles uploads each file as a blob, builds a tree
// on top of parent's tree and commits it. It returns the
// new commit SHA.
func (p *Provider) commitFiles(
	ctx context.Context,
	owner string,
	repo string,
	parent string,
	mr payload.MergeRequest,
) (string, error) {
	parentCommit, _, err := p.client.Git.GetCommit(
		ctx, owner, repo, parent,
	)
	if err != nil {
		return "", fmt.Errorf("get base commit: %w", err)
	}

	entries := make([]*gh.TreeEntry, 0, len(mr.Files))

	for _, f := range mr.Files {
		blob, _, err := p.client.Git.CreateBlob(
			ctx, owner, repo,
			&gh.Blob{
				Content: gh.Ptr(
					base64.StdEncoding.EncodeToString(f.Content),
				),
				Encoding: gh.Ptr("base64"),
			},
		)
		if err != nil {
			return "", fmt.Errorf(
				"create blob %s: %w", f.Path, err,
			)
		}

		entries = append(entries, &gh.TreeEntry{
			Path: gh.Ptr(f.Path),
			Mode: gh.Ptr(fileMode(f)),
			Type: gh.Ptr("blob"),
			SHA:  blob.SHA,
		})
	}

	tree, _, err := p.client.Git.CreateTree(
		ctx, owner, repo,
		parentCommit.GetTree().GetSHA(), entries,
	)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}

	commit, _, err := p.client.Git.CreateCommit(
		ctx, owner, repo,
		&gh.Commit{
			Message: &mr.CommitMessage,
			Tree:    tree,
			Parents: []*gh.Commit{{SHA: &parent}},
		},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}

	return commit.GetSHA(), nil
}

func fileMode(f workspace.File) string {
	switch {
	case f.Symlink:
		return "120000"
	case f.Executable:
		return "100755"
	default:
		return "100644"
	}
}

func splitPath(path string) (string, string, error) {
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" ||
		strings.Contains(repo, "/") {
		return "", "", fmt.Errorf(
			"invalid repository path %q: "+
				"expected owner/repo",
			path,
		)
	}

	return owner, repo, nil
}
