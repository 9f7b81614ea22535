package remote

import (
	"context"
	"fmt"

	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/payload"
)

// Pattern: Strategy -- swap code-hosting platform
// without changing the publish flow.

// Project is a resolved remote repository.
type Project struct {
	// ID is the numeric project (or repository) id.
	ID int64
	// Path is the full path, e.g. "group/repo".
	Path string
	// DefaultBranch is the branch merge requests
	// target.
	DefaultBranch string
	// WebURL is the browser URL of the project.
	WebURL string
}

// Resource is a created issue or merge request.
type Resource struct {
	// ID is the project-scoped number (IID on GitLab).
	ID int64
	// WebURL is the browser URL of the resource.
	WebURL string
}

// Provider is the remote issue-tracking capability set
// the publish flow needs.
type Provider interface {
	// GetProject resolves a project by its full path.
	GetProject(
		ctx context.Context,
		path string,
	) (*Project, error)
	// CreateIssue opens an issue in prj.
	CreateIssue(
		ctx context.Context,
		prj *Project,
		issue payload.Issue,
	) (*Resource, error)
	// CreateMergeRequest commits mr.Files on
	// mr.SourceBranch and opens a merge request into
	// mr.TargetBranch.
	CreateMergeRequest(
		ctx context.Context,
		prj *Project,
		mr payload.MergeRequest,
	) (*Resource, error)
}

// Factory builds a Provider for an integration and the
// credential resolved for it.
type Factory func(
	cfg integration.Config,
	cred integration.Credential,
) (Provider, error)

// FactoryByType dispatches on cfg.Type.
//
// Pattern: Factory -- selects platform implementation
// at runtime.
type FactoryByType map[integration.Type]Factory

// New builds the Provider registered for cfg.Type.
func (f FactoryByType) New(
	cfg integration.Config,
	cred integration.Credential,
) (Provider, error) {
	const errCtx = "creating remote provider"

	build, ok := f[cfg.Type]
	if !ok {
		return nil, fmt.Errorf(
			"%s: host %q: unsupported type %q",
			errCtx, cfg.Host, cfg.Type,
		)
	}

	prov, err := build(cfg, cred)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return prov, nil
}
