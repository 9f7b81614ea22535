package publish_test

import (
	"context"
	"sync"

	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
)

// fakeProvider records every call and answers with the
// configured project, resource and errors.
type fakeProvider struct {
	mu sync.Mutex

	project   *remote.Project
	resource  *remote.Resource
	getErr    error
	createErr error
	// onCreate runs before a create call returns.
	onCreate func()

	lookups []string
	issues  []payload.Issue
	mrs     []payload.MergeRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		project: &remote.Project{
			ID:            42,
			Path:          "org/repo",
			DefaultBranch: "main",
		},
		resource: &remote.Resource{
			ID:     7,
			WebURL: "https://gitlab.com/org/repo/-/issues/7",
		},
	}
}

func (f *fakeProvider) GetProject(
	_ context.Context,
	path string,
) (*remote.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups = append(f.lookups, path)

	if f.getErr != nil {
		return nil, f.getErr
	}

	return f.project, nil
}

func (f *fakeProvider) CreateIssue(
	_ context.Context,
	_ *remote.Project,
	issue payload.Issue,
) (*remote.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.issues = append(f.issues, issue)

	if f.onCreate != nil {
		f.onCreate()
	}

	if f.createErr != nil {
		return nil, f.createErr
	}

	return f.resource, nil
}

func (f *fakeProvider) CreateMergeRequest(
	_ context.Context,
	_ *remote.Project,
	mr payload.MergeRequest,
) (*remote.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mrs = append(f.mrs, mr)

	if f.onCreate != nil {
		f.onCreate()
	}

	if f.createErr != nil {
		return nil, f.createErr
	}

	return f.resource, nil
}
