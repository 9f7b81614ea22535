package remote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/scaffold_publish/publish/integration"
	"github.com/byte4ever/scaffold_publish/publish/payload"
	"github.com/byte4ever/scaffold_publish/publish/remote"
)

type nopProvider struct{}

func (nopProvider) GetProject(
	_ context.Context,
	path string,
) (*remote.Project, error) {
	return &remote.Project{Path: path}, nil
}

func (nopProvider) CreateIssue(
	_ context.Context,
	_ *remote.Project,
	_ payload.Issue,
) (*remote.Resource, error) {
	return &remote.Resource{}, nil
}

func (nopProvider) CreateMergeRequest(
	_ context.Context,
	_ *remote.Project,
	_ payload.MergeRequest,
) (*remote.Resource, error) {
	return &remote.Resource{}, nil
}

func TestFactoryByType_New_dispatches(t *testing.T) {
	t.Parallel()

	var gotCred integration.Credential

	fac := remote.FactoryByType{
		integration.TypeGitLab: func(
			_ integration.Config,
			cred integration.Credential,
		) (remote.Provider, error) {
			gotCred = cred

			return nopProvider{}, nil
		},
	}

	cred := integration.Credential{
		Kind:  integration.KindOAuthToken,
		Token: "tok",
	}

	prov, err := fac.New(
		integration.Config{
			Host: "gitlab.com",
			Type: integration.TypeGitLab,
		},
		cred,
	)

	require.NoError(t, err)
	assert.NotNil(t, prov)
	assert.Equal(t, cred, gotCred)
}

func TestFactoryByType_New_unsupported(t *testing.T) {
	t.Parallel()

	fac := remote.FactoryByType{}

	prov, err := fac.New(
		integration.Config{
			Host: "github.com",
			Type: integration.TypeGitHub,
		},
		integration.Credential{},
	)

	assert.Nil(t, prov)
	assert.ErrorContains(t, err, "unsupported type")
}

func TestFactoryByType_New_build_error(t *testing.T) {
	t.Parallel()

	errTest := errors.New("test error")

	fac := remote.FactoryByType{
		integration.TypeGitLab: func(
			integration.Config,
			integration.Credential,
		) (remote.Provider, error) {
			return nil, errTest
		},
	}

	_, err := fac.New(
		integration.Config{Type: integration.TypeGitLab},
		integration.Credential{},
	)

	assert.ErrorIs(t, err, errTest)
}
