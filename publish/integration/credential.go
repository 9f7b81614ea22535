package integration

import (
	"github.com/byte4ever/scaffold_publish/publish/errdefs"
)

// CredentialKind tells the remote client how to present
// a token.
type CredentialKind int

const (
	// KindToken is an administrator-configured static
	// token (GitLab "PRIVATE-TOKEN").
	KindToken CredentialKind = iota + 1
	// KindOAuthToken is a short-lived token supplied by
	// the caller (sent as a bearer token).
	KindOAuthToken
)

// String returns the kind name used in logs.
func (k CredentialKind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindOAuthToken:
		return "oauthToken"
	default:
		return "unknown"
	}
}

// Credential is the effective token for one invocation.
type Credential struct {
	Kind  CredentialKind
	Token string
}

// Resolve picks the integration for host and the token
// to use against it. An explicit token always wins and
// is treated as an OAuth token; otherwise the configured
// token is used. Both failures are configuration errors
// and must abort before any network or filesystem work.
func Resolve(
	reg *Registry,
	host string,
	explicitToken string,
) (Credential, Config, error) {
	cfg, ok := reg.Lookup(host)
	if !ok {
		return Credential{}, Config{}, errdefs.New(
			errdefs.KindConfiguration,
			"no matching integration configuration "+
				"for host %q, please check your "+
				"integrations config",
			host,
		)
	}

	if explicitToken != "" {
		return Credential{
			Kind:  KindOAuthToken,
			Token: explicitToken,
		}, cfg, nil
	}

	if cfg.Token == "" {
		return Credential{}, Config{}, errdefs.New(
			errdefs.KindConfiguration,
			"no token available for host %q", host,
		)
	}

	return Credential{
		Kind:  KindToken,
		Token: cfg.Token,
	}, cfg, nil
}
