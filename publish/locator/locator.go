package locator

import (
	"net/url"
	"strings"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
	"github.com/byte4ever/scaffold_publish/publish/integration"
)

// Locator identifies a remote repository.
type Locator struct {
	Host  string
	Owner string
	Repo  string
}

// ProjectPath returns "owner/repo".
func (l Locator) ProjectPath() string {
	return l.Owner + "/" + l.Repo
}

// Registry reports the integration configured for a
// host. *integration.Registry satisfies it.
type Registry interface {
	Lookup(host string) (integration.Config, bool)
}

// Parse turns a repository URL into a Locator and checks
// that an integration exists for its host.
//
// Accepted shapes:
//
//	gitlab.com/owner/repo
//	https://gitlab.com/group/subgroup/repo.git
//	gitlab.com?owner=group/subgroup&repo=repo
//
// With more than three path segments the last one is
// the repository and the rest form the owner.
func Parse(repoURL string, reg Registry) (Locator, error) {
	loc, err := split(repoURL)
	if err != nil {
		return Locator{}, err
	}

	if _, ok := reg.Lookup(loc.Host); !ok {
		return Locator{}, errdefs.New(
			errdefs.KindConfiguration,
			"no matching integration configuration "+
				"for host %q, please check your "+
				"integrations config",
			loc.Host,
		)
	}

	return loc, nil
}

func split(repoURL string) (Locator, error) {
	raw := strings.TrimSpace(repoURL)
	if raw == "" {
		return Locator{}, errdefs.New(
			errdefs.KindInvalidInput,
			"invalid repo URL: empty",
		)
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, errdefs.Wrap(
			errdefs.KindInvalidInput, err,
			"invalid repo URL %q", repoURL,
		)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Locator{}, errdefs.New(
			errdefs.KindInvalidInput,
			"invalid repo URL %q: missing host", repoURL,
		)
	}

	owner, repo := fromQuery(u.Query())
	if owner == "" && repo == "" {
		owner, repo = fromPath(u.Path)
	}

	if owner == "" || repo == "" {
		return Locator{}, errdefs.New(
			errdefs.KindInvalidInput,
			"invalid repo URL %q: expected "+
				"<host>/<owner>/<repo>",
			repoURL,
		)
	}

	return Locator{
		Host:  host,
		Owner: owner,
		Repo:  repo,
	}, nil
}

func fromQuery(q url.Values) (string, string) {
	return strings.Trim(q.Get("owner"), "/"),
		strings.Trim(q.Get("repo"), "/")
}

func fromPath(p string) (string, string) {
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".git")

	segs := strings.Split(p, "/")
	if len(segs) < 2 {
		return "", ""
	}

	for _, s := range segs {
		if s == "" || s == "." || s == ".." {
			return "", ""
		}
	}

	last := len(segs) - 1

	return strings.Join(segs[:last], "/"), segs[last]
}
