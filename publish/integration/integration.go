package integration

import (
	"fmt"
	"sort"
	"strings"
)

// Type names the code-hosting platform behind an
// integration.
type Type string

const (
	// TypeGitLab is a GitLab instance (cloud or
	// self-managed).
	TypeGitLab Type = "gitlab"
	// TypeGitHub is github.com or a GitHub Enterprise
	// installation.
	TypeGitHub Type = "github"
)

// Config is the integration record for one host.
type Config struct {
	// Host is the bare hostname used in repository
	// URLs (e.g. "gitlab.com").
	Host string
	// Type selects the remote provider. Empty means
	// TypeGitLab.
	Type Type
	// BaseURL is the web root of the instance
	// (e.g. "https://gitlab.com"). Defaults to
	// "https://" + Host.
	BaseURL string
	// Token is the administrator-configured static
	// token. Optional.
	Token string
}

// Registry maps hosts to their integration record.
// A Registry is read-only once built and safe for
// concurrent use.
type Registry struct {
	byHost map[string]Config
}

// NewRegistry validates configs and indexes them by
// host. Later entries for the same host are rejected.
func NewRegistry(configs ...Config) (*Registry, error) {
	const errCtx = "building integration registry"

	reg := &Registry{
		byHost: make(map[string]Config, len(configs)),
	}

	for _, cfg := range configs {
		host := normalizeHost(cfg.Host)
		if host == "" {
			return nil, fmt.Errorf(
				"%s: host must be set", errCtx,
			)
		}

		if _, dup := reg.byHost[host]; dup {
			return nil, fmt.Errorf(
				"%s: duplicate host %q", errCtx, host,
			)
		}

		switch cfg.Type {
		case "":
			cfg.Type = TypeGitLab
		case TypeGitLab, TypeGitHub:
		default:
			return nil, fmt.Errorf(
				"%s: host %q: unknown type %q",
				errCtx, host, cfg.Type,
			)
		}

		cfg.Host = host

		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://" + host
		}

		cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

		reg.byHost[host] = cfg
	}

	return reg, nil
}

// Lookup returns the integration for host. Hosts are
// matched case-insensitively.
func (r *Registry) Lookup(host string) (Config, bool) {
	if r == nil {
		return Config{}, false
	}

	cfg, ok := r.byHost[normalizeHost(host)]

	return cfg, ok
}

// Hosts returns the configured hosts in sorted order.
func (r *Registry) Hosts() []string {
	if r == nil {
		return nil
	}

	hosts := make([]string, 0, len(r.byHost))
	for h := range r.byHost {
		hosts = append(hosts, h)
	}

	sort.Strings(hosts)

	return hosts
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
