package integration

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/valyala/fasttemplate"
)

// fileConfig mirrors the integrations section of the
// host configuration file:
//
//	integrations:
//	  gitlab:
//	    - host: gitlab.com
//	      token: ${GITLAB_TOKEN}
//	  github:
//	    - host: github.com
//	      token: ${GITHUB_TOKEN}
type fileConfig struct {
	Integrations struct {
		GitLab []fileEntry `yaml:"gitlab"`
		GitHub []fileEntry `yaml:"github"`
	} `yaml:"integrations"`
}

type fileEntry struct {
	Host    string `yaml:"host"`
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// LoadFile reads an integrations file, expanding
// ${VAR} references from the process environment.
func LoadFile(path string) (*Registry, error) {
	const errCtx = "loading integrations file"

	fi, err := os.Open(path) //nolint:gosec // path from CLI flags
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer fi.Close() //nolint:errcheck // read-only

	reg, err := Load(fi, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, path, err,
		)
	}

	return reg, nil
}

// Load parses an integrations document. Every ${VAR}
// placeholder is replaced with getenv(VAR) before the
// YAML is decoded; unset variables become empty.
func Load(
	r io.Reader,
	getenv func(string) string,
) (*Registry, error) {
	const errCtx = "parsing integrations"

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: read: %w", errCtx, err,
		)
	}

	expanded, err := expandEnv(string(raw), getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(
		[]byte(expanded), &fc,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: decode yaml: %w", errCtx, err,
		)
	}

	configs := make(
		[]Config,
		0,
		len(fc.Integrations.GitLab)+
			len(fc.Integrations.GitHub),
	)

	for _, e := range fc.Integrations.GitLab {
		configs = append(configs, e.toConfig(TypeGitLab))
	}

	for _, e := range fc.Integrations.GitHub {
		configs = append(configs, e.toConfig(TypeGitHub))
	}

	reg, err := NewRegistry(configs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return reg, nil
}

func (e fileEntry) toConfig(tp Type) Config {
	return Config{
		Host:    e.Host,
		Type:    tp,
		BaseURL: e.BaseURL,
		Token:   e.Token,
	}
}

// expandEnv substitutes ${VAR} placeholders using
// fasttemplate.
func expandEnv(
	text string,
	getenv func(string) string,
) (string, error) {
	const errCtx = "expanding environment"

	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	var sb strings.Builder

	if _, err := fasttemplate.ExecuteFunc(
		text, "${", "}", &sb,
		func(w io.Writer, tag string) (int, error) {
			return io.WriteString(
				w, getenv(strings.TrimSpace(tag)),
			)
		},
	); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sb.String(), nil
}
