package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
)

// gitlabStub answers the project lookup and issue
// creation calls of a GitLab instance.
type gitlabStub struct {
	mu    sync.Mutex
	paths []string
}

func newGitLabStub(t *testing.T) (*gitlabStub, string) {
	t.Helper()

	st := &gitlabStub{}

	ts := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				key := r.Method + " " + r.URL.EscapedPath()

				st.mu.Lock()
				st.paths = append(st.paths, key)
				st.mu.Unlock()

				w.Header().Set("Content-Type", "application/json")

				switch key {
				case "GET /api/v4/projects/org%2Frepo":
					_, _ = io.WriteString(w, `{
						"id": 42,
						"path_with_namespace": "org/repo",
						"default_branch": "main"
					}`)
				case "POST /api/v4/projects/42/issues":
					w.WriteHeader(http.StatusCreated)
					_, _ = io.WriteString(w, `{
						"id": 1,
						"iid": 7,
						"web_url": "https://gitlab.example.com/org/repo/-/issues/7"
					}`)
				default:
					w.WriteHeader(http.StatusNotFound)
					_, _ = io.WriteString(
						w, `{"message":"404 Not Found"}`,
					)
				}
			},
		),
	)
	t.Cleanup(ts.Close)

	return st, ts.URL
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func setup(t *testing.T, baseURL string) (string, string) {
	t.Helper()

	dir := t.TempDir()

	integrations := filepath.Join(dir, "integrations.yaml")
	writeFile(t, integrations, `integrations:
  gitlab:
    - host: gitlab.example.com
      baseUrl: `+baseURL+`
      token: static
`)

	ws := filepath.Join(dir, "workspace")
	writeFile(
		t, filepath.Join(ws, "docs", "readme.md"), "Welcome",
	)

	return integrations, ws
}

func TestRun_issue(t *testing.T) {
	t.Parallel()

	st, url := newGitLabStub(t)
	integrations, ws := setup(t, url)

	var stdout, stderr bytes.Buffer

	err := run(
		context.Background(),
		[]string{
			"-integrations", integrations,
			"-workspace", ws,
		},
		strings.NewReader(`{
			"repoUrl": "gitlab.example.com/org/repo",
			"targetPath": "docs",
			"title": "Onboarding"
		}`),
		&stdout,
		&stderr,
	)

	require.NoError(t, err, stderr.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))

	assert.Equal(t, map[string]string{
		"projectid":   "org/repo",
		"projectPath": "org/repo",
		"issueUrl":    "https://gitlab.example.com/org/repo/-/issues/7",
	}, out)

	st.mu.Lock()
	defer st.mu.Unlock()

	assert.Equal(t, []string{
		"GET /api/v4/projects/org%2Frepo",
		"POST /api/v4/projects/42/issues",
	}, st.paths)
}

func TestRun_output_file(t *testing.T) {
	t.Parallel()

	_, url := newGitLabStub(t)
	integrations, ws := setup(t, url)

	input := filepath.Join(t.TempDir(), "input.json")
	writeFile(t, input, `{
		"repoUrl": "gitlab.example.com/org/repo",
		"targetPath": "docs",
		"title": "Onboarding"
	}`)

	output := filepath.Join(t.TempDir(), "output.json")

	var stdout, stderr bytes.Buffer

	err := run(
		context.Background(),
		[]string{
			"-integrations", integrations,
			"-workspace", ws,
			"-input", input,
			"-output", output,
			"-log_format", "json",
		},
		strings.NewReader(""),
		&stdout,
		&stderr,
	)

	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"issueUrl"`)
}

func TestRun_input_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		kind  errdefs.Kind
	}{
		{
			name: "containment",
			input: `{
				"repoUrl": "gitlab.example.com/org/repo",
				"targetPath": "../../etc",
				"title": "Onboarding"
			}`,
			kind: errdefs.KindContainment,
		},
		{
			name: "unknown host",
			input: `{
				"repoUrl": "gitlab.com/org/repo",
				"targetPath": "docs",
				"title": "Onboarding"
			}`,
			kind: errdefs.KindConfiguration,
		},
		{
			name:  "unknown property",
			input: `{"repo": "x"}`,
			kind:  errdefs.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st, url := newGitLabStub(t)
			integrations, ws := setup(t, url)

			var stdout, stderr bytes.Buffer

			err := run(
				context.Background(),
				[]string{
					"-integrations", integrations,
					"-workspace", ws,
				},
				strings.NewReader(tt.input),
				&stdout,
				&stderr,
			)

			assert.True(t, errdefs.IsInputError(err))
			assert.Equal(t, tt.kind, errdefs.KindOf(err))
			assert.Empty(t, stdout.String())

			st.mu.Lock()
			defer st.mu.Unlock()

			assert.Empty(t, st.paths)
		})
	}
}

func TestRun_flag_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{
			name: "missing integrations",
			args: nil,
			msg:  "-integrations is required",
		},
		{
			name: "bad mode",
			args: []string{"-mode", "wiki"},
			msg:  `unknown mode "wiki"`,
		},
		{
			name: "bad policy",
			args: []string{"-description_policy", "first"},
			msg:  `unknown description policy "first"`,
		},
		{
			name: "bad log format",
			args: []string{"-log_format", "xml"},
			msg:  `unknown log format "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer

			err := run(
				context.Background(),
				tt.args,
				strings.NewReader("{}"),
				&stdout,
				&stderr,
			)

			assert.ErrorContains(t, err, tt.msg)
			assert.False(t, errdefs.IsInputError(err))
		})
	}
}
