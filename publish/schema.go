package publish

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
)

// Mode selects what the action creates.
type Mode string

const (
	// ModeIssue opens an issue.
	ModeIssue Mode = "issue"
	// ModeMergeRequest commits the files to a branch
	// and opens a merge request.
	ModeMergeRequest Mode = "merge-request"
)

// ParseMode maps a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeIssue:
		return ModeIssue, nil
	case ModeMergeRequest:
		return ModeMergeRequest, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Output keys reported to the pipeline.
const (
	OutputProjectID       = "projectid"
	OutputProjectPath     = "projectPath"
	OutputIssueURL        = "issueUrl"
	OutputMergeRequestURL = "mergeRequestUrl"
)

// Input is the validated action input.
type Input struct {
	RepoURL    string `json:"repoUrl"`
	TargetPath string `json:"targetPath"`
	Title      string `json:"title"`
	BranchName string `json:"branchName,omitempty"`
	// ProjectID overrides the owner/repo project path.
	//
	// Deprecated: derive the project from RepoURL.
	ProjectID          string `json:"projectid,omitempty"`
	Token              string `json:"token,omitempty"`
	Description        string `json:"description,omitempty"`
	CommitMessage      string `json:"commitMessage,omitempty"`
	RemoveSourceBranch bool   `json:"removeSourceBranch,omitempty"`
}

// Field describes one declared input property.
type Field struct {
	Name       string
	Required   bool
	Deprecated bool
}

// Schema is the declared input and output contract of
// one action mode.
type Schema struct {
	Input  []Field
	Output []string
}

// SchemaFor returns the declared schema of mode.
func SchemaFor(mode Mode) Schema {
	in := []Field{
		{Name: "repoUrl", Required: true},
		{Name: "targetPath", Required: true},
		{Name: "title", Required: true},
		{Name: "projectid", Deprecated: true},
		{Name: "token"},
	}

	out := []string{OutputProjectID, OutputProjectPath}

	if mode == ModeMergeRequest {
		in = append(in,
			Field{Name: "branchName", Required: true},
			Field{Name: "description"},
			Field{Name: "commitMessage"},
			Field{Name: "removeSourceBranch"},
		)

		return Schema{
			Input:  in,
			Output: append(out, OutputMergeRequestURL),
		}
	}

	return Schema{
		Input:  in,
		Output: append(out, OutputIssueURL),
	}
}

// URLOutputKey returns the output key carrying the
// created resource URL for mode.
func URLOutputKey(mode Mode) string {
	if mode == ModeMergeRequest {
		return OutputMergeRequestURL
	}

	return OutputIssueURL
}

// Validate checks the required fields declared for
// mode. Properties mode does not declare are ignored.
func (in Input) Validate(mode Mode) error {
	var missing []string

	for _, f := range SchemaFor(mode).Input {
		if f.Required && strings.TrimSpace(in.field(f.Name)) == "" {
			missing = append(missing, f.Name)
		}
	}

	if len(missing) > 0 {
		return errdefs.New(
			errdefs.KindInvalidInput,
			"missing required input: %s",
			strings.Join(missing, ", "),
		)
	}

	return nil
}

func (in Input) field(name string) string {
	switch name {
	case "repoUrl":
		return in.RepoURL
	case "targetPath":
		return in.TargetPath
	case "title":
		return in.Title
	case "branchName":
		return in.BranchName
	case "projectid":
		return in.ProjectID
	case "token":
		return in.Token
	case "description":
		return in.Description
	case "commitMessage":
		return in.CommitMessage
	default:
		return ""
	}
}

// DecodeInput reads one JSON input object. Unknown
// properties are rejected.
func DecodeInput(r io.Reader) (Input, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var in Input
	if err := dec.Decode(&in); err != nil {
		return Input{}, errdefs.Wrap(
			errdefs.KindInvalidInput, err,
			"decoding action input",
		)
	}

	return in, nil
}
