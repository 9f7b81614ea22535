package payload

import (
	"fmt"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/scaffold_publish/publish/workspace"
)

// OnboardingLabel is attached to every published issue.
const OnboardingLabel = "onboarding"

// Policy selects how an issue description is derived
// from the serialized files.
type Policy string

const (
	// PolicyConcatenate joins the content of every
	// serialized file, in collector order, with no
	// separator.
	PolicyConcatenate Policy = "concatenate"
	// PolicySingleFile uses the content of the one file
	// whose path equals the target path input; the
	// description is empty when nothing matches.
	PolicySingleFile Policy = "single-file"
)

// ParsePolicy maps a flag value to a Policy. The empty
// string selects PolicyConcatenate.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.TrimSpace(s)) {
	case "", PolicyConcatenate:
		return PolicyConcatenate, nil
	case PolicySingleFile:
		return PolicySingleFile, nil
	default:
		return "", fmt.Errorf(
			"unknown description policy %q", s,
		)
	}
}

// Issue is the body of an issue creation request.
type Issue struct {
	Title       string
	Description string
	Labels      []string
}

// Assemble builds the issue payload. The title passes
// through unchanged and labels are always
// [OnboardingLabel].
func Assemble(
	files []workspace.File,
	title string,
	targetPath string,
	policy Policy,
) Issue {
	return Issue{
		Title:       title,
		Description: describe(files, targetPath, policy),
		Labels:      []string{OnboardingLabel},
	}
}

func describe(
	files []workspace.File,
	targetPath string,
	policy Policy,
) string {
	if policy == PolicySingleFile {
		for _, f := range files {
			if f.Path == targetPath {
				return string(f.Content)
			}
		}

		return ""
	}

	var sb strings.Builder

	for _, f := range files {
		sb.Write(f.Content)
	}

	return sb.String()
}

// MergeRequest is the body of a merge request creation:
// the files to commit on SourceBranch and the request
// itself.
type MergeRequest struct {
	Title              string
	Description        string
	CommitMessage      string
	SourceBranch       string
	TargetBranch       string
	RemoveSourceBranch bool
	Files              []workspace.File
}

// MergeRequestInput carries the action inputs that shape
// a merge request.
type MergeRequestInput struct {
	Title              string
	Description        string
	CommitMessage      string
	BranchName         string
	TargetPath         string
	RemoveSourceBranch bool
}

// AssembleMergeRequest builds a merge request payload.
// files are committed at their workspace-relative
// paths. An explicit description
// wins over the policy-derived one. The commit message
// defaults to the title and may reference {{title}},
// {{branchName}} and {{targetPath}}.
func AssembleMergeRequest(
	files []workspace.File,
	in MergeRequestInput,
	policy Policy,
) MergeRequest {
	desc := in.Description
	if desc == "" {
		desc = describe(files, in.TargetPath, policy)
	}

	return MergeRequest{
		Title:              in.Title,
		Description:        desc,
		CommitMessage:      commitMessage(in),
		SourceBranch:       in.BranchName,
		RemoveSourceBranch: in.RemoveSourceBranch,
		Files:              files,
	}
}

func commitMessage(in MergeRequestInput) string {
	if in.CommitMessage == "" {
		return in.Title
	}

	return fasttemplate.ExecuteStringStd(
		in.CommitMessage, "{{", "}}",
		map[string]any{
			"title":      in.Title,
			"branchName": in.BranchName,
			"targetPath": in.TargetPath,
		},
	)
}
