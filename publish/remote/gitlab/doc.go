// Package gitlab implements remote.Provider on top of the GitLab REST API.
//
// Issues are created directly. Merge requests first commit the serialized
// files to a new source branch through the commits API, then open the merge
// request against the target branch.
package gitlab
