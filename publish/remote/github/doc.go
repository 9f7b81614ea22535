// Package github implements remote.Provider for GitHub and GitHub Enterprise.
//
// Merge requests map to pull requests. The files are written through the git
// data API (blobs, tree, commit, ref) so the whole subtree lands in a single
// commit.
package github
