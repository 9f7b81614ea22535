// Package remote defines the strategy interface for the code-hosting API the
// publish flow talks to.
//
// The Provider interface abstracts project lookup, issue creation and merge
// request creation. Implementations exist for GitLab and GitHub in
// sub-packages. FactoryByType picks the implementation matching an
// integration's type.
package remote
