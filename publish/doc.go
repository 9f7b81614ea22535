// Package publish publishes the contents of a scaffolder workspace as an
// issue or merge request on the repository's code-hosting platform.
//
// An Action is registered once per Mode and handles one invocation at a
// time per ActionContext. It parses the repository URL, resolves the
// integration credential for the host, serializes the target path inside
// the workspace, assembles the payload and hands it to the Executor, which
// resolves the project and creates the resource through a remote.Provider.
//
// Outputs are written to the ActionContext's Sink under the keys declared by
// SchemaFor.
package publish
