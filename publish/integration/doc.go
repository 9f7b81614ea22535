// Package integration holds the per-host integration registry and the
// credential resolver.
//
// A Registry maps a host name to its Config (platform type, base URL and an
// optional static token). Registries are built in code with NewRegistry or
// loaded from a YAML integrations file with LoadFile, which expands ${VAR}
// references from the environment.
//
// Resolve decides which token an invocation uses. A caller-supplied token
// wins and is tagged KindOAuthToken; otherwise the configured token is used
// and tagged KindToken. The tag tells the remote client how to format the
// authentication header.
package integration
