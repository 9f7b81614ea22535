// Package payload assembles issue and merge request bodies from serialized
// workspace files.
//
// Two description policies exist and are mutually exclusive. PolicyConcatenate
// (the default) joins every file's content in collector order.
// PolicySingleFile uses the content of the file whose path equals the target
// path input. The policy is chosen explicitly by the caller; nothing falls
// back from one to the other.
package payload
