// Package workspace reads the scaffolder workspace. SafeChildPath confines a
// caller-supplied relative path to the workspace root, and Serialize loads a
// subtree into memory as path/content pairs, honoring .gitignore files.
package workspace
