package workspace

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/byte4ever/scaffold_publish/publish/errdefs"
)

// SafeChildPath joins target onto root and rejects any
// result that leaves root. An absolute target is kept
// as-is and must already lie under root.
//
// The joined path is first checked lexically, so a
// target such as "../../etc" is rejected without
// touching the filesystem. Symlinks in the existing part
// of root and of the joined path are then resolved and
// the check is repeated, so a link inside the workspace
// cannot lead out of it.
func SafeChildPath(root string, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errdefs.Wrap(
			errdefs.KindContainment, err,
			"invalid workspace root %q", root,
		)
	}

	resolved := filepath.Join(absRoot, target)
	if filepath.IsAbs(target) {
		resolved = filepath.Clean(target)
	}

	if !within(absRoot, resolved) {
		return "", outside(target)
	}

	realRoot, err := evalExisting(absRoot)
	if err != nil {
		return "", errdefs.Wrap(
			errdefs.KindContainment, err,
			"resolving workspace root %q", root,
		)
	}

	realTarget, err := evalExisting(resolved)
	if err != nil {
		return "", errdefs.Wrap(
			errdefs.KindContainment, err,
			"resolving path %q", target,
		)
	}

	if !within(realRoot, realTarget) {
		return "", outside(target)
	}

	return resolved, nil
}

func outside(target string) error {
	return errdefs.New(
		errdefs.KindContainment,
		"relative path %q is not allowed to refer "+
			"to a directory outside the workspace",
		target,
	)
}

func within(root string, p string) bool {
	rel, err := filepath.Rel(root, p)

	return err == nil && !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(rel)
}

// evalExisting resolves symlinks in the longest existing
// prefix of the absolute path p and appends the missing
// remainder unchanged.
func evalExisting(p string) (string, error) {
	var tail []string

	for {
		evaluated, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{evaluated}, tail...)...), nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(append([]string{p}, tail...)...), nil
		}

		tail = append([]string{filepath.Base(p)}, tail...)
		p = parent
	}
}
