package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

const gitignoreName = ".gitignore"

// File is one serialized workspace entry.
type File struct {
	// Path is slash-separated and relative to
	// Options.RelativeTo.
	Path string
	// Content holds the file bytes, or the link target
	// for a symlink.
	Content []byte
	// Executable is set when any execute bit is set.
	Executable bool
	// Symlink is set for symbolic links, which are
	// never followed.
	Symlink bool
}

// Options controls Serialize.
type Options struct {
	// Gitignore honors .gitignore files found in the
	// walked tree.
	Gitignore bool
	// RelativeTo is the directory File.Path values are
	// relative to. Defaults to the serialized root. It
	// must be root or one of its ancestors.
	RelativeTo string
}

// ignoreRule is a compiled .gitignore scoped to the
// directory that holds it.
type ignoreRule struct {
	dir     string
	matcher *ignore.GitIgnore
}

// Serialize reads every file under root into memory.
// When root is a regular file only that file is
// returned. .git directories are always skipped.
//
// Entries come back in walk order; callers must not
// depend on any particular order.
func Serialize(
	ctx context.Context,
	root string,
	opts Options,
) ([]File, error) {
	const errCtx = "serializing directory contents"

	base := opts.RelativeTo
	if base == "" {
		base = root
	}

	info, err := os.Lstat(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !info.IsDir() {
		f, err := readEntry(root, base, info)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return []File{f}, nil
	}

	var (
		files []File
		rules []ignoreRule
	)

	err = filepath.WalkDir(
		root,
		func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}

				if p != root && ignored(rules, p, true) {
					return filepath.SkipDir
				}

				if opts.Gitignore {
					rule, ok, err := loadRule(p)
					if err != nil {
						return err
					}

					if ok {
						rules = append(rules, rule)
					}
				}

				return nil
			}

			if ignored(rules, p, false) {
				return nil
			}

			fi, err := d.Info()
			if err != nil {
				return err
			}

			f, err := readEntry(p, base, fi)
			if err != nil {
				return err
			}

			files = append(files, f)

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return files, nil
}

func readEntry(
	p string,
	base string,
	info fs.FileInfo,
) (File, error) {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return File{}, fmt.Errorf("relative path: %w", err)
	}

	f := File{
		Path:       filepath.ToSlash(rel),
		Executable: info.Mode().Perm()&0o111 != 0,
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(p)
		if err != nil {
			return File{}, fmt.Errorf(
				"read link %s: %w", p, err,
			)
		}

		f.Symlink = true
		f.Executable = false
		f.Content = []byte(target)

		return f, nil
	}

	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf(
			"unsupported file type %s at %s",
			info.Mode().Type(), p,
		)
	}

	content, err := os.ReadFile(p) //nolint:gosec // under the contained root
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", p, err)
	}

	f.Content = content

	return f, nil
}

// loadRule compiles dir/.gitignore when present.
func loadRule(dir string) (ignoreRule, bool, error) {
	p := filepath.Join(dir, gitignoreName)

	matcher, err := ignore.CompileIgnoreFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ignoreRule{}, false, nil
	}

	if err != nil {
		return ignoreRule{}, false, fmt.Errorf(
			"compile %s: %w", p, err,
		)
	}

	return ignoreRule{dir: dir, matcher: matcher}, true, nil
}

// ignored reports whether any rule from an ancestor
// directory matches p. Directory paths are also tested
// with a trailing slash so "dir/" patterns prune them.
func ignored(rules []ignoreRule, p string, isDir bool) bool {
	for _, r := range rules {
		rel, err := filepath.Rel(r.dir, p)
		if err != nil || escapes(rel) {
			continue
		}

		rel = filepath.ToSlash(rel)

		if r.matcher.MatchesPath(rel) {
			return true
		}

		if isDir && r.matcher.MatchesPath(rel+"/") {
			return true
		}
	}

	return false
}
