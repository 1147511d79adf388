package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const tempPattern = ".mirrorsync-*.tmp"

// CopyFile replaces dst with the bytes, permissions and modification time of src.
// The copy goes through a temp file in dst's directory and is renamed into place.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open src: %w", err)
	}

	defer func(in *os.File) {
		_ = in.Close()
	}(in)

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat src: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}

	out, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmp := out.Name()
	defer func() {
		if tmp != "" {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy: %w", err)
	}

	if err := out.Chmod(info.Mode().Perm()); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Close before Chtimes; flushing can bump the modification time.
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set timestamps: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	tmp = ""
	return nil
}

// EnsureDir creates dir and any missing parents. An existing directory is success.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	return nil
}

// RemoveTree deletes path and everything below it, children before parents.
// Symlinks are removed, never followed. Entries that vanish meanwhile are skipped.
func RemoveTree(path string) error {
	type frame struct {
		path     string
		expanded bool
	}

	stack := []frame{{path: path}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.expanded {
			p := top.path
			stack = stack[:len(stack)-1]
			if err := RemoveIfExists(p); err != nil {
				return err
			}
			continue
		}

		info, err := os.Lstat(top.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				stack = stack[:len(stack)-1]
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", top.path, err)
		}

		if !info.IsDir() {
			p := top.path
			stack = stack[:len(stack)-1]
			if err := RemoveIfExists(p); err != nil {
				return err
			}
			continue
		}

		top.expanded = true
		entries, err := os.ReadDir(top.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				stack = stack[:len(stack)-1]
				continue
			}
			return fmt.Errorf("failed to read %s: %w", top.path, err)
		}

		parent := top.path
		for _, entry := range entries {
			stack = append(stack, frame{path: filepath.Join(parent, entry.Name())})
		}
	}

	return nil
}

func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Exists reports whether path exists. Symlinks are followed when follow is set.
func Exists(path string, follow bool) bool {
	var err error
	if follow {
		_, err = os.Stat(path)
	} else {
		_, err = os.Lstat(path)
	}

	return err == nil
}
