// Package validate checks a paired folder before it is stored or started.
package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mirrorsync/internal/config"
	"mirrorsync/internal/model"
)

type role struct {
	name      string
	access    string
	canAccess func(string) bool
}

var (
	sourceRole = role{name: "source", access: "readable", canAccess: readable}
	targetRole = role{name: "target", access: "writable", canAccess: writable}
)

// PairedFolder returns every problem found with folder, joined. existing are
// the other stored folders; the one sharing folder's ID is skipped.
func PairedFolder(folder model.PairedFolder, existing []model.PairedFolder) error {
	var errs []error

	src, srcErr := checkDir(folder.Source, sourceRole)
	if srcErr != nil {
		errs = append(errs, srcErr)
	}

	dst, dstErr := checkDir(folder.Target, targetRole)
	if dstErr != nil {
		errs = append(errs, dstErr)
	}

	if srcErr == nil && dstErr == nil {
		switch {
		case src == dst:
			errs = append(errs, errors.New("source and target point to the same location"))
		case within(dst, src):
			errs = append(errs, errors.New("the target path is inside the source path"))
		case within(src, dst):
			errs = append(errs, errors.New("the source path is inside the target path"))
		}
	}

	if dstErr == nil {
		for _, other := range existing {
			if other.ID == folder.ID {
				continue
			}
			if resolve(other.Target) == dst {
				errs = append(errs, fmt.Errorf("the target path is already in use by the configuration %q", other.Alias))
				break
			}
		}
	}

	switch {
	case folder.BufferSize > config.MaxBufferSize:
		errs = append(errs, fmt.Errorf("the maximum allowed buffer size is %d", config.MaxBufferSize))
	case folder.BufferSize < config.MinBufferSize:
		errs = append(errs, fmt.Errorf("the minimum allowed buffer size is %d", config.MinBufferSize))
	}

	return errors.Join(errs...)
}

func checkDir(path string, r role) (string, error) {
	if path == "" {
		return "", fmt.Errorf("the %s path is not a valid location", r.name)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("the %s path is not a valid location", r.name)
	}

	if !r.canAccess(path) {
		return "", fmt.Errorf("the %s path is not a %s location", r.name, r.access)
	}

	return resolve(path), nil
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
