// Package pathmap maps paths observed under a source root onto a target root.
//
// A root is tracked in two forms: the path as configured (Display) and the same
// path with symlinks resolved (Resolved). Event paths always arrive in resolved
// form, so the relative suffix is taken from the resolved root and re-joined onto
// both forms of the other root.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"

	"mirrorsync/internal/model"
)

type Root struct {
	Display  string
	Resolved string
}

// NewRoot resolves path for I/O. It fails when the path or one of its symlinks
// cannot be resolved.
func NewRoot(path string) (Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Root{}, fmt.Errorf("invalid path %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return Root{Display: filepath.Clean(path), Resolved: resolved}, nil
}

// LenientRoot is NewRoot for roots that may not exist yet; unresolvable paths
// fall back to their cleaned absolute form.
func LenientRoot(path string) Root {
	if root, err := NewRoot(path); err == nil {
		return root
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	return Root{Display: filepath.Clean(path), Resolved: abs}
}

// Split returns the components of a cleaned path. The root separator of an
// absolute path is kept as the first component.
func Split(path string) []string {
	path = filepath.Clean(path)

	vol := filepath.VolumeName(path)
	rest := path[len(vol):]

	var parts []string
	if strings.HasPrefix(rest, string(filepath.Separator)) {
		parts = append(parts, vol+string(filepath.Separator))
		rest = rest[1:]
	} else if vol != "" {
		parts = append(parts, vol)
	}

	if rest == "" || rest == "." {
		return parts
	}

	return append(parts, strings.Split(rest, string(filepath.Separator))...)
}

// Suffix strips as many leading components from path as resolvedRoot has.
func Suffix(resolvedRoot, path string) []string {
	n := len(Split(resolvedRoot))
	parts := Split(path)
	if len(parts) <= n {
		return nil
	}

	return parts[n:]
}

func Translate(rootDisplay, rootResolved string, suffix []string) model.PathPair {
	return model.PathPair{
		Base:     rootDisplay,
		Resolved: filepath.Join(append([]string{rootResolved}, suffix...)...),
		Display:  filepath.Join(append([]string{rootDisplay}, suffix...)...),
	}
}

func (r Root) Translate(suffix []string) model.PathPair {
	return Translate(r.Display, r.Resolved, suffix)
}

// Mapper translates resolved source-tree event paths into both sides of a session.
type Mapper struct {
	Source Root
	Target Root
}

func NewMapper(session model.MirrorSession) (Mapper, error) {
	src, err := NewRoot(session.SourceRoot)
	if err != nil {
		return Mapper{}, err
	}

	return Mapper{Source: src, Target: LenientRoot(session.TargetRoot)}, nil
}

func (m Mapper) Pairs(path string) (src, dst model.PathPair, suffix []string) {
	suffix = Suffix(m.Source.Resolved, path)
	return m.Source.Translate(suffix), m.Target.Translate(suffix), suffix
}
