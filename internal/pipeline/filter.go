package pipeline

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const hiddenMarker = "."

// Filter decides whether an event below the source root is replicated. It only
// sees the relative components, so a root inside a dot-directory is never hidden.
type Filter struct {
	includeHidden bool
	ignoreList    []string
}

func NewFilter(includeHidden bool, ignoreList []string) (*Filter, error) {
	for _, pattern := range ignoreList {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	return &Filter{
		includeHidden: includeHidden,
		ignoreList:    ignoreList,
	}, nil
}

func (f *Filter) Allow(suffix []string) bool {
	if !f.includeHidden && IsHidden(suffix) {
		return false
	}

	return !shouldIgnore(suffix, f.ignoreList)
}

func IsHidden(suffix []string) bool {
	for _, part := range suffix {
		if strings.HasPrefix(part, hiddenMarker) {
			return true
		}
	}

	return false
}

func shouldIgnore(suffix []string, ignoreList []string) bool {
	if len(suffix) == 0 || len(ignoreList) == 0 {
		return false
	}

	rel := strings.Join(suffix, "/")
	for _, pattern := range ignoreList {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}

		for _, part := range suffix {
			if matched, _ := doublestar.Match(pattern, part); matched {
				return true
			}
		}
	}

	return false
}
