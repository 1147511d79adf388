package pipeline

import (
	"testing"

	"pgregory.net/rapid"
)

func TestFilterHidden(t *testing.T) {
	tests := []struct {
		name          string
		includeHidden bool
		suffix        []string
		want          bool
	}{
		{"plain file", false, []string{"a.txt"}, true},
		{"hidden file", false, []string{".a.txt"}, false},
		{"file in hidden dir", false, []string{"dir", ".git", "config"}, false},
		{"hidden allowed", true, []string{"dir", ".git", "config"}, true},
		{"dot inside name", false, []string{"dir", "a.b.c"}, true},
		{"root event", false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.includeHidden, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := f.Allow(tt.suffix); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.suffix, got, tt.want)
			}
		})
	}
}

func TestFilterIgnoreList(t *testing.T) {
	f, err := NewFilter(true, []string{"*.swp", "build/**", "node_modules"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		suffix []string
		want   bool
	}{
		{[]string{"notes.txt"}, true},
		{[]string{"dir", ".notes.txt.swp"}, false},
		{[]string{"build", "out", "bin"}, false},
		{[]string{"web", "node_modules", "x.js"}, false},
		{[]string{"builder", "x"}, true},
	}

	for _, tt := range tests {
		if got := f.Allow(tt.suffix); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.suffix, got, tt.want)
		}
	}
}

func TestNewFilterRejectsBadPattern(t *testing.T) {
	if _, err := NewFilter(false, []string{"[unclosed"}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

// Property: with hidden entries excluded, any suffix holding a dot-component is dropped,
// and the same suffix passes once hidden entries are included.
func TestHiddenProperty(t *testing.T) {
	visible := rapid.StringMatching(`[a-zA-Z0-9_][a-zA-Z0-9_.-]{0,7}`)
	hidden := rapid.StringMatching(`\.[a-zA-Z0-9_.-]{1,7}`)

	exclude, _ := NewFilter(false, nil)
	include, _ := NewFilter(true, nil)

	rapid.Check(t, func(t *rapid.T) {
		suffix := rapid.SliceOfN(visible, 0, 5).Draw(t, "suffix")
		if !exclude.Allow(suffix) {
			t.Fatalf("visible suffix %q was dropped", suffix)
		}

		at := rapid.IntRange(0, len(suffix)).Draw(t, "at")
		withHidden := append(append(append([]string{}, suffix[:at]...), hidden.Draw(t, "hidden")), suffix[at:]...)

		if exclude.Allow(withHidden) {
			t.Fatalf("hidden suffix %q was allowed", withHidden)
		}
		if !include.Allow(withHidden) {
			t.Fatalf("hidden suffix %q dropped with hidden entries included", withHidden)
		}
	})
}
