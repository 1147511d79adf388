package pathmap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mirrorsync/internal/model"
	"pgregory.net/rapid"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"/"}},
		{"/src", []string{"/", "src"}},
		{"/src/a/b.txt", []string{"/", "src", "a", "b.txt"}},
		{"/src//a/./b/", []string{"/", "src", "a", "b"}},
		{"rel/x", []string{"rel", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Split(filepath.FromSlash(tt.path)); !reflect.DeepEqual(got, fromSlash(tt.want)) {
				t.Errorf("Split(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want []string
	}{
		{"nested file", "/src", "/src/dir/a.txt", []string{"dir", "a.txt"}},
		{"root itself", "/src", "/src", nil},
		{"shorter than root", "/src/deep", "/src", nil},
		{"hidden root is not part of the suffix", "/home/.cache/src", "/home/.cache/src/a", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suffix(filepath.FromSlash(tt.root), filepath.FromSlash(tt.path))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslateKeepsDisplayForm(t *testing.T) {
	pair := Translate("/home/me/link", "/mnt/real", []string{"dir", "a.txt"})

	want := model.PathPair{
		Base:     "/home/me/link",
		Resolved: filepath.Join("/mnt/real", "dir", "a.txt"),
		Display:  filepath.Join("/home/me/link", "dir", "a.txt"),
	}
	if pair != want {
		t.Errorf("Translate() = %+v, want %+v", pair, want)
	}
}

func TestNewRootResolvesSymlinks(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	link := filepath.Join(base, "link")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	root, err := NewRoot(link)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}

	wantResolved, _ := filepath.EvalSymlinks(realDir)
	if root.Resolved != wantResolved {
		t.Errorf("Resolved = %q, want %q", root.Resolved, wantResolved)
	}
	if root.Display != link {
		t.Errorf("Display = %q, want %q", root.Display, link)
	}
}

func TestNewRootMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	if _, err := NewRoot(missing); err == nil {
		t.Fatal("expected error for missing root")
	}

	root := LenientRoot(missing)
	if root.Resolved != missing || root.Display != missing {
		t.Errorf("LenientRoot() = %+v", root)
	}
}

func TestMapperPairs(t *testing.T) {
	m := Mapper{
		Source: Root{Display: "/src", Resolved: "/src"},
		Target: Root{Display: "/dst", Resolved: "/data/dst"},
	}

	src, dst, suffix := m.Pairs(filepath.FromSlash("/src/a/b.txt"))

	if !reflect.DeepEqual(suffix, []string{"a", "b.txt"}) {
		t.Errorf("suffix = %q", suffix)
	}
	if src.Resolved != filepath.FromSlash("/src/a/b.txt") || src.Display != filepath.FromSlash("/src/a/b.txt") {
		t.Errorf("src = %+v", src)
	}
	if dst.Resolved != filepath.FromSlash("/data/dst/a/b.txt") || dst.Display != filepath.FromSlash("/dst/a/b.txt") {
		t.Errorf("dst = %+v", dst)
	}
}

// Property: translation strips exactly the source root's components and re-prepends the target root.
func TestTranslateProperty(t *testing.T) {
	component := rapid.StringMatching(`\.?[a-zA-Z0-9_][a-zA-Z0-9_.-]{0,7}`)

	rapid.Check(t, func(t *rapid.T) {
		srcRoot := filepath.Join(append([]string{string(filepath.Separator)}, rapid.SliceOfN(component, 1, 4).Draw(t, "src")...)...)
		dstRoot := filepath.Join(append([]string{string(filepath.Separator)}, rapid.SliceOfN(component, 1, 4).Draw(t, "dst")...)...)
		suffix := rapid.SliceOfN(component, 0, 6).Draw(t, "suffix")

		eventPath := filepath.Join(append([]string{srcRoot}, suffix...)...)
		got := Suffix(srcRoot, eventPath)
		if len(got) != len(suffix) {
			t.Fatalf("Suffix(%q, %q) = %q, want %q", srcRoot, eventPath, got, suffix)
		}
		for i := range got {
			if got[i] != suffix[i] {
				t.Fatalf("Suffix(%q, %q) = %q, want %q", srcRoot, eventPath, got, suffix)
			}
		}

		pair := Translate(dstRoot, dstRoot, got)
		if n := len(Split(pair.Resolved)); n != len(Split(dstRoot))+len(suffix) {
			t.Fatalf("translated %q has %d components", pair.Resolved, n)
		}
		if pair.Resolved != filepath.Join(append([]string{dstRoot}, suffix...)...) {
			t.Fatalf("Resolved = %q", pair.Resolved)
		}
	})
}

func fromSlash(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = filepath.FromSlash(p)
	}
	return out
}
