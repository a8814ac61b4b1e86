package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsIgnoreControlDirAndBackups(t *testing.T) {
	root := t.TempDir()
	m := Load(root, ".dotgit", "", nil)

	cases := map[string]bool{
		".dotgit/index":  true,
		".dotgit/HEAD":   true,
		"main.go~":       true,
		"main.go.swp":    true,
		"main.go.bak":    true,
		"main.go":        false,
		"src/app.go":     false,
	}
	for path, want := range cases {
		if got := m.IsIgnored(path); got != want {
			t.Errorf("IsIgnored(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPatternsFileExcludesMatches(t *testing.T) {
	root := t.TempDir()
	patterns := filepath.Join(root, ".dotgitignore")
	if err := os.WriteFile(patterns, []byte("*.log\nbuild/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := Load(root, ".dotgit", patterns, nil)

	if !m.IsIgnored("debug.log") {
		t.Error("IsIgnored(debug.log) = false, want true")
	}
	if m.IsIgnored("main.go") {
		t.Error("IsIgnored(main.go) = true, want false")
	}
}

func TestNegatedPatternReincludes(t *testing.T) {
	root := t.TempDir()
	patterns := filepath.Join(root, ".dotgitignore")
	if err := os.WriteFile(patterns, []byte("*.log\n!important.log\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := Load(root, ".dotgit", patterns, nil)

	if m.IsIgnored("important.log") {
		t.Error("IsIgnored(important.log) = true, want false (negated)")
	}
	if !m.IsIgnored("debug.log") {
		t.Error("IsIgnored(debug.log) = false, want true")
	}
}

func TestDoubleStarMatchesAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	patterns := filepath.Join(root, ".dotgitignore")
	if err := os.WriteFile(patterns, []byte("**/vendor/**\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := Load(root, ".dotgit", patterns, nil)

	if !m.IsIgnored("pkg/vendor/lib/file.go") {
		t.Error("IsIgnored(pkg/vendor/lib/file.go) = false, want true")
	}
}

func TestMissingPatternsFileIsNotAnError(t *testing.T) {
	root := t.TempDir()
	m := Load(root, ".dotgit", filepath.Join(root, "does-not-exist"), nil)

	if m.IsIgnored("main.go") {
		t.Error("IsIgnored(main.go) = true with no patterns file")
	}
}
