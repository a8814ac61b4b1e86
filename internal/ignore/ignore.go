// Package ignore implements an is_ignored(path) predicate: default rules
// (the control directory, editor backup files) plus an optional
// .gitignore-style patterns file at the workspace root. Pattern parsing
// and glob matching are carried over from gitvista's ignoreMatcher almost
// unchanged. dotgit's ignore semantics are the same gitignore dialect,
// just not scoped to a per-directory walk of nested .gitignore files; a
// single workspace-root patterns file is all that's supported.
package ignore

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// pattern is a single parsed ignore-file line.
type pattern struct {
	text     string
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher answers is_ignored queries for a workspace.
type Matcher struct {
	controlDirName string
	rules          []pattern
	log            *slog.Logger
}

// defaultBackupSuffixes are editor/tool backup files excluded regardless of
// any patterns file.
var defaultBackupSuffixes = []string{"~", ".swp", ".swo", ".bak"}

// Load builds a Matcher for a workspace rooted at workspaceRoot, whose
// control directory is named controlDirName (e.g. ".dotgit"). patternsFile
// supplies additional gitignore-style rules; empty means .dotgitignore at
// the workspace root, and a missing file adds no rules.
func Load(workspaceRoot, controlDirName, patternsFile string, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.Default()
	}
	m := &Matcher{controlDirName: controlDirName, log: log}

	if patternsFile == "" {
		patternsFile = filepath.Join(workspaceRoot, ".dotgitignore")
	}
	m.loadFile(patternsFile)
	return m
}

func (m *Matcher) loadFile(path string) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled, relative to the workspace
	if err != nil {
		return // absent patterns file is fine; only defaults apply
	}
	defer func() {
		if err := f.Close(); err != nil {
			m.log.Warn("closing ignore patterns file", "path", path, "error", err)
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		pat, ok := parseLine(scanner.Text())
		if ok {
			m.rules = append(m.rules, pat)
		}
	}
}

// IsIgnored reports whether relPath (forward-slash separated, relative to
// the workspace root) should be excluded from staging and untracked-file
// scans. The control directory itself is always ignored; staging and
// untracked-file scans never walk into it.
func (m *Matcher) IsIgnored(relPath string) bool {
	first, _, _ := strings.Cut(relPath, "/")
	if first == m.controlDirName {
		return true
	}
	if isBackupFile(relPath) {
		return true
	}

	ignored := false
	for _, r := range m.rules {
		if matches(r, relPath) {
			ignored = !r.negated
		}
	}
	return ignored
}

func isBackupFile(relPath string) bool {
	for _, suffix := range defaultBackupSuffixes {
		if strings.HasSuffix(relPath, suffix) {
			return true
		}
	}
	return false
}

// parseLine parses one ignore-file line, returning ok=false for blank lines
// and comments.
func parseLine(line string) (pattern, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || line[0] == '#' {
		return pattern{}, false
	}

	var pat pattern
	if line[0] == '!' {
		pat.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		pat.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		pat.anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		remainder := strings.TrimPrefix(line, "**/")
		if strings.Contains(remainder, "/") || !strings.HasPrefix(line, "**/") {
			pat.anchored = true
		}
	}

	pat.text = line
	return pat, line != ""
}

// matches checks relPath against a single rule, trying the basename first
// (for non-anchored patterns) and then the full path. A directory-only rule
// is tried against each leading directory of relPath instead, never against
// its final component.
func matches(p pattern, relPath string) bool {
	if p.dirOnly {
		p.dirOnly = false
		parts := strings.Split(relPath, "/")
		for i := 1; i < len(parts); i++ {
			if matches(p, strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}
	if p.anchored {
		return matchGlob(p.text, relPath)
	}

	base := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		base = relPath[idx+1:]
	}
	return matchGlob(p.text, base) || matchGlob(p.text, relPath)
}

// matchGlob matches a gitignore-style pattern, including "**" path-spanning
// wildcards that filepath.Match alone can't express.
func matchGlob(pat, name string) bool {
	if !strings.Contains(pat, "**") {
		matched, _ := filepath.Match(pat, name)
		return matched
	}
	return matchSegments(strings.Split(pat, "/"), strings.Split(name, "/"))
}

func matchSegments(patParts, nameParts []string) bool {
	pi, ni := 0, 0
	for pi < len(patParts) && ni < len(nameParts) {
		if patParts[pi] == "**" {
			pi++
			if pi >= len(patParts) {
				return true
			}
			for tryNi := ni; tryNi <= len(nameParts); tryNi++ {
				if matchSegments(patParts[pi:], nameParts[tryNi:]) {
					return true
				}
			}
			return false
		}
		matched, _ := filepath.Match(patParts[pi], nameParts[ni])
		if !matched {
			return false
		}
		pi++
		ni++
	}
	for pi < len(patParts) {
		if patParts[pi] != "**" {
			return false
		}
		pi++
	}
	return ni >= len(nameParts)
}
