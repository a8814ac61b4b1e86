package watch

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func newTestRepo(t *testing.T) *repo.Repo {
	t.Helper()
	dir := t.TempDir()
	r, err := repo.Init(dir, objects.DefaultFormat, nil)
	if err != nil {
		t.Fatalf("repo.Init() error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Add([]string{"README.md"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Commit("initial\n\nsome **bold** text"); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestHandleStatusServesJSON(t *testing.T) {
	r := newTestRepo(t)
	s := NewServer(r, nil)

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("/status status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("/status Content-Type = %q, want application/json", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("/status returned an empty body")
	}
}

func TestHandleIndexRendersMarkdown(t *testing.T) {
	r := newTestRepo(t)
	s := NewServer(r, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("/ status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("/ body = %q, want the commit message's markdown bold rendered to <strong>", body)
	}
	if !strings.Contains(body, "On branch main") {
		t.Errorf("/ body = %q, want the branch title", body)
	}
}
