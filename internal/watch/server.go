package watch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/dotgit-vcs/dotgit/internal/history"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/yuin/goldmark"
)

// Server is the HTTP+WebSocket frontend for watch mode: GET /status
// returns a JSON snapshot, GET /ws upgrades to the live-update stream.
type Server struct {
	repo *repo.Repo
	hub  *Hub
	log  *slog.Logger
	mux  *http.ServeMux
}

// NewServer builds a watch Server for r.
func NewServer(r *repo.Repo, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{repo: r, hub: NewHub(log), log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/", s.handleIndex)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.repo.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.log.Error("failed to encode status response", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	report, err := s.repo.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.hub.ServeHTTP(w, r, Message{Type: "status", Status: &report})
}

// handleIndex renders a small HTML page: the branch/status summary plus
// recent commit history, with each commit message run through goldmark so
// that markdown-formatted commit bodies (lists, code spans, links) render
// instead of showing raw asterisks and backticks.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	report, err := s.repo.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	head, err := s.repo.Refs().ReadHead()
	var entries []history.Entry
	if err == nil && !head.Resolved.IsZero() {
		entries, _ = history.Walk(s.repo.Objects().GetCommit, head.Resolved, 20)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<!doctype html><html><head><title>dotgit watch</title></head><body>")
	title := "HEAD detached"
	if !report.Detached {
		title = "On branch " + report.Branch
	}
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(title))
	fmt.Fprintf(&b, "<h2>History</h2>")
	for _, e := range entries {
		fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(e.Hash.Short()))
		var rendered bytes.Buffer
		if err := goldmark.Convert([]byte(e.Commit.Message), &rendered); err != nil {
			rendered.WriteString(html.EscapeString(e.Commit.Message))
		}
		b.Write(rendered.Bytes())
	}
	fmt.Fprintf(&b, "</body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(b.Bytes())
}

// StartWatching arms the fsnotify watcher feeding this server's hub.
func (s *Server) StartWatching() (*Watcher, error) {
	w := New(s.repo, s.hub, s.log)
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
