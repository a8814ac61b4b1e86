// Package watch broadcasts live status updates over a WebSocket as a
// repository's control directory changes. Its fsnotify debounce loop and
// refs-subtree walk are carried over from gitvista's watcher.go
// near-verbatim (gitvista's own "watch a repo for changes and push
// updates to connected browsers" feature). What changes is the payload:
// a status.Report computed through internal/repo instead of gitvista's
// read-only browse cache.
package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/status"
)

const (
	debounceTime       = 100 * time.Millisecond
	statusPollInterval = 2 * time.Second
)

// Watcher watches one repository's control directory and workspace for
// changes, recomputing status and pushing it to every connected client.
type Watcher struct {
	repo *repo.Repo
	hub  *Hub
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Watcher for r, broadcasting through hub.
func New(r *repo.Repo, hub *Hub, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{repo: r, hub: hub, log: log, ctx: ctx, cancel: cancel}
}

// Start begins watching and returns once the fsnotify watcher is armed;
// the watch and poll loops continue running in the background until
// Stop is called.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	gitDir := w.repo.GitDir()
	if err := fw.Add(gitDir); err != nil {
		return err
	}
	for _, sub := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		walkAndWatch(fw, filepath.Join(gitDir, sub), w.log)
	}

	w.wg.Add(2)
	go w.pollLoop()
	go w.watchLoop(fw)

	w.log.Info("watching repository for changes", "gitDir", gitDir)
	return nil
}

// Stop ends both background loops and waits for them to exit.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

func walkAndWatch(fw *fsnotify.Watcher, dir string, log *slog.Logger) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	err = filepath.Walk(dir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if fi.IsDir() {
			if addErr := fw.Add(path); addErr != nil {
				log.Warn("failed to watch directory", "dir", path, "error", addErr)
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to walk refs directory", "dir", dir, "error", err)
	}
}

// pollLoop catches workspace-only changes (new files, edits) that never
// touch the control directory and so would be invisible to fsnotify.
func (w *Watcher) pollLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	var lastJSON []byte
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.broadcastIfChanged(&lastJSON)
		}
	}
}

func (w *Watcher) watchLoop(fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer func() {
		if err := fw.Close(); err != nil {
			w.log.Error("failed to close watcher", "error", err)
		}
	}()

	var debounceTimer *time.Timer
	var lastJSON []byte

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			w.log.Debug("change detected", "file", filepath.Base(event.Name), "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceTime, func() {
				if w.ctx.Err() != nil {
					return
				}
				w.broadcastIfChanged(&lastJSON)
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) broadcastIfChanged(lastJSON *[]byte) {
	report, err := w.repo.Status()
	if err != nil {
		w.log.Warn("status computation failed during watch", "error", err)
		return
	}
	cur, err := json.Marshal(report)
	if err != nil {
		return
	}
	if string(cur) == string(*lastJSON) {
		return
	}
	*lastJSON = cur
	w.hub.Broadcast(Message{Type: "status", Status: &report})
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	path := event.Name

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.Contains(path, "/logs/") {
		return true
	}
	if base == "config" {
		return true
	}
	return false
}

// Message is the JSON envelope pushed to every connected client.
type Message struct {
	Type   string         `json:"type"`
	Status *status.Report `json:"status,omitempty"`
}
