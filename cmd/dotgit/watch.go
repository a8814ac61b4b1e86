package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/watch"
)

const defaultWatchAddr = ":7417"

func runWatch(r *repo.Repo, args []string) int {
	addr := defaultWatchAddr
	if len(args) > 0 {
		addr = args[0]
	}

	server := watch.NewServer(r, nil)
	watcher, err := server.StartWatching()
	if err != nil {
		fatal(err)
	}
	defer watcher.Stop()

	fmt.Printf("watching %s, serving status on http://%s\n", r.WorkDir(), addr)

	httpServer := &http.Server{Addr: addr, Handler: server}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			fatal(err)
		}
	case <-sigCh:
		_ = httpServer.Close()
	}
	return 0
}
