package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a dropped file must stay quiet before it is
// picked up; editors and copies fire several Write events per file.
const settleDelay = 500 * time.Millisecond

// Watch monitors a drop directory and ingests every file that appears in
// it into the given session, until ctx is cancelled. Dotfiles and
// subdirectories are ignored. Each ingestion runs on its own goroutine so
// a slow oracle does not stall the watch loop.
func (s *Service) Watch(ctx context.Context, dir, sessionID string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	s.logger.Info("watcher: started", slog.String("dir", dir), slog.String("session", sessionID))

	// Pending files and their settle timers.
	pending := make(map[string]*time.Timer)
	ready := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case path := <-ready:
			delete(pending, path)
			s.ingestFile(ctx, path, sessionID)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			if t, exists := pending[ev.Name]; exists {
				t.Reset(settleDelay)
				continue
			}
			path := ev.Name
			pending[path] = time.AfterFunc(settleDelay, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (s *Service) ingestFile(ctx context.Context, path, sessionID string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	filename := filepath.Base(path)
	s.logger.Info("watcher: ingesting dropped file", slog.String("file", filename))
	go s.Run(ctx, sessionID, data, filename)
}
