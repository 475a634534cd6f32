package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshanjarow/fellowship-tracker/pkg/site"
)

// rebuildDebounce coalesces the event bursts editors produce on save
// into a single rebuild.
const rebuildDebounce = 300 * time.Millisecond

// runServe builds the site, serves the output directory, and rebuilds
// whenever a source or data file changes. It blocks until SIGINT or
// SIGTERM.
func runServe(logger *slog.Logger, config *Config) error {
	builder := site.NewBuilder(logger, config.Site)
	if err := builder.Build(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, root := range []string{config.Site.InputDir, config.Site.DataDir} {
		if err = watchTree(watcher, root); err != nil {
			return err
		}
	}

	stop := make(chan struct{})
	go watchLoop(logger, builder, watcher, stop)

	httpServer := &http.Server{
		Addr:    config.Server.ServerAddr,
		Handler: http.FileServer(http.Dir(config.Site.OutputDir)),
	}

	go func() {
		logger.Info("Serving site", "address", httpServer.Addr, "dir", config.Site.OutputDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Preview server failed", "error", err)
		}
	}()

	osSignalChan := make(chan os.Signal, 1)
	signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
	<-osSignalChan
	logger.Info("OS signal received, shutting down.")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(ctx); err != nil {
		logger.Error("Preview server shutdown failed", "error", err)
	}
	return nil
}

// watchTree registers a directory and everything below it.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// watchLoop rebuilds the site after changes settle. New directories
// are added to the watch set as they appear.
func watchLoop(logger *slog.Logger, builder *site.Builder, watcher *fsnotify.Watcher, stop <-chan struct{}) {
	var debounce *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error", "error", err)
		case <-rebuild:
			logger.Info("Rebuilding site")
			if err := builder.Build(); err != nil {
				logger.Error("Rebuild failed", "error", err)
			}
		}
	}
}
