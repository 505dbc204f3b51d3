package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/edtools/pscpm-go/internal/pspath"
)

// debounceWindow coalesces the burst of write events editors emit on save
// into a single publish.
const debounceWindow = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Publish workspace files automatically on save",
		Long: `Watch the workspace root and publish every saved file to its mirrored
remote path. Runs until interrupted. Hidden files and non-content extensions
are ignored.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	root := a.localRoot()
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("workspace root %q does not exist — run 'pscpm sync' first", root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchRecursive(watcher, root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusf("Watching %s — save a file to publish it (Ctrl-C to stop)\n", root)

	w := &watchLoop{
		app:     a,
		root:    root,
		watcher: watcher,
		pending: make(map[string]*time.Timer),
	}

	return w.run(ctx)
}

// watchRecursive registers root and every directory below it. fsnotify
// watches are not recursive on any platform we support.
func watchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watching %q: %w", path, err)
			}
		}

		return nil
	})
}

type watchLoop struct {
	app     *app
	root    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func (w *watchLoop) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			statusf("Stopped.\n")

			return nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			w.app.logger.Warn("watcher error", "error", err.Error())

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			w.handleEvent(ctx, event)
		}
	}
}

func (w *watchLoop) handleEvent(ctx context.Context, event fsnotify.Event) {
	// New directories join the watch set so nested saves are seen.
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.app.logger.Warn("cannot watch new directory", "path", event.Name, "error", err.Error())
			}

			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if !publishable(event.Name) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule (re)arms the debounce timer for one file. The publish fires only
// once the save burst has settled.
func (w *watchLoop) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(debounceWindow)

		return
	}

	w.pending[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.publish(ctx, path)
	})
}

func (w *watchLoop) publish(ctx context.Context, localPath string) {
	remotePath, err := pspath.ToRemote(localPath, w.root)
	if err != nil {
		w.app.logger.Warn("ignoring file outside workspace", "path", localPath)

		return
	}

	raw, err := os.ReadFile(localPath)
	if err != nil {
		w.app.logger.Warn("cannot read saved file", "path", localPath, "error", err.Error())

		return
	}

	if _, err := w.app.client.WriteContent(ctx, remotePath, string(raw)); err != nil {
		statusf("Publish failed for %s: %v\n", remotePath, err)

		return
	}

	statusf("Published %s (%d bytes)\n", remotePath, len(raw))
}

// publishable filters the watch stream down to content files: hidden files,
// editor swap files, and unknown extensions never publish.
func publishable(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}

	return pspath.HasContentExtension(name)
}
