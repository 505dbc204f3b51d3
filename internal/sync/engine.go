// Package sync mirrors the remote customization tree onto a local directory:
// missing local folders and pages are created, and local entries with no
// remote counterpart are deleted. Sync is best-effort per branch — a failure
// under one folder logs and skips that subtree without aborting the run.
package sync

import (
	"context"
	"log/slog"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/edtools/pscpm-go/internal/cpm"
	"github.com/edtools/pscpm-go/internal/pspath"
)

// Remote is the slice of the CPM client the engine needs.
type Remote interface {
	ListFolder(ctx context.Context, path string, maxDepth int) (*cpm.TreeNode, error)
	ReadContent(ctx context.Context, path string) (string, error)
}

// LocalStore is the local filesystem collaborator. The engine never touches
// the filesystem directly, so tests can observe every mutation.
type LocalStore interface {
	WriteFile(path, text string) error
	EnsureDir(path string) error
	ListDir(path string) ([]string, error)
	Delete(path string) error
	Exists(path string) bool
}

// Result summarizes one sync run. The run is "completed" once the root
// branch resolves; Errors counts branches that were skipped after a failure.
type Result struct {
	FoldersCreated  int
	FilesDownloaded int
	// Skipped counts pages left alone because a local copy already exists.
	Skipped int
	Deleted int
	Errors  int
}

// Engine walks the remote tree and reconciles it with the local mirror.
type Engine struct {
	remote Remote
	local  LocalStore
	logger *slog.Logger

	// MaxDepth bounds the recursive walk to avoid pathological fan-out.
	MaxDepth int

	visited map[string]bool
}

// NewEngine creates a sync engine with the default depth bound.
func NewEngine(remote Remote, local LocalStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		remote:   remote,
		local:    local,
		logger:   logger,
		MaxDepth: cpm.DefaultMaxDepth,
	}
}

// Sync mirrors the remote tree rooted at remoteRoot into localRoot.
// Folders already processed in this run are never re-descended.
func (e *Engine) Sync(ctx context.Context, remoteRoot, localRoot string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.visited = make(map[string]bool)
	result := &Result{}

	e.syncFolder(ctx, pspath.Normalize(remoteRoot), localRoot, 0, result)

	e.logger.Info("sync completed",
		slog.Int("folders_created", result.FoldersCreated),
		slog.Int("files_downloaded", result.FilesDownloaded),
		slog.Int("skipped", result.Skipped),
		slog.Int("deleted", result.Deleted),
		slog.Int("branch_errors", result.Errors),
	)

	return result, nil
}

// syncFolder mirrors one folder, recurses into its subfolders, then runs the
// cleanup pass over the mirrored directory. A listing failure marks the
// branch as errored and returns — siblings keep going.
func (e *Engine) syncFolder(ctx context.Context, remotePath, localPath string, depth int, result *Result) {
	if e.visited[remotePath] {
		return
	}

	e.visited[remotePath] = true

	if ctx.Err() != nil {
		return
	}

	node, err := e.remote.ListFolder(ctx, remotePath, 1)
	if err != nil {
		e.logger.Warn("skipping branch",
			slog.String("path", remotePath),
			slog.String("error", err.Error()),
		)

		result.Errors++

		return
	}

	if !e.local.Exists(localPath) {
		result.FoldersCreated++
	}

	if err := e.local.EnsureDir(localPath); err != nil {
		e.logger.Warn("cannot create local directory",
			slog.String("path", localPath),
			slog.String("error", err.Error()),
		)

		result.Errors++

		return
	}

	// Remote child names, NFC-normalized: local filesystems (macOS) may
	// report decomposed names for the same entries.
	remoteNames := make(map[string]bool, len(node.Children))

	for _, child := range node.Children {
		remoteNames[norm.NFC.String(child.Name)] = true

		switch child.Kind {
		case cpm.KindFolder:
			if depth+1 < e.MaxDepth {
				e.syncFolder(ctx, child.Path, filepath.Join(localPath, child.Name), depth+1, result)
			}
		case cpm.KindPage:
			e.mirrorPage(ctx, child, filepath.Join(localPath, child.Name), result)
		}
	}

	e.cleanup(localPath, remoteNames, result)
}

// mirrorPage downloads a remote page that has no local counterpart yet.
// Existing local files are left alone — sync never overwrites local edits.
func (e *Engine) mirrorPage(ctx context.Context, page *cpm.TreeNode, localFile string, result *Result) {
	if e.local.Exists(localFile) {
		result.Skipped++

		return
	}

	text, err := e.remote.ReadContent(ctx, page.Path)
	if err != nil {
		e.logger.Warn("skipping page",
			slog.String("path", page.Path),
			slog.String("error", err.Error()),
		)

		result.Errors++

		return
	}

	if err := e.local.WriteFile(localFile, text); err != nil {
		e.logger.Warn("cannot write local file",
			slog.String("path", localFile),
			slog.String("error", err.Error()),
		)

		result.Errors++

		return
	}

	result.FilesDownloaded++

	e.logger.Debug("downloaded page", slog.String("path", page.Path))
}

// cleanup deletes local entries with no remote counterpart in the mirrored
// directory. Deletion failures are logged and counted, not fatal.
func (e *Engine) cleanup(localPath string, remoteNames map[string]bool, result *Result) {
	entries, err := e.local.ListDir(localPath)
	if err != nil {
		e.logger.Warn("cannot list local directory",
			slog.String("path", localPath),
			slog.String("error", err.Error()),
		)

		result.Errors++

		return
	}

	for _, entry := range entries {
		if remoteNames[norm.NFC.String(entry)] {
			continue
		}

		stale := filepath.Join(localPath, entry)

		if err := e.local.Delete(stale); err != nil {
			e.logger.Warn("cannot delete stale entry",
				slog.String("path", stale),
				slog.String("error", err.Error()),
			)

			result.Errors++

			continue
		}

		result.Deleted++

		e.logger.Debug("deleted stale entry", slog.String("path", stale))
	}
}
