package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchCatalog reloads the declared capability set whenever the catalog
// file changes, until ctx is canceled. The watch is on the parent
// directory because editors replace files by rename, which drops a
// watch held on the file itself. A reload that fails (unparsable or
// invalid catalog) is logged and skipped; the previous catalog stays in
// effect.
func (e *Engine) WatchCatalog(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch catalog dir %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := e.LoadCatalog(target); err != nil {
					e.logger.Warn("catalog reload failed, keeping previous catalog",
						zap.String("path", target),
						zap.Error(err))
					continue
				}
				e.logger.Info("catalog reloaded", zap.String("path", target))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.logger.Warn("catalog watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
