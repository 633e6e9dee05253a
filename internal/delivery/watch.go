package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"floreria/pkg/logger"
	"floreria/pkg/metrics"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 500 * time.Millisecond

// CatalogWatcher reloads a catalog file into an Engine whenever the file
// changes. A file that fails to load or validate is ignored and the engine
// keeps serving the previous catalog.
type CatalogWatcher struct {
	engine   *Engine
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logger.Logger

	// OnReload, when set, is called after every reload attempt with its
	// outcome.
	OnReload func(err error)
}

// NewCatalogWatcher watches the directory holding path, so editors that
// save through a rename are still picked up.
func NewCatalogWatcher(engine *Engine, path string, log *logger.Logger) (*CatalogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &CatalogWatcher{
		engine:   engine,
		path:     abs,
		watcher:  watcher,
		debounce: defaultReloadDebounce,
		logger:   log.WithField("catalog_file", abs),
	}, nil
}

// Run blocks until ctx is done, then closes the underlying watcher.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Catalog watcher error")

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *CatalogWatcher) reload() {
	catalog, err := LoadCatalogFile(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Catalog reload rejected, keeping previous catalog")
	} else {
		w.engine.SetCatalog(catalog)
		w.logger.WithFields(map[string]interface{}{
			"zones":    len(catalog.Zones()),
			"communes": len(catalog.Communes()),
		}).Info("Delivery catalog reloaded")
	}
	metrics.RecordCatalogReload(err)

	if w.OnReload != nil {
		w.OnReload(err)
	}
}
