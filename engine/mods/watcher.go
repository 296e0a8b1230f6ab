package mods

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last file event before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads mod files when they change on disk. Events are debounced so an editor's
// write-rename-chmod burst triggers a single reload.
type Watcher struct {
	files    Files
	debounce time.Duration
	onChange func(changed Files)
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// WatcherBuilderOption configures a Watcher.
type WatcherBuilderOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *zap.Logger) WatcherBuilderOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher watches the directories holding files. onChange receives a Files value in which only the
// paths that changed since the last call are set.
//
// Parameters:
//   - files: the mod files to watch
//   - onChange: called from the watcher goroutine after each debounced burst
//   - opts: builder options
//
// Returns:
//   - *Watcher: the watcher, not yet running
//   - error: if the underlying watcher cannot be created or a directory cannot be watched
func NewWatcher(files Files, onChange func(changed Files), opts ...WatcherBuilderOption) (*Watcher, error) {
	if onChange == nil {
		panic("mods: watcher change callback is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		files:    files,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   zap.NewNop(),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range files.Paths() {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debug("watching mod directory", zap.String("dir", dir))
	}
	return w, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(0)
	<-timer.C

	var pending Files
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.record(event, &pending) {
				continue
			}
			w.logger.Debug("mod file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("mod watcher error", zap.Error(err))

		case <-timer.C:
			changed := pending
			pending = Files{}
			w.logger.Info("reloading mod files", zap.Strings("paths", changed.Paths()))
			w.onChange(changed)

		case <-ctx.Done():
			w.logger.Info("stopping mod watcher")
			return nil
		}
	}
}

// record marks the file named by event as pending. It reports whether the event concerns a watched file.
func (w *Watcher) record(event fsnotify.Event, pending *Files) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	switch name {
	case filepath.Clean(w.files.LevelLights):
		pending.LevelLights = w.files.LevelLights
	case filepath.Clean(w.files.GeoLayouts):
		pending.GeoLayouts = w.files.GeoLayouts
	case filepath.Clean(w.files.Textures):
		pending.Textures = w.files.Textures
	default:
		return false
	}
	return true
}

// Reload re-reads the changed files. Layout and texture scopes are swapped in place; a new level table is
// returned only when the level lights file changed and could be read.
//
// Parameters:
//   - changed: the files to reload; empty paths are skipped
//
// Returns:
//   - *light.Levels: the reloaded level table, or nil
func (s *Store) Reload(changed Files) *light.Levels {
	if changed.GeoLayouts != "" {
		s.report(changed.GeoLayouts, s.LoadGeoLayouts(changed.GeoLayouts))
	}
	if changed.Textures != "" {
		s.report(changed.Textures, s.LoadTextureMods(changed.Textures))
	}
	if changed.LevelLights == "" {
		return nil
	}
	levels, err := LoadLevelLights(changed.LevelLights, s.logger)
	s.report(changed.LevelLights, err)
	return levels
}
