package connection

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/connauth/pkg/logging"
)

const (
	// DefaultDebounceInterval is the quiet period after the last change
	// before the file is reloaded.
	DefaultDebounceInterval = 250 * time.Millisecond

	// DefaultPollInterval is used when fsnotify is unavailable.
	DefaultPollInterval = 5 * time.Second
)

// ReloadRecorder receives reload outcomes ("success" or "error").
type ReloadRecorder interface {
	RecordReload(status string)
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Debounce defaults to DefaultDebounceInterval.
	Debounce time.Duration
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// OnChange is called with the new snapshot after every successful
	// reload, typically to clear the token cache.
	OnChange func(*Snapshot)
	// Metrics is optional.
	Metrics ReloadRecorder
}

// Watcher keeps the current snapshot of a connections file and swaps it
// when the file changes. Readers always see a complete snapshot; a reload
// that fails keeps the previous one.
type Watcher struct {
	mu sync.Mutex

	source  *FileSource
	config  WatcherConfig
	current atomic.Pointer[Snapshot]

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTime time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher loads the file once and returns a watcher serving it. Call
// Start to follow changes.
func NewWatcher(ctx context.Context, source *FileSource, config WatcherConfig) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	snapshot, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	w := &Watcher{source: source, config: config}
	w.current.Store(snapshot)
	if info, err := os.Stat(source.Path); err == nil {
		w.lastModTime = info.ModTime()
	}
	return w, nil
}

// Snapshot returns the current snapshot.
func (w *Watcher) Snapshot() *Snapshot {
	return w.current.Load()
}

// Start begins watching the file's directory. Editors often replace files
// by rename, so the directory is watched rather than the file itself.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.stopCh = make(chan struct{})
	w.running = true

	dir := filepath.Dir(w.source.Path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Connection", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		logging.Warn("Connection", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges(w.stopCh)
		return nil
	}

	w.fsWatcher = watcher
	go w.processEvents(w.stopCh, watcher.Events, watcher.Errors)

	logging.Info("Connection", "Watching %s for changes", w.source.Path)
	return nil
}

// Stop ends watching. The current snapshot stays available.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()
}

func (w *Watcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	target := filepath.Base(w.source.Path)
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("Connection", "Connections file changed: %s (%s)", event.Name, event.Op)
			w.triggerReloadDebounced()

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Connection", err, "fsnotify error")
		}
	}
}

func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			info, err := os.Stat(w.source.Path)
			if err != nil {
				continue
			}
			w.mu.Lock()
			changed := info.ModTime().After(w.lastModTime)
			if changed {
				w.lastModTime = info.ModTime()
			}
			w.mu.Unlock()
			if changed {
				w.triggerReloadDebounced()
			}
		}
	}
}

func (w *Watcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if running {
			_ = w.Reload(context.Background())
		}
	})
}

// Reload reads the file now. On success the snapshot is swapped and
// OnChange runs; on failure the previous snapshot is kept.
func (w *Watcher) Reload(ctx context.Context) error {
	snapshot, err := w.source.Load(ctx)
	if err != nil {
		logging.Error("Connection", err, "Reload of %s failed, keeping previous connections", w.source.Path)
		w.record("error")
		return err
	}

	w.current.Store(snapshot)
	w.record("success")
	logging.Info("Connection", "Reloaded %d connections from %s", snapshot.Len(), w.source.Path)

	if w.config.OnChange != nil {
		w.config.OnChange(snapshot)
	}
	return nil
}

func (w *Watcher) record(status string) {
	if w.config.Metrics != nil {
		w.config.Metrics.RecordReload(status)
	}
}
