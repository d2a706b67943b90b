// Package watch triggers library rescans when the music folder changes
// on disk. Bursts of filesystem events (an unzip, a beatmap download)
// are debounced into a single rescan.
package watch

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the folder must stay quiet before a
// rescan fires.
const defaultDebounce = 2 * time.Second

// Watcher observes the library root with fsnotify. A failure to start
// is non-fatal for the caller: the application degrades to manual
// rescans only.
type Watcher struct {
	logger   *slog.Logger
	root     string
	debounce time.Duration
	rescan   func()

	watcher *fsnotify.Watcher
	quit    chan struct{}
	done    chan struct{}
}

// New creates a watcher for root. rescan is invoked after each
// debounced burst of changes.
func New(logger *slog.Logger, root string, rescan func()) *Watcher {
	return &Watcher{
		logger:   logger,
		root:     root,
		debounce: defaultDebounce,
		rescan:   rescan,
	}
}

// Start begins watching. The returned error means the watch could not
// be established; the watcher is inert in that case.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return err
	}

	w.watcher = fw
	w.quit = make(chan struct{})
	w.done = make(chan struct{})

	go w.loop()

	w.logger.Info("watching library root", slog.String("root", w.root))
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
// Closing a watcher that never started is a no-op.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	close(w.quit)
	<-w.done
	return w.watcher.Close()
}

// loop consumes filesystem events and fires the debounced rescan.
func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.quit:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Writes inside files do not change the folder layout.
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("library change", slog.String("name", event.Name), slog.Any("op", event.Op))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))

		case <-timer.C:
			w.rescan()
		}
	}
}
