// This file implements a file system watcher for the inbox directory.
// It uses OS-level file system events to detect dropped documents and
// enqueues them for processing after a short debounce.

package ingest

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/athulyan/docforge-go/internal/models"
)

// Enqueuer accepts files for asynchronous processing. Satisfied by
// *jobqueue.Queue.
type Enqueuer interface {
	Enqueue(filePath string, opts models.ProcessingOptions) string
}

// Watcher watches the inbox directory and enqueues every supported file
// that appears in it. Files are tracked per path and submitted once their
// debounce window elapses, so a file still being copied in is not picked
// up half-written.
type Watcher struct {
	inboxPath  string
	queue      Enqueuer
	opts       models.ProcessingOptions
	extensions map[string]bool

	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	pendingPaths  map[string]bool
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// NewWatcher creates an inbox watcher. extensions is the set of supported
// file extensions (with leading dot), typically from the pipeline registry.
func NewWatcher(inboxPath string, queue Enqueuer, opts models.ProcessingOptions, extensions []string) *Watcher {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}
	return &Watcher{
		inboxPath:     inboxPath,
		queue:         queue,
		opts:          opts,
		extensions:    extSet,
		pendingPaths:  make(map[string]bool),
		debounceDelay: 2 * time.Second,
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the inbox directory for new files.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	// Watch the inbox root and any subdirectories already present.
	err = filepath.WalkDir(w.inboxPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	log.Printf("Inbox watcher started for: %s", w.inboxPath)

	go w.processEvents()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Inbox watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Chmod events fire when folders are opened or files are read; they
	// never indicate a new document.
	if event.Op == fsnotify.Chmod {
		return
	}

	hasRelevantOp := (event.Op&fsnotify.Create == fsnotify.Create) ||
		(event.Op&fsnotify.Write == fsnotify.Write)
	if !hasRelevantOp {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	// New subdirectories join the watch list so files dropped inside them
	// are still picked up.
	if info.IsDir() {
		if event.Op&fsnotify.Create == fsnotify.Create {
			w.watcher.Add(event.Name)
		}
		return
	}

	if !w.isSupportedFile(event.Name) {
		return
	}

	w.mu.Lock()
	w.pendingPaths[event.Name] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flushPending)
	w.mu.Unlock()
}

func (w *Watcher) isSupportedFile(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// EnqueuePath manually submits a path through the same debounce window.
func (w *Watcher) EnqueuePath(path string) {
	w.mu.Lock()
	w.pendingPaths[path] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flushPending)
	w.mu.Unlock()
}

// flushPending enqueues every settled path exactly once.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if len(w.pendingPaths) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pendingPaths))
	for path := range w.pendingPaths {
		paths = append(paths, path)
	}
	w.pendingPaths = make(map[string]bool)
	w.mu.Unlock()

	log.Printf("Inbox watcher picked up %d file(s)", len(paths))

	for _, path := range paths {
		jobID := w.queue.Enqueue(path, w.opts)
		log.Printf("Enqueued %s as job %s", filepath.Base(path), jobID)
	}
}
