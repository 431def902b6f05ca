package accesscontrol

import (
	"log"
	"path/filepath"
	"time"

	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/fsnotify/fsnotify"
)

// ruleWatcher observes the rule document for external changes and reloads
// the owning policy instance. The document is read-only from our side; all
// updates come from operators or orchestration tooling. Reloads are
// debounced so editors that write in multiple steps trigger one reload,
// and a failed reload keeps the last known good snapshot active.
type ruleWatcher struct {
	ac       *FileBasedAccessControl
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// newRuleWatcher starts watching the directory containing the rule
// document. Watching the directory rather than the file survives the
// rename-and-replace pattern atomic file updates use.
func newRuleWatcher(ac *FileBasedAccessControl, path string, debounce time.Duration) (*ruleWatcher, error) {
	if debounce <= 0 {
		debounce = time.Second
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &ConfigError{Message: "failed to create rule file watcher", Err: err}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, &ConfigError{Message: "failed to resolve rule file path", Err: err}
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, &ConfigError{Message: "failed to watch rule file directory", Err: err}
	}

	w := &ruleWatcher{
		ac:       ac,
		path:     absPath,
		debounce: debounce,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *ruleWatcher) run() {
	var pending *time.Timer
	var reload <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isRuleFileEvent(event) {
				continue
			}
			// Reset the debounce window on every relevant event
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				reload = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(w.debounce)
			}

		case <-reload:
			pending = nil
			reload = nil
			if err := w.ac.Reload(); err != nil {
				// Keep serving the previous snapshot
				log.Printf("rule reload failed, keeping previous rules: %v", err)
				metrics.RecordReload(false)
				continue
			}
			log.Printf("rules reloaded from %s", w.path)
			metrics.RecordReload(true)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("rule file watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// isRuleFileEvent reports whether the event concerns the rule document
func (w *ruleWatcher) isRuleFileEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Close stops the watcher goroutine and releases the fsnotify watcher
func (w *ruleWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
