package config

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// fingerprint identifies one version of a source file. Size is kept next to
// the mtime because editors that save twice within the mtime resolution would
// otherwise go unnoticed.
type fingerprint struct {
	mtime time.Time
	size  int64
}

// SourceWatcher polls the tuning sources and calls onChange once per poll
// with every file that changed since the previous poll.
type SourceWatcher struct {
	paths    []string
	interval time.Duration
	onChange func(changed []string)

	stopCh   chan struct{}
	stopOnce sync.Once
	seen     map[string]fingerprint
}

func NewSourceWatcher(paths []string, interval time.Duration, onChange func(changed []string)) *SourceWatcher {
	return &SourceWatcher{
		paths:    paths,
		interval: interval,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		seen:     make(map[string]fingerprint),
	}
}

// Start records the current state of every source and polls in a goroutine.
func (w *SourceWatcher) Start() {
	w.poll()
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if changed := w.poll(); len(changed) > 0 && w.onChange != nil {
					slog.Info("tuning sources changed", "paths", changed)
					w.onChange(changed)
				}
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop ends polling. Calling it again is a no-op.
func (w *SourceWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// poll updates the recorded fingerprints and returns the paths that differ.
// A missing file is forgotten, so it counts as changed when it comes back.
func (w *SourceWatcher) poll() []string {
	var changed []string
	for _, p := range w.paths {
		fi, err := os.Stat(p)
		if err != nil {
			delete(w.seen, p)
			continue
		}
		fp := fingerprint{mtime: fi.ModTime(), size: fi.Size()}
		last, ok := w.seen[p]
		w.seen[p] = fp
		if ok && last.mtime.Equal(fp.mtime) && last.size == fp.size {
			continue
		}
		changed = append(changed, p)
	}
	return changed
}
