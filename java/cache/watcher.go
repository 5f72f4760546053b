package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// watcher polls loose class directories and drops cached results for class
// files that changed or disappeared.
type watcher struct {
	cache        *Cache
	pollInterval time.Duration
	modTimes     map[string]time.Time
	seeded       bool
}

func newWatcher(c *Cache, interval time.Duration) *watcher {
	return &watcher{
		cache:        c,
		pollInterval: interval,
		modTimes:     make(map[string]time.Time),
	}
}

func (w *watcher) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *watcher) scan() {
	changed := make(map[string]bool)
	current := make(map[string]bool)

	for _, root := range w.cache.looseDirs() {
		filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".class" {
				return nil
			}

			current[path] = true
			lastMod, known := w.modTimes[path]
			if !known || info.ModTime().After(lastMod) {
				w.modTimes[path] = info.ModTime()
				if w.seeded {
					w.evictFile(root, path)
					changed[root] = true
				}
			}
			return nil
		})
	}

	for path := range w.modTimes {
		if !current[path] {
			delete(w.modTimes, path)
			w.cache.checksums.Delete(path)
			for _, root := range w.cache.looseDirs() {
				if strings.HasPrefix(path, root+string(filepath.Separator)) {
					w.evictFile(root, path)
					changed[root] = true
				}
			}
		}
	}
	w.seeded = true

	for root := range changed {
		if err := w.cache.rescanContainer(root); err != nil {
			log.Warningf("rescan %s: %s", root, err)
		}
	}
}

// evictFile derives the class name from the path below root.
func (w *watcher) evictFile(root, path string) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return
	}
	fqcn := strings.ReplaceAll(strings.TrimSuffix(filepath.ToSlash(rel), ".class"), "/", ".")
	log.Debugf("%s changed, evicting %s", path, fqcn)
	w.cache.Evict(fqcn)
}
