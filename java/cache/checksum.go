package cache

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"sync"
)

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// checksumTable maps file paths to the content hash last seen for them.
type checksumTable struct {
	mu    sync.Mutex
	sums  map[string]string
	dirty bool
}

func newChecksumTable(initial map[string]string) *checksumTable {
	if initial == nil {
		initial = make(map[string]string)
	}
	return &checksumTable{sums: initial}
}

func (t *checksumTable) Get(path string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sum, ok := t.sums[path]
	return sum, ok
}

// Set records sum for path and reports whether it differs from the previous
// value.
func (t *checksumTable) Set(path, sum string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sums[path] == sum {
		return false
	}
	t.sums[path] = sum
	t.dirty = true
	return true
}

func (t *checksumTable) Delete(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sums[path]; ok {
		delete(t.sums, path)
		t.dirty = true
	}
}

// TakeDirty returns a copy of the table and clears the dirty flag, or nil
// when nothing changed since the last call.
func (t *checksumTable) TakeDirty() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	t.dirty = false
	out := make(map[string]string, len(t.sums))
	for k, v := range t.sums {
		out[k] = v
	}
	return out
}

func (t *checksumTable) MarkDirty() {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
}

func (t *checksumTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sums)
}
