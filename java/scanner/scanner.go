// Package scanner opens class containers and builds class indexes from them
// in parallel.
package scanner

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/jreflect/java/reflector"
)

var log = commonlog.GetLogger("jreflect.scanner")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Request struct {
	ID        string
	Paths     []string
	CreatedAt time.Time
}

type Result struct {
	ID        string
	Status    Status
	Request   Request
	Classes   map[string]*reflector.ClassIndex
	Error     string
	Errors    []string
	StartedAt time.Time
	EndedAt   time.Time
	Progress  int
	Total     int
}

func (s *Result) ProgressPercent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Progress * 100) / s.Total
}

// Scanner indexes containers synchronously through Scan and ScanAll, or in
// the background through Submit.
type Scanner struct {
	Filter  Filter
	Workers int

	mu        sync.RWMutex
	scans     map[string]*Result
	requests  chan Request
	nextID    int
	closeOnce sync.Once
}

func New(filter Filter, workers int) *Scanner {
	s := &Scanner{
		Filter:   filter,
		Workers:  workers,
		scans:    make(map[string]*Result),
		requests: make(chan Request, 100),
	}
	go s.run()
	return s
}

// Close stops the background worker. Submit must not be called afterwards.
func (s *Scanner) Close() {
	s.closeOnce.Do(func() { close(s.requests) })
}

func (s *Scanner) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s *Scanner) run() {
	for req := range s.requests {
		s.processScan(req)
	}
}

func (s *Scanner) processScan(req Request) {
	s.mu.Lock()
	result := s.scans[req.ID]
	result.Status = StatusInProgress
	result.StartedAt = time.Now()
	result.Total = len(req.Paths)
	s.mu.Unlock()

	classes, errs := s.scanPaths(req.Paths, func() {
		s.mu.Lock()
		result.Progress++
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	result.EndedAt = time.Now()
	result.Classes = classes
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}
	if len(result.Errors) > 0 && len(classes) == 0 {
		result.Status = StatusFailed
		result.Error = result.Errors[0]
	} else {
		result.Status = StatusCompleted
	}
}

// Scan indexes every accepted class of c. Entries that fail to parse are
// logged and skipped; only a failure to list the container is returned.
func (s *Scanner) Scan(c Container) (map[string]*reflector.ClassIndex, error) {
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	fromArchive := c.Kind() == KindArchive

	var mu sync.Mutex
	out := make(map[string]*reflector.ClassIndex, len(entries))
	var g errgroup.Group
	g.SetLimit(s.workers())
	for _, e := range entries {
		if !s.Filter.AcceptEntry(e.Name) {
			continue
		}
		g.Go(func() error {
			ci, err := indexEntry(e, fromArchive)
			if err != nil {
				log.Warningf("%s: skipping %s: %s", c.Path(), e.Name, err)
				return nil
			}
			if ci == nil || !s.Filter.AcceptClass(ci.Name) {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			// entries are processed out of order; keep the smallest entry
			// name so duplicates resolve the same way every run
			if prev, dup := out[ci.Name]; dup && prev.Entry < ci.Entry {
				return nil
			}
			out[ci.Name] = ci
			return nil
		})
	}
	_ = g.Wait()
	log.Debugf("%s: indexed %d classes", c.Path(), len(out))
	return out, nil
}

func indexEntry(e Entry, fromArchive bool) (*reflector.ClassIndex, error) {
	cf, err := parseFrom(e.Open)
	if err != nil {
		return nil, err
	}
	ci, ok, err := reflector.IndexClass(cf, fromArchive)
	if err != nil || !ok {
		return nil, err
	}
	ci.Origin = e.Origin
	ci.Entry = e.Name
	return ci, nil
}

// ScanAll indexes every path in parallel. When the same class appears in
// more than one container the earlier path wins. The first container
// failure is returned together with the classes of every other container.
func (s *Scanner) ScanAll(paths []string) (map[string]*reflector.ClassIndex, error) {
	classes, errs := s.scanPaths(paths, nil)
	if len(errs) > 0 {
		return classes, errs[0]
	}
	return classes, nil
}

func (s *Scanner) scanPaths(paths []string, onDone func()) (map[string]*reflector.ClassIndex, []error) {
	results := make([]map[string]*reflector.ClassIndex, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(s.workers())
	for i, p := range paths {
		g.Go(func() error {
			if onDone != nil {
				defer onDone()
			}
			if IsRuntimeImage(p) {
				log.Debugf("skipping runtime image %s", p)
				return nil
			}
			c, err := Open(p)
			if err != nil {
				errs[i] = err
				return nil
			}
			defer c.Close()
			if results[i], err = s.Scan(c); err != nil {
				errs[i] = fmt.Errorf("failed to scan %s: %w", p, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string]*reflector.ClassIndex)
	for _, m := range results {
		for name, ci := range m {
			if _, ok := merged[name]; !ok {
				merged[name] = ci
			}
		}
	}
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return merged, failed
}

func (s *Scanner) Submit(req Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	req.ID = fmt.Sprintf("%d", s.nextID)
	req.CreatedAt = time.Now()

	s.scans[req.ID] = &Result{
		ID:      req.ID,
		Status:  StatusPending,
		Request: req,
	}

	s.requests <- req
	return req.ID
}

func (s *Scanner) Get(id string) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.scans[id]
	if !ok {
		return nil, false
	}
	snapshot := *result
	return &snapshot, true
}

func (s *Scanner) List() []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*Result, 0, len(s.scans))
	for _, r := range s.scans {
		snapshot := *r
		results = append(results, &snapshot)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Request.CreatedAt.Before(results[j].Request.CreatedAt) })
	return results
}

// AllClasses returns the classes of every completed background scan sorted
// by name.
func (s *Scanner) AllClasses() []*reflector.ClassIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*reflector.ClassIndex
	for _, scan := range s.scans {
		if scan.Status == StatusCompleted {
			for _, ci := range scan.Classes {
				all = append(all, ci)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

func (s *Scanner) FindClass(name string) *reflector.ClassIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, scan := range s.scans {
		if scan.Status == StatusCompleted {
			if ci, ok := scan.Classes[name]; ok {
				return ci
			}
		}
	}
	return nil
}
