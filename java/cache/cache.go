// Package cache keeps the global class index and the merged member lists of
// reflected classes, validating loose class files by content checksum and
// persisting results to a blob store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/java/reflector"
	"github.com/dhamidi/jreflect/java/scanner"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

var log = commonlog.GetLogger("jreflect.cache")

type Options struct {
	// JavaVersion namespaces every persisted key.
	JavaVersion string
	// Store persists indexes and member lists. Nil disables persistence.
	Store          BlobStore
	Filter         scanner.Filter
	Workers        int
	IncludePrivate bool

	MemberCacheSize int
	MemberCacheTTL  time.Duration
	// FlushDelay is the wait before the first checksum flush, FlushInterval
	// the period after that.
	FlushDelay    time.Duration
	FlushInterval time.Duration
	WatchInterval time.Duration
	WriteQueue    int
}

func (o Options) withDefaults() Options {
	if o.JavaVersion == "" {
		o.JavaVersion = "17"
	}
	if o.MemberCacheSize <= 0 {
		o.MemberCacheSize = 256
	}
	if o.MemberCacheTTL <= 0 {
		o.MemberCacheTTL = 30 * time.Minute
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = time.Second
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.WatchInterval <= 0 {
		o.WatchInterval = time.Second
	}
	if o.WriteQueue <= 0 {
		o.WriteQueue = 1024
	}
	return o
}

// Stats counts cache activity since New.
type Stats struct {
	// ContainerScans counts containers whose classes were parsed.
	ContainerScans int64
	// ManifestHits counts archives restored from a persisted manifest.
	ManifestHits int64
	// Reflections counts member lists computed from class files.
	Reflections int64
	MemoryHits  int64
	BlobHits    int64
	Writes      int64
	// Corrupt counts persisted blobs that failed to decode.
	Corrupt int64
}

type counters struct {
	containerScans atomic.Int64
	manifestHits   atomic.Int64
	reflections    atomic.Int64
	memoryHits     atomic.Int64
	blobHits       atomic.Int64
	writes         atomic.Int64
	corrupt        atomic.Int64
}

type memberEntry struct {
	members   []*reflector.MemberDescriptor
	checksums map[string]string
}

type Cache struct {
	opts      Options
	scanner   *scanner.Scanner
	reflector *reflector.Reflector

	mu         sync.RWMutex
	containers []string
	byPath     map[string]map[string]*reflector.ClassIndex
	index      map[string]*reflector.ClassIndex
	// archiveSums holds the checksum of each persisted archive as of its
	// last index.
	archiveSums map[string]string

	members   *expirable.LRU[string, *memberEntry]
	checksums *checksumTable
	writer    *asyncWriter
	stats     counters

	stopCh    chan struct{}
	wg        sync.WaitGroup
	watcher   *watcher
	closeOnce sync.Once
}

func New(opts Options) *Cache {
	opts = opts.withDefaults()
	c := &Cache{
		opts:        opts,
		scanner:     scanner.New(opts.Filter, opts.Workers),
		byPath:      make(map[string]map[string]*reflector.ClassIndex),
		index:       make(map[string]*reflector.ClassIndex),
		archiveSums: make(map[string]string),
		members:     expirable.NewLRU[string, *memberEntry](opts.MemberCacheSize, nil, opts.MemberCacheTTL),
		stopCh:      make(chan struct{}),
	}
	c.reflector = reflector.New(func(origin string) (reflector.ClassSource, error) {
		return scanner.Open(origin)
	}, reflector.Options{IncludePrivate: opts.IncludePrivate})

	var sums map[string]string
	if opts.Store != nil {
		c.writer = newAsyncWriter(opts.Store, opts.WriteQueue, &c.stats.writes)
		c.load(c.checksumKey(), &sums)
	}
	c.checksums = newChecksumTable(sums)

	if opts.Store != nil {
		c.wg.Add(1)
		go c.flushLoop()
	}
	return c
}

func (c *Cache) Stats() Stats {
	return Stats{
		ContainerScans: c.stats.containerScans.Load(),
		ManifestHits:   c.stats.manifestHits.Load(),
		Reflections:    c.stats.reflections.Load(),
		MemoryHits:     c.stats.memoryHits.Load(),
		BlobHits:       c.stats.blobHits.Load(),
		Writes:         c.stats.writes.Load(),
		Corrupt:        c.stats.corrupt.Load(),
	}
}

// load reads and decodes key. Missing and corrupt blobs both report false.
func (c *Cache) load(key string, v interface{}) bool {
	if c.opts.Store == nil {
		return false
	}
	blob, err := c.opts.Store.Get(context.Background(), key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warningf("cache read %s: %s", key, err)
		}
		return false
	}
	if err := decodeBlob(blob, v); err != nil {
		c.stats.corrupt.Add(1)
		log.Warningf("cache read %s: %s", key, err)
		return false
	}
	return true
}

func (c *Cache) persist(key string, v interface{}) {
	if c.writer != nil {
		c.writer.Put(key, v)
	}
}

func (c *Cache) drop(key string) {
	if c.writer != nil {
		c.writer.Delete(key)
	}
}

func (c *Cache) flushLoop() {
	defer c.wg.Done()
	timer := time.NewTimer(c.opts.FlushDelay)
	defer timer.Stop()
	select {
	case <-c.stopCh:
		return
	case <-timer.C:
		c.flushChecksums()
	}

	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.flushChecksums()
		}
	}
}

func (c *Cache) flushChecksums() {
	if sums := c.checksums.TakeDirty(); sums != nil {
		c.persist(c.checksumKey(), sums)
	}
}

// Close stops background work, flushes the checksum table and drains the
// write queue.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
		if c.writer != nil {
			c.flushChecksums()
			c.writer.Close()
		}
		c.scanner.Close()
	})
}

func isArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip":
		return true
	}
	return false
}

// isSnapshot reports whether path is a development build whose contents may
// change without a version bump.
func isSnapshot(path string) bool {
	return strings.Contains(filepath.Base(path), "SNAPSHOT")
}

func isLoose(origin string) bool {
	return strings.HasSuffix(origin, ".class")
}

// AddContainer appends path to the class path and indexes it. Classes
// already indexed from earlier containers keep precedence.
func (c *Cache) AddContainer(path string) error {
	classes, err := c.indexContainer(path, true)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byPath[path]; !ok {
		c.containers = append(c.containers, path)
	}
	c.byPath[path] = classes
	c.publishLocked()
	return nil
}

// Rescan re-indexes every container. With full set, archive manifests are
// ignored and every container is parsed again. On failure the current
// index is kept and the first error returned.
func (c *Cache) Rescan(full bool) error {
	c.mu.RLock()
	paths := append([]string(nil), c.containers...)
	c.mu.RUnlock()

	fresh := make(map[string]map[string]*reflector.ClassIndex, len(paths))
	for _, p := range paths {
		classes, err := c.indexContainer(p, !full)
		if err != nil {
			return err
		}
		fresh[p] = classes
	}
	if full {
		c.members.Purge()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for p, classes := range fresh {
		c.byPath[p] = classes
	}
	c.publishLocked()
	return nil
}

// rescanContainer refreshes a single container in place.
func (c *Cache) rescanContainer(path string) error {
	classes, err := c.indexContainer(path, true)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byPath[path]; !ok {
		return nil
	}
	c.byPath[path] = classes
	c.publishLocked()
	return nil
}

// publishLocked builds a new index table in class-path order and swaps it
// in. Tables are never mutated after publication.
func (c *Cache) publishLocked() {
	table := make(map[string]*reflector.ClassIndex, len(c.index))
	for _, p := range c.containers {
		for name, ci := range c.byPath[p] {
			if _, ok := table[name]; !ok {
				table[name] = ci
			}
		}
	}
	c.index = table
}

func (c *Cache) table() reflector.MapTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

func (c *Cache) indexContainer(path string, useManifest bool) (map[string]*reflector.ClassIndex, error) {
	if scanner.IsRuntimeImage(path) {
		log.Debugf("skipping runtime image %s", path)
		return map[string]*reflector.ClassIndex{}, nil
	}
	if !isArchive(path) {
		return c.scanContainer(path)
	}

	persist := c.opts.Store != nil && !isSnapshot(path)
	var sum string
	if persist {
		var err error
		if sum, err = fileChecksum(path); err != nil {
			return nil, fmt.Errorf("failed to open container: %w", err)
		}
		c.mu.Lock()
		c.archiveSums[path] = sum
		c.mu.Unlock()
		if useManifest {
			if classes, ok := c.restoreArchive(path, sum); ok {
				c.stats.manifestHits.Add(1)
				return classes, nil
			}
		}
	}

	classes, err := c.scanContainer(path)
	if err != nil {
		return nil, err
	}
	if persist {
		m := archiveManifest{Path: path, Checksum: sum}
		for name, ci := range classes {
			m.Classes = append(m.Classes, name)
			c.persist(c.indexKey(name), ci)
		}
		c.persist(c.archiveKey(path), &m)
	}
	return classes, nil
}

func (c *Cache) scanContainer(path string) (map[string]*reflector.ClassIndex, error) {
	ctr, err := scanner.Open(path)
	if err != nil {
		return nil, err
	}
	defer ctr.Close()
	classes, err := c.scanner.Scan(ctr)
	if err != nil {
		return nil, err
	}
	c.stats.containerScans.Add(1)
	return classes, nil
}

func (c *Cache) restoreArchive(path, sum string) (map[string]*reflector.ClassIndex, bool) {
	var m archiveManifest
	if !c.load(c.archiveKey(path), &m) || m.Path != path || m.Checksum != sum {
		return nil, false
	}
	classes := make(map[string]*reflector.ClassIndex, len(m.Classes))
	for _, name := range m.Classes {
		var ci reflector.ClassIndex
		if !c.load(c.indexKey(name), &ci) || ci.Origin != path {
			return nil, false
		}
		classes[name] = &ci
	}
	return classes, true
}

// Lookup finds a class by bare name or member-class spelling.
func (c *Cache) Lookup(name string) (*reflector.ClassIndex, bool) {
	return reflector.Find(c.table(), name)
}

func (c *Cache) ContainsFQCN(fqcn string) bool {
	_, ok := c.table()[typeinfo.Bare(fqcn)]
	return ok
}

// ClassFile re-reads the class file behind fqcn.
func (c *Cache) ClassFile(fqcn string) (*classfile.ClassFile, bool, error) {
	ci, ok := c.Lookup(fqcn)
	if !ok {
		return nil, false, nil
	}
	cf, err := c.reflector.ClassFile(ci)
	if err != nil {
		return nil, true, err
	}
	return cf, true, nil
}

// Reflect returns the merged members of name. Type arguments in name, as in
// "java.util.List<java.lang.String>", are bound positionally to the class's
// type parameters. The result is a private copy the caller may modify.
func (c *Cache) Reflect(name string) []*reflector.MemberDescriptor {
	ci, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	base := c.baseMembers(ci)

	args := typeinfo.TypeArguments(name)
	out := make([]*reflector.MemberDescriptor, len(base))
	if len(args) == 0 {
		for i, m := range base {
			out[i] = m.Clone()
		}
		return out
	}

	bindings := typeinfo.Bindings(ci.TypeParameters, args)
	label := ci.Name + "<" + strings.Join(args, ", ") + ">"
	for i, m := range base {
		cl := m.Clone()
		cl.Bind(bindings)
		if typeinfo.Bare(cl.DeclaringClass) == ci.Name {
			cl.DeclaringClass = label
		}
		out[i] = cl
	}
	return out
}

func (c *Cache) baseMembers(ci *reflector.ClassIndex) []*reflector.MemberDescriptor {
	info := reflector.Resolve(c.table(), ci.Name)
	sums, known := c.chainChecksums(info)

	if e, ok := c.members.Get(ci.Name); ok && sameChecksums(e.checksums, sums) {
		c.stats.memoryHits.Add(1)
		return e.members
	}

	persist := c.opts.Store != nil && !hasSnapshot(info)
	if persist && known {
		var rec memberRecord
		if c.load(c.memberKey(ci.Name), &rec) && rec.Name == ci.Name && sameChecksums(rec.Checksums, sums) {
			c.stats.blobHits.Add(1)
			c.members.Add(ci.Name, &memberEntry{members: rec.Members, checksums: sums})
			return rec.Members
		}
	}

	members := c.reflector.ReflectAll(info)
	c.stats.reflections.Add(1)
	c.members.Add(ci.Name, &memberEntry{members: members, checksums: sums})
	if persist {
		c.persist(c.memberKey(ci.Name), &memberRecord{Name: ci.Name, Members: members, Checksums: sums})
	}
	return members
}

// chainChecksums collects the content hashes of every origin in the chain.
// Loose class files are hashed again and recorded in the checksum table;
// archives use the hash taken when they were indexed. known reports whether
// the table already held the current hash of every loose file, which is
// required before a persisted member list is trusted.
func (c *Cache) chainChecksums(info *reflector.InheritanceInfo) (sums map[string]string, known bool) {
	sums = make(map[string]string)
	known = true
	for _, origin := range info.FileOrder {
		if !isLoose(origin) {
			c.mu.RLock()
			sum, ok := c.archiveSums[origin]
			c.mu.RUnlock()
			if ok {
				sums[origin] = sum
			}
			continue
		}
		sum, err := fileChecksum(origin)
		if err != nil {
			log.Debugf("checksum %s: %s", origin, err)
			sum = ""
		}
		sums[origin] = sum
		if prev, ok := c.checksums.Get(origin); !ok || prev != sum || sum == "" {
			known = false
		}
		if c.checksums.Set(origin, sum) {
			log.Debugf("%s changed", origin)
		}
	}
	return sums, known
}

func sameChecksums(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func dependsOnLoose(sums map[string]string) bool {
	for origin := range sums {
		if isLoose(origin) {
			return true
		}
	}
	return false
}

func hasSnapshot(info *reflector.InheritanceInfo) bool {
	for _, origin := range info.FileOrder {
		if isSnapshot(origin) {
			return true
		}
	}
	return false
}

// Evict forgets the cached member list of fqcn, in memory and on disk.
func (c *Cache) Evict(fqcn string) {
	name := typeinfo.Bare(fqcn)
	if ci, ok := c.Lookup(name); ok {
		name = ci.Name
	}
	c.members.Remove(name)
	c.drop(c.memberKey(name))
}

// ResetLoose drops every cached result that depends on loose class files
// and re-indexes the loose containers.
func (c *Cache) ResetLoose() error {
	for _, key := range c.members.Keys() {
		e, ok := c.members.Peek(key)
		if !ok || !dependsOnLoose(e.checksums) {
			continue
		}
		c.members.Remove(key)
		c.drop(c.memberKey(key))
		for origin := range e.checksums {
			if isLoose(origin) {
				c.checksums.Delete(origin)
			}
		}
	}

	c.mu.RLock()
	var loose []string
	for _, p := range c.containers {
		if !isArchive(p) {
			loose = append(loose, p)
		}
	}
	c.mu.RUnlock()
	for _, p := range loose {
		if err := c.rescanContainer(p); err != nil {
			return err
		}
	}
	return nil
}

// Containers lists the class path in order.
func (c *Cache) Containers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.containers...)
}

func (c *Cache) Len() int {
	return len(c.table())
}

// Watch starts polling loose directories for changed class files. Close
// stops it.
func (c *Cache) Watch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return
	}
	w := newWatcher(c, c.opts.WatchInterval)
	c.watcher = w
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		w.run(c.stopCh)
	}()
}

func (c *Cache) looseDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var dirs []string
	for _, p := range c.containers {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
