package scanner

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhamidi/jreflect/classfile"
)

type Kind string

const (
	KindDirectory Kind = "directory"
	KindClass     Kind = "class"
	KindArchive   Kind = "archive"
)

// ErrRuntimeImage is returned by Open for JDK module images, which are not
// class containers.
var ErrRuntimeImage = errors.New("java runtime image")

// Entry is one class inside a container.
type Entry struct {
	// Name is the entry path inside the container with '/' separators.
	Name string
	// Origin is the file the class is re-read from: the .class file itself
	// for loose classes, the archive for archive entries.
	Origin string
	open   func() (io.ReadCloser, error)
}

func (e Entry) Open() (io.ReadCloser, error) { return e.open() }

// Container is a directory of loose classes, a single class file or an
// archive. It satisfies reflector.ClassSource.
type Container interface {
	Path() string
	Kind() Kind
	Entries() ([]Entry, error)
	// ReadClass parses one entry. Loose class containers ignore the name.
	ReadClass(entry string) (*classfile.ClassFile, error)
	Close() error
}

// IsRuntimeImage reports whether path names a JDK module image.
func IsRuntimeImage(path string) bool {
	base := filepath.Base(path)
	return base == "jrt-fs.jar" || base == "modules"
}

// Open classifies path by what is on disk.
func Open(path string) (Container, error) {
	if IsRuntimeImage(path) {
		return nil, fmt.Errorf("open %s: %w", path, ErrRuntimeImage)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}
	if info.IsDir() {
		return &dirContainer{root: path}, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".class":
		return &classContainer{path: path}, nil
	case ".jar", ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
		}
		return newArchiveContainer(path, zr), nil
	default:
		return nil, fmt.Errorf("unsupported container %s", path)
	}
}

func parseFrom(open func() (io.ReadCloser, error)) (*classfile.ClassFile, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return classfile.Parse(rc)
}

type dirContainer struct {
	root string
}

func (d *dirContainer) Path() string { return d.root }
func (d *dirContainer) Kind() Kind   { return KindDirectory }
func (d *dirContainer) Close() error { return nil }

func (d *dirContainer) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(d.root, func(p string, de os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || filepath.Ext(p) != ".class" {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		path := p
		entries = append(entries, Entry{
			Name:   filepath.ToSlash(rel),
			Origin: path,
			open:   func() (io.ReadCloser, error) { return os.Open(path) },
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.root, err)
	}
	return entries, nil
}

func (d *dirContainer) ReadClass(entry string) (*classfile.ClassFile, error) {
	return classfile.ParseFile(filepath.Join(d.root, filepath.FromSlash(entry)))
}

type classContainer struct {
	path string
}

func (c *classContainer) Path() string { return c.path }
func (c *classContainer) Kind() Kind   { return KindClass }
func (c *classContainer) Close() error { return nil }

func (c *classContainer) Entries() ([]Entry, error) {
	path := c.path
	return []Entry{{
		Name:   filepath.Base(path),
		Origin: path,
		open:   func() (io.ReadCloser, error) { return os.Open(path) },
	}}, nil
}

func (c *classContainer) ReadClass(string) (*classfile.ClassFile, error) {
	return classfile.ParseFile(c.path)
}

type archiveContainer struct {
	path  string
	zr    *zip.ReadCloser
	files map[string]*zip.File
}

func newArchiveContainer(path string, zr *zip.ReadCloser) *archiveContainer {
	a := &archiveContainer{path: path, zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[f.Name] = f
	}
	return a
}

func (a *archiveContainer) Path() string { return a.path }
func (a *archiveContainer) Kind() Kind   { return KindArchive }
func (a *archiveContainer) Close() error { return a.zr.Close() }

// Entries lists the archive's classes, leaving out multi-release variants
// under META-INF.
func (a *archiveContainer) Entries() ([]Entry, error) {
	var entries []Entry
	for _, f := range a.zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		entries = append(entries, Entry{Name: f.Name, Origin: a.path, open: f.Open})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (a *archiveContainer) ReadClass(entry string) (*classfile.ClassFile, error) {
	f, ok := a.files[entry]
	if !ok {
		return nil, fmt.Errorf("%s: no entry %s", a.path, entry)
	}
	return parseFrom(f.Open)
}
