package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/classfile/classfiletest"
	"github.com/dhamidi/jreflect/java/reflector"
)

func object() *classfiletest.Class {
	return classfiletest.NewClass("java/lang/Object").Super("").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "<init>", Descriptor: "()V", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "toString", Descriptor: "()Ljava/lang/String;", Code: true})
}

func box() *classfiletest.Class {
	return classfiletest.NewClass("demo/Box").
		Signature("<T:Ljava/lang/Object;>Ljava/lang/Object;").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "get", Descriptor: "()Ljava/lang/Object;", Signature: "()TT;", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "set", Descriptor: "(Ljava/lang/Object;)V", Signature: "(TT;)V", ParamNames: []string{"value"}, Code: true})
}

func method(name string) classfiletest.Method {
	return classfiletest.Method{Flags: classfile.AccPublic, Name: name, Descriptor: "()V", Code: true}
}

func writeJar(t *testing.T, path string, classes ...*classfiletest.Class) string {
	t.Helper()
	require.NoError(t, classfiletest.WriteJar(path, classes...))
	return path
}

func writeDir(t *testing.T, root string, classes ...*classfiletest.Class) string {
	t.Helper()
	for _, c := range classes {
		_, err := c.WriteTo(root)
		require.NoError(t, err)
	}
	return root
}

func names(members []*reflector.MemberDescriptor) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

func find(members []*reflector.MemberDescriptor, name string) *reflector.MemberDescriptor {
	for _, m := range members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func newTestCache(t *testing.T, store BlobStore) *Cache {
	t.Helper()
	c := New(Options{Store: store, FlushDelay: 10 * time.Millisecond, FlushInterval: 10 * time.Millisecond})
	t.Cleanup(c.Close)
	return c
}

func TestCacheLookup(t *testing.T) {
	dir := t.TempDir()
	jar := writeJar(t, filepath.Join(dir, "rt.jar"), object())
	classes := writeDir(t, filepath.Join(dir, "classes"), box(),
		classfiletest.NewClass("demo/Outer"),
		classfiletest.NewClass("demo/Outer$Inner"),
	)

	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(jar))
	require.NoError(t, c.AddContainer(classes))
	assert.Equal(t, []string{jar, classes}, c.Containers())
	assert.Equal(t, 4, c.Len())

	ci, ok := c.Lookup("demo.Box<java.lang.String>")
	require.True(t, ok)
	assert.Equal(t, "demo.Box", ci.Name)
	assert.Equal(t, []string{"T"}, ci.TypeParameters)

	ci, ok = c.Lookup("demo.Outer.Inner")
	require.True(t, ok)
	assert.Equal(t, "demo.Outer$Inner", ci.Name)

	assert.True(t, c.ContainsFQCN("demo.Box"))
	assert.False(t, c.ContainsFQCN("demo.Missing"))

	cf, ok, err := c.ClassFile("demo.Box")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "demo/Box", cf.ClassName())

	_, ok, err = c.ClassFile("demo.Missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.Nil(t, c.Reflect("demo.Missing"))
}

func TestCacheClassPathPrecedence(t *testing.T) {
	dir := t.TempDir()
	first := writeDir(t, filepath.Join(dir, "first"), object(),
		classfiletest.NewClass("demo/Dup").Method(method("fromFirst")))
	second := writeDir(t, filepath.Join(dir, "second"),
		classfiletest.NewClass("demo/Dup").Method(method("fromSecond")))

	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(first))
	require.NoError(t, c.AddContainer(second))

	members := c.Reflect("demo.Dup")
	assert.NotNil(t, find(members, "fromFirst"))
	assert.Nil(t, find(members, "fromSecond"))
}

func TestCacheAddContainerError(t *testing.T) {
	c := newTestCache(t, nil)
	dir := t.TempDir()
	require.NoError(t, c.AddContainer(writeDir(t, dir, object())))

	assert.Error(t, c.AddContainer(filepath.Join(dir, "missing.jar")))
	assert.Equal(t, []string{dir}, c.Containers())
	assert.True(t, c.ContainsFQCN("java.lang.Object"))
}

func TestCacheReflectParameterized(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(writeJar(t, filepath.Join(dir, "rt.jar"), object(), box())))

	members := c.Reflect("demo.Box<java.lang.String>")
	assert.Equal(t, []string{"get", "set", "toString"}, names(members))

	get := find(members, "get")
	assert.Equal(t, "java.lang.String", get.ReturnTypeString())
	assert.Equal(t, "demo.Box<java.lang.String>", get.DeclaringClass)
	assert.Equal(t, "public void set(java.lang.String value)", find(members, "set").Declaration())
	assert.Equal(t, "java.lang.Object", find(members, "toString").DeclaringClass)

	t.Run("cached list is not modified", func(t *testing.T) {
		raw := c.Reflect("demo.Box")
		assert.Equal(t, "java.lang.Object", find(raw, "get").ReturnTypeString())
		assert.Equal(t, "demo.Box", find(raw, "get").DeclaringClass)
	})

	t.Run("extra arguments are ignored", func(t *testing.T) {
		members := c.Reflect("demo.Box<java.lang.Integer, java.lang.Long>")
		assert.Equal(t, "java.lang.Integer", find(members, "get").ReturnTypeString())
	})

	t.Run("callers own the result", func(t *testing.T) {
		members := c.Reflect("demo.Box")
		find(members, "get").Name = "changed"
		assert.NotNil(t, find(c.Reflect("demo.Box"), "get"))
	})

	assert.Equal(t, int64(1), c.Stats().Reflections)
}

func TestCacheGenericInterfaceImplementation(t *testing.T) {
	accessor := func(name, descriptor, signature string, flags classfile.AccessFlags, code bool) classfiletest.Method {
		return classfiletest.Method{Flags: flags, Name: name, Descriptor: descriptor, Signature: signature, Code: code}
	}
	abstract := classfile.AccPublic | classfile.AccAbstract
	bridge := classfile.AccPublic | classfile.AccBridge | classfile.AccSynthetic

	pair := classfiletest.NewInterface("demo/Pair").
		Signature("<A:Ljava/lang/Object;B:Ljava/lang/Object;>Ljava/lang/Object;").
		Method(accessor("getFirst", "()Ljava/lang/Object;", "()TA;", abstract, false)).
		Method(accessor("getSecond", "()Ljava/lang/Object;", "()TB;", abstract, false))
	impl := classfiletest.NewClass("demo/StringIntPair").
		Implements("demo/Pair").
		Signature("Ljava/lang/Object;Ldemo/Pair<Ljava/lang/String;Ljava/lang/Integer;>;").
		Method(accessor("getFirst", "()Ljava/lang/String;", "", classfile.AccPublic, true)).
		Method(accessor("getSecond", "()Ljava/lang/Integer;", "", classfile.AccPublic, true)).
		Method(accessor("getFirst", "()Ljava/lang/Object;", "", bridge, true)).
		Method(accessor("getSecond", "()Ljava/lang/Object;", "", bridge, true))

	dir := t.TempDir()
	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(writeDir(t, dir, object(), pair, impl)))

	members := c.Reflect("demo.StringIntPair")
	cases := []struct {
		name, want string
	}{
		{"getFirst", "java.lang.String"},
		{"getSecond", "java.lang.Integer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var found []*reflector.MemberDescriptor
			for _, m := range members {
				if m.Name == tc.name {
					found = append(found, m)
				}
			}
			require.Len(t, found, 1)
			assert.Equal(t, tc.want, found[0].ReturnTypeString())
			assert.Equal(t, "demo.StringIntPair", found[0].DeclaringClass)
		})
	}
}

func TestCacheLooseChecksum(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	writeDir(t, classes, object(),
		classfiletest.NewClass("demo/Base").Method(method("first")),
		classfiletest.NewClass("demo/Sub").Super("demo/Base"),
	)

	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(classes))

	assert.NotNil(t, find(c.Reflect("demo.Sub"), "first"))
	assert.NotNil(t, find(c.Reflect("demo.Sub"), "first"))
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Reflections)
	assert.Equal(t, int64(1), stats.MemoryHits)

	writeDir(t, classes, classfiletest.NewClass("demo/Base").Method(method("second")))

	members := c.Reflect("demo.Sub")
	assert.Nil(t, find(members, "first"))
	assert.NotNil(t, find(members, "second"))
	assert.Equal(t, int64(2), c.Stats().Reflections)
}

func TestCacheEvict(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(writeDir(t, dir, object(), box())))

	c.Reflect("demo.Box")
	c.Reflect("demo.Box")
	c.Evict("demo.Box<java.lang.String>")
	c.Reflect("demo.Box")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Reflections)
	assert.Equal(t, int64(1), stats.MemoryHits)
}

func TestCacheResetLoose(t *testing.T) {
	dir := t.TempDir()
	classes := writeDir(t, filepath.Join(dir, "classes"), object(), box())
	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(classes))

	c.Reflect("demo.Box")
	writeDir(t, classes, classfiletest.NewClass("demo/Added"))
	assert.False(t, c.ContainsFQCN("demo.Added"))

	require.NoError(t, c.ResetLoose())
	assert.True(t, c.ContainsFQCN("demo.Added"))
	assert.Equal(t, 0, c.checksums.Len())

	c.Reflect("demo.Box")
	assert.Equal(t, int64(2), c.Stats().Reflections)
}

func TestCacheRescan(t *testing.T) {
	dir := t.TempDir()
	classes := writeDir(t, filepath.Join(dir, "classes"), object())
	c := newTestCache(t, nil)
	require.NoError(t, c.AddContainer(classes))

	writeDir(t, classes, box())
	require.NoError(t, c.Rescan(false))
	assert.True(t, c.ContainsFQCN("demo.Box"))

	require.NoError(t, os.RemoveAll(classes))
	assert.Error(t, c.Rescan(true))
	assert.True(t, c.ContainsFQCN("demo.Box"))
}

func TestCachePersistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	jar := writeJar(t, filepath.Join(dir, "lib.jar"), object(), box())

	first := New(Options{Store: store})
	require.NoError(t, first.AddContainer(jar))
	first.Reflect("demo.Box")
	first.Close()
	assert.Equal(t, int64(1), first.Stats().ContainerScans)
	assert.Equal(t, int64(1), first.Stats().Reflections)
	assert.Positive(t, first.Stats().Writes)

	second := newTestCache(t, store)
	require.NoError(t, second.AddContainer(jar))
	stats := second.Stats()
	assert.Equal(t, int64(0), stats.ContainerScans)
	assert.Equal(t, int64(1), stats.ManifestHits)

	ci, ok := second.Lookup("demo.Box")
	require.True(t, ok)
	assert.Equal(t, jar, ci.Origin)

	members := second.Reflect("demo.Box<java.lang.String>")
	assert.Equal(t, "java.lang.String", find(members, "get").ReturnTypeString())
	stats = second.Stats()
	assert.Equal(t, int64(0), stats.Reflections)
	assert.Equal(t, int64(1), stats.BlobHits)

	t.Run("changed archive is rescanned", func(t *testing.T) {
		writeJar(t, jar, object(), box(), classfiletest.NewClass("demo/Added"))
		third := newTestCache(t, store)
		require.NoError(t, third.AddContainer(jar))
		assert.Equal(t, int64(1), third.Stats().ContainerScans)
		assert.True(t, third.ContainsFQCN("demo.Added"))
	})

	t.Run("full rescan ignores manifests", func(t *testing.T) {
		fourth := newTestCache(t, store)
		require.NoError(t, fourth.AddContainer(jar))
		require.NoError(t, fourth.Rescan(true))
		assert.Equal(t, int64(1), fourth.Stats().ContainerScans)
	})
}

func TestCacheUseAfterClose(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	classes := writeDir(t, filepath.Join(dir, "classes"), object(), box())

	c := New(Options{Store: store})
	require.NoError(t, c.AddContainer(classes))
	c.Close()

	assert.NotPanics(t, func() {
		members := c.Reflect("demo.Box")
		assert.Equal(t, []string{"get", "set", "toString"}, names(members))
		c.Evict("demo.Box")
		assert.NoError(t, c.ResetLoose())
		c.Close()
	})
	_, err = store.Get(context.Background(), c.memberKey("demo.Box"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheCorruptBlob(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	classes := writeDir(t, filepath.Join(dir, "classes"), object(), box())

	first := New(Options{Store: store})
	require.NoError(t, first.AddContainer(classes))
	first.Reflect("demo.Box")
	first.Close()

	key := first.memberKey("demo.Box")
	_, err = store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), key, []byte("garbage")))

	second := newTestCache(t, store)
	require.NoError(t, second.AddContainer(classes))
	members := second.Reflect("demo.Box")
	assert.Equal(t, []string{"get", "set", "toString"}, names(members))

	stats := second.Stats()
	assert.Equal(t, int64(1), stats.Corrupt)
	assert.Equal(t, int64(1), stats.Reflections)
}

func TestCacheChecksumTablePersisted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	classes := writeDir(t, filepath.Join(dir, "classes"), object(), box())

	first := New(Options{Store: store})
	require.NoError(t, first.AddContainer(classes))
	first.Reflect("demo.Box")
	first.Close()

	second := newTestCache(t, store)
	assert.Equal(t, 2, second.checksums.Len())
	sum, ok := second.checksums.Get(filepath.Join(classes, "demo", "Box.class"))
	assert.True(t, ok)
	assert.Len(t, sum, 32)
}

func TestCacheChecksumTableGatesBlobs(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	classes := writeDir(t, filepath.Join(dir, "classes"), object(), box())

	first := New(Options{Store: store})
	require.NoError(t, first.AddContainer(classes))
	first.Reflect("demo.Box")
	first.Close()
	require.NoError(t, store.Delete(context.Background(), first.checksumKey()))

	second := New(Options{Store: store})
	require.NoError(t, second.AddContainer(classes))
	second.Reflect("demo.Box")
	second.Close()
	assert.Equal(t, int64(0), second.Stats().BlobHits, "files missing from the table are not trusted")
	assert.Equal(t, int64(1), second.Stats().Reflections)

	third := newTestCache(t, store)
	require.NoError(t, third.AddContainer(classes))
	third.Reflect("demo.Box")
	assert.Equal(t, int64(1), third.Stats().BlobHits)
	assert.Equal(t, int64(0), third.Stats().Reflections)

	t.Run("stale table entry", func(t *testing.T) {
		fourth := New(Options{Store: store})
		require.NoError(t, fourth.AddContainer(classes))
		fourth.checksums.Set(filepath.Join(classes, "demo", "Box.class"), "0000")
		fourth.Reflect("demo.Box")
		fourth.Close()
		assert.Equal(t, int64(0), fourth.Stats().BlobHits)
		assert.Equal(t, int64(1), fourth.Stats().Reflections)
	})
}

func TestCacheSnapshotArchive(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	jar := writeJar(t, filepath.Join(dir, "app-1.0-SNAPSHOT.jar"), object(), box())

	first := New(Options{Store: store})
	require.NoError(t, first.AddContainer(jar))
	first.Reflect("demo.Box")
	first.Close()

	ctx := context.Background()
	_, err = store.Get(ctx, first.archiveKey(jar))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, first.memberKey("demo.Box"))
	assert.ErrorIs(t, err, ErrNotFound)

	second := newTestCache(t, store)
	require.NoError(t, second.AddContainer(jar))
	assert.Equal(t, int64(1), second.Stats().ContainerScans)
}

func TestCacheWatch(t *testing.T) {
	dir := t.TempDir()
	classes := writeDir(t, filepath.Join(dir, "classes"), object())
	c := New(Options{WatchInterval: 10 * time.Millisecond})
	defer c.Close()
	require.NoError(t, c.AddContainer(classes))
	c.Watch()

	// let the first poll record the existing files
	time.Sleep(50 * time.Millisecond)
	writeDir(t, classes, box())

	require.Eventually(t, func() bool {
		return c.ContainsFQCN("demo.Box")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(classes, "demo", "Box.class")))
	require.Eventually(t, func() bool {
		return !c.ContainsFQCN("demo.Box")
	}, 2*time.Second, 10*time.Millisecond)
}
