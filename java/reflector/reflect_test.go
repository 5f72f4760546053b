package reflector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/classfile/classfiletest"
)

// world is an in-memory class path. Each origin holds one or more entries.
type world struct {
	table   MapTable
	origins map[string]map[string][]byte
	opened  map[string]int
}

func newWorld(t *testing.T) *world {
	w := &world{
		table:   MapTable{},
		origins: map[string]map[string][]byte{},
		opened:  map[string]int{},
	}
	w.add(t, "rt.jar", object())
	return w
}

func (w *world) add(t *testing.T, origin string, classes ...*classfiletest.Class) {
	t.Helper()
	if w.origins[origin] == nil {
		w.origins[origin] = map[string][]byte{}
	}
	for _, c := range classes {
		b := c.Bytes()
		cf, err := classfile.ParseBytes(b)
		require.NoError(t, err)
		ci, ok, err := IndexClass(cf, false)
		require.NoError(t, err)
		require.True(t, ok)
		ci.Origin = origin
		ci.Entry = c.Name() + ".class"
		w.table[ci.Name] = ci
		w.origins[origin][ci.Entry] = b
	}
}

func (w *world) open(origin string) (ClassSource, error) {
	entries, ok := w.origins[origin]
	if !ok {
		return nil, fmt.Errorf("no such origin %s", origin)
	}
	w.opened[origin]++
	return memSource(entries), nil
}

type memSource map[string][]byte

func (s memSource) ReadClass(entry string) (*classfile.ClassFile, error) {
	b, ok := s[entry]
	if !ok {
		return nil, fmt.Errorf("no such entry %s", entry)
	}
	return classfile.ParseBytes(b)
}

func (memSource) Close() error { return nil }

func object() *classfiletest.Class {
	return classfiletest.NewClass("java/lang/Object").Super("").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "<init>", Descriptor: "()V", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "toString", Descriptor: "()Ljava/lang/String;", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "hashCode", Descriptor: "()I", Code: true})
}

func pair() *classfiletest.Class {
	return classfiletest.NewClass("demo/Pair").
		Signature("<A:Ljava/lang/Object;B:Ljava/lang/Object;>Ljava/lang/Object;").
		Field(classfiletest.Field{Flags: classfile.AccPrivate | classfile.AccFinal, Name: "first", Descriptor: "Ljava/lang/Object;", Signature: "TA;"}).
		Field(classfiletest.Field{Flags: classfile.AccPublic, Name: "second", Descriptor: "Ljava/lang/Object;", Signature: "TB;"}).
		Method(classfiletest.Method{
			Flags: classfile.AccPublic, Name: "<init>",
			Descriptor: "(Ljava/lang/Object;Ljava/lang/Object;)V", Signature: "(TA;TB;)V",
			ParamNames: []string{"first", "second"}, Code: true,
		}).
		Method(classfiletest.Method{
			Flags: classfile.AccPublic, Name: "getFirst",
			Descriptor: "()Ljava/lang/Object;", Signature: "()TA;", Code: true,
		}).
		Method(classfiletest.Method{
			Flags: classfile.AccPublic, Name: "setSecond",
			Descriptor: "(Ljava/lang/Object;)V", Signature: "(TB;)V", ParamNames: []string{"value"}, Code: true,
		}).
		Method(classfiletest.Method{
			Flags: classfile.AccPublic, Name: "mapFirst",
			Descriptor: "(Ljava/util/function/Function;)Ldemo/Pair;",
			Signature:  "<R:Ljava/lang/Object;>(Ljava/util/function/Function<-TA;+TR;>;)Ldemo/Pair<TR;TB;>;",
			ParamNames: []string{"fn"}, Code: true,
		})
}

func stringIntPair() *classfiletest.Class {
	return classfiletest.NewClass("demo/StringIntPair").
		Super("demo/Pair").
		Signature("Ldemo/Pair<Ljava/lang/String;Ljava/lang/Integer;>;").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "<init>", Descriptor: "()V", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "getFirst", Descriptor: "()Ljava/lang/String;", Code: true}).
		Method(classfiletest.Method{
			Flags: classfile.AccPublic | classfile.AccBridge | classfile.AccSynthetic, Name: "getFirst",
			Descriptor: "()Ljava/lang/Object;", Code: true,
		})
}

func box() *classfiletest.Class {
	return classfiletest.NewClass("demo/Box").
		Signature("<T:Ljava/lang/Object;>Ljava/lang/Object;").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "get", Descriptor: "()Ljava/lang/Object;", Signature: "()TT;", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "set", Descriptor: "(Ljava/lang/Object;)V", Signature: "(TT;)V", Code: true})
}

func declarations(members []*MemberDescriptor) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Declaration()
	}
	return out
}

func TestResolve(t *testing.T) {
	w := newWorld(t)
	w.add(t, "app.jar", pair(), stringIntPair(), box(),
		classfiletest.NewClass("demo/ListBox").Super("demo/Box").
			Signature("<E:Ljava/lang/Object;>Ldemo/Box<Ljava/util/List<TE;>;>;"),
		classfiletest.NewInterface("demo/A"),
		classfiletest.NewInterface("demo/B").Implements("demo/A"),
		classfiletest.NewInterface("demo/C").Implements("demo/A"),
		classfiletest.NewClass("demo/D").Implements("demo/B", "demo/C"),
		classfiletest.NewClass("demo/Outer$Inner"),
	)

	t.Run("concrete arguments", func(t *testing.T) {
		info := Resolve(w.table, "demo.StringIntPair")
		assert.Equal(t, "demo.StringIntPair", info.Target)
		assert.Equal(t, []string{
			"demo.StringIntPair",
			"demo.Pair<java.lang.String, java.lang.Integer>",
			"java.lang.Object",
		}, info.Ancestors)
		assert.Equal(t, []string{"app.jar", "rt.jar"}, info.FileOrder)
		assert.Equal(t, []string{"java.lang.Object"}, info.Files["rt.jar"])
	})

	t.Run("placeholders flow into supers", func(t *testing.T) {
		info := Resolve(w.table, "demo.ListBox")
		assert.Equal(t, []string{"demo.ListBox", "demo.Box<java.util.List<%%E>>", "java.lang.Object"}, info.Ancestors)

		info = Resolve(w.table, "demo.ListBox<java.lang.String>")
		assert.Equal(t, "demo.ListBox<java.lang.String>", info.Target)
		assert.Equal(t, []string{
			"demo.ListBox<java.lang.String>",
			"demo.Box<java.util.List<java.lang.String>>",
			"java.lang.Object",
		}, info.Ancestors)
	})

	t.Run("diamond is visited once", func(t *testing.T) {
		info := Resolve(w.table, "demo.D")
		assert.Equal(t, []string{"demo.D", "demo.C", "demo.A", "java.lang.Object", "demo.B"}, info.Ancestors)
	})

	t.Run("member class spelling", func(t *testing.T) {
		info := Resolve(w.table, "demo.Outer.Inner")
		assert.Equal(t, "demo.Outer$Inner", info.Target)
		assert.Equal(t, []string{"demo.Outer$Inner", "java.lang.Object"}, info.Ancestors)
	})

	t.Run("missing class", func(t *testing.T) {
		info := Resolve(w.table, "demo.Missing")
		assert.False(t, info.Found())
		assert.Empty(t, info.Ancestors)
	})
}

func TestReflectAll(t *testing.T) {
	w := newWorld(t)
	w.add(t, "app.jar", pair(), stringIntPair())
	r := New(w.open, Options{})

	members := r.Reflect(w.table, "demo.StringIntPair")
	assert.Equal(t, []string{
		"public demo.StringIntPair()",
		"public java.lang.String getFirst()",
		"public java.lang.Integer second",
		"public void setSecond(java.lang.Integer value)",
		"public <R> demo.Pair<R, java.lang.Integer> mapFirst(java.util.function.Function<? super java.lang.String, ? extends R> fn)",
		"public java.lang.String toString()",
		"public int hashCode()",
	}, declarations(members))

	assert.Equal(t, 1, w.opened["app.jar"])
	assert.Equal(t, 1, w.opened["rt.jar"])

	got := byName(members)
	assert.Equal(t, "demo.StringIntPair", got["getFirst"].DeclaringClass)
	assert.Equal(t, "demo.Pair<java.lang.String, java.lang.Integer>", got["setSecond"].DeclaringClass)
	assert.Equal(t, "java.lang.Object", got["toString"].DeclaringClass)
	assert.Empty(t, got["setSecond"].TypeParameters)
}

func TestReflectAllPlaceholders(t *testing.T) {
	w := newWorld(t)
	w.add(t, "app.jar", box(),
		classfiletest.NewClass("demo/ListBox").Super("demo/Box").
			Signature("<E:Ljava/lang/Object;>Ldemo/Box<Ljava/util/List<TE;>;>;"),
		classfiletest.NewClass("demo/RawBox").Super("demo/Box"),
		classfiletest.NewClass("demo/IntBox").Super("demo/Box").
			Signature("Ldemo/Box<Ljava/lang/Integer;>;").
			Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "get", Descriptor: "()Ljava/lang/Integer;", Code: true}),
	)
	r := New(w.open, Options{})

	t.Run("renamed placeholders stay bindable", func(t *testing.T) {
		got := byName(r.Reflect(w.table, "demo.ListBox"))
		get := got["get"]
		assert.Equal(t, "java.util.List<%%E>", get.ReturnType)
		assert.Equal(t, []string{"E"}, get.TypeParameters)
		assert.Equal(t, "java.util.List<java.lang.Object>", get.ReturnTypeString())

		bound := get.Clone()
		bound.Bind(map[string]string{"E": "java.lang.String"})
		assert.Equal(t, "java.util.List<java.lang.String>", bound.ReturnTypeString())
	})

	t.Run("raw inheritance erases", func(t *testing.T) {
		got := byName(r.Reflect(w.table, "demo.RawBox"))
		assert.Equal(t, "java.lang.Object", got["get"].ReturnType)
		assert.Empty(t, got["get"].TypeParameters)
	})

	t.Run("override wins over inherited", func(t *testing.T) {
		members := r.Reflect(w.table, "demo.IntBox")
		assert.Equal(t, []string{
			"public java.lang.Integer get()",
			"public void set(java.lang.Integer arg0)",
			"public java.lang.String toString()",
			"public int hashCode()",
		}, declarations(members))
		assert.Equal(t, "demo.IntBox", members[0].DeclaringClass)
	})

	t.Run("missing class", func(t *testing.T) {
		assert.Empty(t, r.Reflect(w.table, "demo.Nope"))
	})
}

func TestReflectAllOverloads(t *testing.T) {
	w := newWorld(t)
	w.add(t, "base", classfiletest.NewClass("demo/Shape").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "<init>", Descriptor: "()V", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "scale", Descriptor: "(I)V", Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "scale", Descriptor: "(D)V", Code: true}))
	w.add(t, "sub", classfiletest.NewClass("demo/Square").Super("demo/Shape").
		Method(classfiletest.Method{Flags: classfile.AccPublic, Name: "<init>", Descriptor: "(I)V", ParamNames: []string{"side"}, Code: true}).
		Method(classfiletest.Method{Flags: classfile.AccPublic | classfile.AccFinal, Name: "scale", Descriptor: "(I)V", Code: true}))

	members := New(w.open, Options{}).Reflect(w.table, "demo.Square")
	assert.Equal(t, []string{
		"public demo.Square(int side)",
		"public final void scale(int arg0)",
		"public void scale(double arg0)",
		"public java.lang.String toString()",
		"public int hashCode()",
	}, declarations(members))
}

func TestReflectAllUnreadableOrigin(t *testing.T) {
	w := newWorld(t)
	w.add(t, "app.jar", box())
	delete(w.origins, "rt.jar")

	members := New(w.open, Options{}).Reflect(w.table, "demo.Box")
	assert.Equal(t, []string{"public java.lang.Object get()", "public void set(java.lang.Object arg0)"}, declarations(members))
}
