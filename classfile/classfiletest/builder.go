// Package classfiletest writes small but well-formed class files so tests
// can build fixtures without a Java compiler.
package classfiletest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"

	"github.com/dhamidi/jreflect/classfile"
)

// Local is one LocalVariableTable entry of a method body.
type Local struct {
	Name       string
	Descriptor string
	Slot       uint16
}

type Method struct {
	Flags      classfile.AccessFlags
	Name       string
	Descriptor string
	Signature  string
	Exceptions []string
	// ParamNames emits a MethodParameters attribute when non-empty.
	ParamNames []string
	// Code emits a trivial Code attribute. Locals implies Code.
	Code   bool
	Locals []Local
}

type Field struct {
	Flags      classfile.AccessFlags
	Name       string
	Descriptor string
	Signature  string
}

// Class accumulates the parts of one class file. Names are internal names
// ("com/example/Foo").
type Class struct {
	name        string
	flags       classfile.AccessFlags
	super       string
	interfaces  []string
	signature   string
	annotations []string
	inner       [][2]string
	methods     []Method
	fields      []Field
}

func NewClass(name string) *Class {
	return &Class{
		name:  name,
		flags: classfile.AccPublic | classfile.AccSuper,
		super: "java/lang/Object",
	}
}

func NewInterface(name string) *Class {
	c := NewClass(name)
	c.flags = classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract
	return c
}

func (c *Class) Name() string { return c.name }

func (c *Class) Flags(f classfile.AccessFlags) *Class {
	c.flags = f
	return c
}

// Super sets the superclass; "" produces a root class with no superclass.
func (c *Class) Super(name string) *Class {
	c.super = name
	return c
}

func (c *Class) Implements(names ...string) *Class {
	c.interfaces = append(c.interfaces, names...)
	return c
}

func (c *Class) Signature(sig string) *Class {
	c.signature = sig
	return c
}

func (c *Class) Annotate(descriptor string) *Class {
	c.annotations = append(c.annotations, descriptor)
	return c
}

// Inner records a member class of this class in the InnerClasses attribute.
func (c *Class) Inner(innerName, simpleName string) *Class {
	c.inner = append(c.inner, [2]string{innerName, simpleName})
	return c
}

func (c *Class) Method(m Method) *Class {
	c.methods = append(c.methods, m)
	return c
}

func (c *Class) Field(f Field) *Class {
	c.fields = append(c.fields, f)
	return c
}

// Bytes encodes the class. It panics on values that do not fit the class
// file format, which only happens with broken fixtures.
func (c *Class) Bytes() []byte {
	cp := newPool()
	thisIdx := cp.class(c.name)
	var superIdx uint16
	if c.super != "" {
		superIdx = cp.class(c.super)
	}
	ifaces := make([]uint16, len(c.interfaces))
	for i, n := range c.interfaces {
		ifaces[i] = cp.class(n)
	}

	var body bytes.Buffer
	w := &writer{buf: &body}
	w.u2(uint16(c.flags))
	w.u2(thisIdx)
	w.u2(superIdx)
	w.u2(u16(len(ifaces)))
	for _, ix := range ifaces {
		w.u2(ix)
	}

	w.u2(u16(len(c.fields)))
	for _, f := range c.fields {
		w.u2(uint16(f.Flags))
		w.u2(cp.utf8(f.Name))
		w.u2(cp.utf8(f.Descriptor))
		var attrs []attribute
		if f.Signature != "" {
			attrs = append(attrs, signatureAttr(cp, f.Signature))
		}
		w.attributes(attrs)
	}

	w.u2(u16(len(c.methods)))
	for _, m := range c.methods {
		w.u2(uint16(m.Flags))
		w.u2(cp.utf8(m.Name))
		w.u2(cp.utf8(m.Descriptor))
		w.attributes(methodAttrs(cp, m))
	}

	w.attributes(c.classAttrs(cp, thisIdx))

	var out bytes.Buffer
	head := &writer{buf: &out}
	head.u4(classfile.Magic)
	head.u2(0)
	head.u2(61)
	cp.writeTo(head)
	out.Write(body.Bytes())
	return out.Bytes()
}

// WriteTo stores the class under root following the package layout and
// returns the file path.
func (c *Class) WriteTo(root string) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(c.name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, c.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJar writes the classes into a new archive at path.
func WriteJar(path string, classes ...*Class) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	for _, c := range classes {
		w, err := zw.Create(c.name + ".class")
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(c.Bytes()); err != nil {
			f.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *Class) classAttrs(cp *pool, thisIdx uint16) []attribute {
	var attrs []attribute
	if c.signature != "" {
		attrs = append(attrs, signatureAttr(cp, c.signature))
	}
	if len(c.annotations) > 0 {
		var b bytes.Buffer
		w := &writer{buf: &b}
		w.u2(u16(len(c.annotations)))
		for _, a := range c.annotations {
			w.u2(cp.utf8(a))
			w.u2(0)
		}
		attrs = append(attrs, attribute{cp.utf8(classfile.AttrRuntimeVisibleAnnotations), b.Bytes()})
	}
	if len(c.inner) > 0 {
		var b bytes.Buffer
		w := &writer{buf: &b}
		w.u2(u16(len(c.inner)))
		for _, in := range c.inner {
			w.u2(cp.class(in[0]))
			w.u2(thisIdx)
			w.u2(cp.utf8(in[1]))
			w.u2(uint16(classfile.AccPublic | classfile.AccStatic))
		}
		attrs = append(attrs, attribute{cp.utf8(classfile.AttrInnerClasses), b.Bytes()})
	}
	return attrs
}

func methodAttrs(cp *pool, m Method) []attribute {
	var attrs []attribute
	if m.Code || len(m.Locals) > 0 {
		attrs = append(attrs, codeAttr(cp, m.Locals))
	}
	if m.Signature != "" {
		attrs = append(attrs, signatureAttr(cp, m.Signature))
	}
	if len(m.Exceptions) > 0 {
		var b bytes.Buffer
		w := &writer{buf: &b}
		w.u2(u16(len(m.Exceptions)))
		for _, e := range m.Exceptions {
			w.u2(cp.class(e))
		}
		attrs = append(attrs, attribute{cp.utf8(classfile.AttrExceptions), b.Bytes()})
	}
	if len(m.ParamNames) > 0 {
		var b bytes.Buffer
		w := &writer{buf: &b}
		n, err := safecast.Conv[uint8](len(m.ParamNames))
		if err != nil {
			panic(err)
		}
		w.buf.WriteByte(n)
		for _, p := range m.ParamNames {
			w.u2(cp.utf8(p))
			w.u2(0)
		}
		attrs = append(attrs, attribute{cp.utf8(classfile.AttrMethodParameters), b.Bytes()})
	}
	return attrs
}

func codeAttr(cp *pool, locals []Local) attribute {
	var maxLocals uint16
	for _, l := range locals {
		if l.Slot+2 > maxLocals {
			maxLocals = l.Slot + 2
		}
	}
	var b bytes.Buffer
	w := &writer{buf: &b}
	w.u2(1)
	w.u2(maxLocals)
	w.u4(1)
	b.WriteByte(0xb1) // return
	w.u2(0)
	var nested []attribute
	if len(locals) > 0 {
		var lb bytes.Buffer
		lw := &writer{buf: &lb}
		lw.u2(u16(len(locals)))
		for _, l := range locals {
			lw.u2(0)
			lw.u2(1)
			lw.u2(cp.utf8(l.Name))
			lw.u2(cp.utf8(l.Descriptor))
			lw.u2(l.Slot)
		}
		nested = append(nested, attribute{cp.utf8(classfile.AttrLocalVariableTable), lb.Bytes()})
	}
	w.attributes(nested)
	return attribute{cp.utf8(classfile.AttrCode), b.Bytes()}
}

func signatureAttr(cp *pool, sig string) attribute {
	var b bytes.Buffer
	w := &writer{buf: &b}
	w.u2(cp.utf8(sig))
	return attribute{cp.utf8(classfile.AttrSignature), b.Bytes()}
}

type attribute struct {
	name uint16
	info []byte
}

type writer struct {
	buf *bytes.Buffer
}

func (w *writer) u2(v uint16) {
	_ = binary.Write(w.buf, binary.BigEndian, v)
}

func (w *writer) u4(v uint32) {
	_ = binary.Write(w.buf, binary.BigEndian, v)
}

func (w *writer) attributes(attrs []attribute) {
	w.u2(u16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.name)
		n, err := safecast.Conv[uint32](len(a.info))
		if err != nil {
			panic(err)
		}
		w.u4(n)
		w.buf.Write(a.info)
	}
}

type pool struct {
	entries [][]byte
	utf8s   map[string]uint16
	classes map[string]uint16
}

func newPool() *pool {
	return &pool{utf8s: map[string]uint16{}, classes: map[string]uint16{}}
}

func (p *pool) add(entry []byte) uint16 {
	p.entries = append(p.entries, entry)
	return u16(len(p.entries))
}

// utf8 stores s as plain UTF-8, which equals modified UTF-8 for the ASCII
// names fixtures use.
func (p *pool) utf8(s string) uint16 {
	if ix, ok := p.utf8s[s]; ok {
		return ix
	}
	var b bytes.Buffer
	b.WriteByte(byte(classfile.ConstantUtf8))
	w := &writer{buf: &b}
	w.u2(u16(len(s)))
	b.WriteString(s)
	ix := p.add(b.Bytes())
	p.utf8s[s] = ix
	return ix
}

func (p *pool) class(name string) uint16 {
	if ix, ok := p.classes[name]; ok {
		return ix
	}
	nameIdx := p.utf8(name)
	var b bytes.Buffer
	b.WriteByte(byte(classfile.ConstantClass))
	w := &writer{buf: &b}
	w.u2(nameIdx)
	ix := p.add(b.Bytes())
	p.classes[name] = ix
	return ix
}

func (p *pool) writeTo(w *writer) {
	w.u2(u16(len(p.entries) + 1))
	for _, e := range p.entries {
		w.buf.Write(e)
	}
}

func u16(n int) uint16 {
	v, err := safecast.Conv[uint16](n)
	if err != nil {
		panic(fmt.Sprintf("classfiletest: %d does not fit in u2: %v", n, err))
	}
	return v
}
