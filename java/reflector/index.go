// Package reflector turns parsed class files into class indexes and member
// descriptors, resolves inheritance chains with type-argument substitution
// and merges inherited members.
package reflector

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/java/signature"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

var log = commonlog.GetLogger("jreflect.reflector")

const functionalInterface = "Ljava/lang/FunctionalInterface;"

// ClassIndex is the lightweight per-class record kept for every class on the
// class path.
type ClassIndex struct {
	// Name is the dotted binary name; member classes keep '$'.
	Name           string
	TypeParameters []string
	// Supers lists the superclass first, then interfaces. Entries may carry
	// %%-tagged placeholders for this class's own type parameters.
	Supers     []string
	Interface  bool
	Annotation bool
	Functional bool
	// Origin is the .class path for loose files or the archive path.
	Origin string
	// Entry is the archive entry name, or the file name for loose classes.
	Entry string
}

// Declaration renders the class with its formal type parameters, e.g.
// "java.util.Map<K, V>".
func (c *ClassIndex) Declaration() string {
	if len(c.TypeParameters) == 0 {
		return c.Name
	}
	return c.Name + "<" + strings.Join(c.TypeParameters, ", ") + ">"
}

func (c *ClassIndex) Package() string { return typeinfo.PackageName(c.Name) }

func (c *ClassIndex) SimpleName() string { return typeinfo.SimpleName(c.Name) }

func (c *ClassIndex) Clone() *ClassIndex {
	n := *c
	n.TypeParameters = append([]string(nil), c.TypeParameters...)
	n.Supers = append([]string(nil), c.Supers...)
	return &n
}

// IndexClass builds the index-mode view of one class. Classes read from
// archives are kept only when public, protected or flagged ACC_SUPER; ok is
// false for classes that are filtered out. A malformed class signature is
// returned as an error.
func IndexClass(cf *classfile.ClassFile, fromArchive bool) (ci *ClassIndex, ok bool, err error) {
	flags := cf.AccessFlags
	if fromArchive && !flags.IsPublic() && !flags.IsProtected() && !flags.IsSuper() {
		return nil, false, nil
	}

	ci = &ClassIndex{
		Name:       classfile.InternalToSourceName(cf.ClassName()),
		Interface:  cf.IsInterface(),
		Annotation: cf.IsAnnotation(),
	}
	for _, a := range cf.VisibleAnnotations() {
		if a == functionalInterface {
			ci.Functional = true
		}
	}

	if sig := cf.Signature(); sig != "" {
		parsed, err := signature.ParseClassSignature(sig)
		if err != nil {
			return nil, false, err
		}
		info := signature.InterpretClass(parsed)
		ci.TypeParameters = info.TypeParameters
		ci.Supers = info.Supers
	} else {
		if super := cf.SuperClassName(); super != "" {
			ci.Supers = append(ci.Supers, classfile.InternalToSourceName(super))
		}
		for _, iface := range cf.InterfaceNames() {
			ci.Supers = append(ci.Supers, classfile.InternalToSourceName(iface))
		}
	}

	if len(ci.Supers) == 0 && ci.Name != typeinfo.ObjectClass {
		ci.Supers = []string{typeinfo.ObjectClass}
	}
	return ci, true, nil
}
