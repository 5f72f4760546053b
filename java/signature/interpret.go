package signature

import (
	"strings"

	"github.com/dhamidi/jreflect/java/typeinfo"
)

// Scope decides how type variables are tagged while converting nodes.
//
// A variable bound to itself, or listed in ClassParams without a binding,
// is a free class-owned variable and renders as %%V. A variable bound to
// another value renders as that value. Method formals, and anything else,
// render as ##V.
type Scope struct {
	ClassParams []string
	Bindings    map[string]string
	// Formals are the method's own type parameters. They shadow class
	// parameters of the same name.
	Formals []string
}

// Refs collects the type variables a conversion referenced.
type Refs struct {
	Class  []string
	Formal []string
}

func addUnique(list []string, name string) []string {
	for _, n := range list {
		if n == name {
			return list
		}
	}
	return append(list, name)
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// TypeInfo converts t into a type tree and records referenced variables.
func (s Scope) TypeInfo(t Type, refs *Refs) *typeinfo.TypeInfo {
	switch n := t.(type) {
	case *BaseType:
		return typeinfo.New(n.Name())
	case *TypeVariable:
		return typeinfo.New(s.variable(n.Name, refs))
	case *ArrayType:
		return s.TypeInfo(n.Elem, refs).WithArray(1)
	case *ClassType:
		return s.classType(n, refs)
	default:
		panic("signature: unknown node type")
	}
}

func (s Scope) variable(name string, refs *Refs) string {
	if contains(s.Formals, name) {
		refs.Formal = addUnique(refs.Formal, name)
		return typeinfo.FormalVarMark + name
	}
	if v, ok := s.Bindings[name]; ok {
		if v == name || v == typeinfo.ClassVarMark+name {
			refs.Class = addUnique(refs.Class, name)
			return typeinfo.ClassVarMark + name
		}
		for _, cv := range typeinfo.ClassVariables(v) {
			refs.Class = addUnique(refs.Class, cv)
		}
		return v
	}
	if contains(s.ClassParams, name) {
		refs.Class = addUnique(refs.Class, name)
		return typeinfo.ClassVarMark + name
	}
	refs.Formal = addUnique(refs.Formal, name)
	return typeinfo.FormalVarMark + name
}

// classType folds segments into the base name until a segment carries type
// arguments; later segments become the Inner chain.
func (s Scope) classType(ct *ClassType, refs *Refs) *typeinfo.TypeInfo {
	var root, tail *typeinfo.TypeInfo
	for i, seg := range ct.Segments {
		name := seg.Name
		if i == 0 {
			name = strings.ReplaceAll(name, "/", ".")
		}
		args := s.arguments(seg.Args, refs)
		switch {
		case root == nil:
			root = &typeinfo.TypeInfo{Name: name, Args: args}
			tail = root
		case len(tail.Args) == 0:
			tail.Name += "$" + name
			tail.Args = args
		default:
			in := &typeinfo.TypeInfo{Name: name, Args: args}
			tail.Inner = in
			tail = in
		}
	}
	return root
}

func (s Scope) arguments(args []TypeArgument, refs *Refs) []*typeinfo.TypeInfo {
	if len(args) == 0 {
		return nil
	}
	out := make([]*typeinfo.TypeInfo, len(args))
	for i, a := range args {
		switch a.Wildcard {
		case WildcardAny:
			out[i] = typeinfo.New("?")
		case WildcardExtends:
			t := s.TypeInfo(a.Type, refs)
			out[i] = t.WithName("? extends " + t.Name)
		case WildcardSuper:
			t := s.TypeInfo(a.Type, refs)
			out[i] = t.WithName("? super " + t.Name)
		default:
			out[i] = s.TypeInfo(a.Type, refs)
		}
	}
	return out
}

// ClassInfo is the interpretation of a class signature.
type ClassInfo struct {
	TypeParameters []string
	// Supers lists the superclass then the interfaces. Class-owned variables
	// are tagged %%. An explicit java.lang.Object superclass is dropped.
	Supers []string
}

func InterpretClass(sig *ClassSignature) ClassInfo {
	var info ClassInfo
	for _, tp := range sig.TypeParams {
		info.TypeParameters = append(info.TypeParameters, tp.Name)
	}
	scope := Scope{ClassParams: info.TypeParameters}
	var refs Refs
	if sig.Super != nil {
		super := scope.TypeInfo(sig.Super, &refs).String()
		if super != typeinfo.ObjectClass {
			info.Supers = append(info.Supers, super)
		}
	}
	for _, iface := range sig.Interfaces {
		info.Supers = append(info.Supers, scope.TypeInfo(iface, &refs).String())
	}
	return info
}

// MethodInfo is the interpretation of a method signature.
type MethodInfo struct {
	// FormalTypeParameters renders the method's own type parameter
	// declaration, e.g. "<T extends java.lang.Comparable<##T>>".
	FormalTypeParameters string
	Params               []*typeinfo.TypeInfo
	// Return is nil for void.
	Return *typeinfo.TypeInfo
	Throws []string
	Refs   Refs
}

func (s Scope) Method(sig *MethodSignature) MethodInfo {
	for _, tp := range sig.TypeParams {
		s.Formals = append(append([]string(nil), s.Formals...), tp.Name)
	}
	var info MethodInfo
	info.FormalTypeParameters = s.formalDeclaration(sig.TypeParams, &info.Refs)
	for _, p := range sig.Params {
		info.Params = append(info.Params, s.TypeInfo(p, &info.Refs))
	}
	if sig.Return != nil {
		info.Return = s.TypeInfo(sig.Return, &info.Refs)
	}
	for _, t := range sig.Throws {
		info.Throws = append(info.Throws, s.TypeInfo(t, &info.Refs).String())
	}
	return info
}

func (s Scope) Field(t Type) (*typeinfo.TypeInfo, Refs) {
	var refs Refs
	return s.TypeInfo(t, &refs), refs
}

func (s Scope) formalDeclaration(params []TypeParameter, refs *Refs) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, tp := range params {
		var bounds []string
		if tp.ClassBound != nil {
			if b := s.TypeInfo(tp.ClassBound, refs).String(); b != typeinfo.ObjectClass {
				bounds = append(bounds, b)
			}
		}
		for _, ib := range tp.InterfaceBounds {
			bounds = append(bounds, s.TypeInfo(ib, refs).String())
		}
		parts[i] = tp.Name
		if len(bounds) > 0 {
			parts[i] += " extends " + strings.Join(bounds, " & ")
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
