// Package signature parses JVM generic signatures (JVMS 4.7.9.1) into a
// small closed set of nodes and interprets them as typeinfo trees.
//
// Field and method descriptors are a subset of the signature grammar, so the
// same parsers accept them for members that carry no Signature attribute.
package signature

import "strings"

// Type is one of *BaseType, *ClassType, *TypeVariable or *ArrayType.
type Type interface {
	typeNode()
}

type BaseType struct {
	Code byte
}

type ClassType struct {
	Segments []ClassSegment
}

// ClassSegment is one dot-separated part of a class type signature. The
// first segment carries the package-qualified internal name.
type ClassSegment struct {
	Name string
	Args []TypeArgument
}

type TypeVariable struct {
	Name string
}

type ArrayType struct {
	Elem Type
}

func (*BaseType) typeNode()     {}
func (*ClassType) typeNode()    {}
func (*TypeVariable) typeNode() {}
func (*ArrayType) typeNode()    {}

type Wildcard byte

const (
	WildcardNone    Wildcard = 0
	WildcardAny     Wildcard = '*'
	WildcardExtends Wildcard = '+'
	WildcardSuper   Wildcard = '-'
)

// TypeArgument is nil-Type for the unbounded wildcard.
type TypeArgument struct {
	Wildcard Wildcard
	Type     Type
}

type TypeParameter struct {
	Name            string
	ClassBound      Type
	InterfaceBounds []Type
}

type ClassSignature struct {
	TypeParams []TypeParameter
	Super      *ClassType
	Interfaces []*ClassType
}

type MethodSignature struct {
	TypeParams []TypeParameter
	Params     []Type
	// Return is nil for void.
	Return Type
	Throws []Type
}

var baseTypeNames = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

func (b *BaseType) Name() string {
	return baseTypeNames[b.Code]
}

// Wide reports whether the type takes two local variable slots.
func (b *BaseType) Wide() bool {
	return b.Code == 'J' || b.Code == 'D'
}

// BinaryName returns the dotted binary name, nested segments joined with '$'.
func (c *ClassType) BinaryName() string {
	names := make([]string, len(c.Segments))
	for i, s := range c.Segments {
		names[i] = s.Name
	}
	return strings.ReplaceAll(strings.Join(names, "$"), "/", ".")
}

// IsWide reports whether a value of type t occupies two local variable slots.
func IsWide(t Type) bool {
	b, ok := t.(*BaseType)
	return ok && b.Wide()
}
