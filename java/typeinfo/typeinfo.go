// Package typeinfo models one resolved Java type as an immutable tree and
// provides helpers for the textual "Name<Arg, Arg>" grammar used throughout
// the reflection engine.
package typeinfo

import "strings"

// TypeInfo describes one type position: a field type, a parameter, a return
// type or a type argument. Wildcards are carried in Name ("? extends X").
type TypeInfo struct {
	Name      string
	Args      []*TypeInfo
	ArrayDims int
	Varargs   bool
	ParamName string
	// Inner is the member-class suffix of a parameterized outer type, as in
	// Outer<K>$Inner<V>.
	Inner *TypeInfo
}

func New(name string, args ...*TypeInfo) *TypeInfo {
	return &TypeInfo{Name: name, Args: args}
}

func (t *TypeInfo) IsArray() bool { return t.ArrayDims > 0 }

// WithArray returns a copy with dims more array dimensions.
func (t *TypeInfo) WithArray(dims int) *TypeInfo {
	c := *t
	c.ArrayDims += dims
	return &c
}

// WithVarargs returns a copy whose last array dimension renders as "...".
func (t *TypeInfo) WithVarargs() *TypeInfo {
	c := *t
	if c.ArrayDims > 0 {
		c.ArrayDims--
		c.Varargs = true
	}
	return &c
}

func (t *TypeInfo) WithParamName(name string) *TypeInfo {
	c := *t
	c.ParamName = name
	return &c
}

// WithName returns a copy carrying a different base name. Used to apply a
// wildcard prefix.
func (t *TypeInfo) WithName(name string) *TypeInfo {
	c := *t
	c.Name = name
	return &c
}

func (t *TypeInfo) String() string {
	var sb strings.Builder
	t.writeType(&sb)
	if t.ParamName != "" {
		sb.WriteByte(' ')
		sb.WriteString(t.ParamName)
	}
	return sb.String()
}

// TypeString renders the type without its parameter name.
func (t *TypeInfo) TypeString() string {
	var sb strings.Builder
	t.writeType(&sb)
	return sb.String()
}

func (t *TypeInfo) writeType(sb *strings.Builder) {
	sb.WriteString(t.Name)
	writeArgs(sb, t.Args)
	for in := t.Inner; in != nil; in = in.Inner {
		sb.WriteByte('$')
		sb.WriteString(in.Name)
		writeArgs(sb, in.Args)
	}
	for i := 0; i < t.ArrayDims; i++ {
		sb.WriteString("[]")
	}
	if t.Varargs {
		sb.WriteString("...")
	}
}

func writeArgs(sb *strings.Builder, args []*TypeInfo) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.writeType(sb)
	}
	sb.WriteByte('>')
}
