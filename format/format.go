// Package format renders reflected classes for the command line.
package format

import (
	"encoding"

	"github.com/dhamidi/jreflect/java/reflector"
)

// Class is a class index entry with its merged members. Members may be
// empty when only the index is shown.
type Class struct {
	Index   *reflector.ClassIndex
	Members []*reflector.MemberDescriptor
}

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *Class) error
}

func classKind(ci *reflector.ClassIndex) string {
	switch {
	case ci.Annotation:
		return "annotation"
	case ci.Interface:
		return "interface"
	default:
		return "class"
	}
}
