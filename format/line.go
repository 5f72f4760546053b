package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dhamidi/jreflect/java/reflector"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

var (
	kindColor = color.New(color.FgCyan)
	nameColor = color.New(color.FgYellow, color.Bold)
	typeColor = color.New(color.FgGreen)
)

// LineEncoder writes one tab-separated line for the class and one per
// member, so output can be piped through cut and grep.
type LineEncoder struct {
	w     io.Writer
	class *Class
	color bool
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

// WithColor highlights kinds, names and types.
func (e *LineEncoder) WithColor(on bool) *LineEncoder {
	e.color = on
	return e
}

func (e *LineEncoder) Encode(class *Class) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) paint(c *color.Color, s string) string {
	if !e.color {
		return s
	}
	return c.Sprint(s)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	if e.class == nil || e.class.Index == nil {
		return nil, fmt.Errorf("no class to encode")
	}
	var sb strings.Builder
	ci := e.class.Index

	fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n",
		e.paint(kindColor, classKind(ci)),
		e.paint(nameColor, ci.Declaration()),
		orDash(typeinfo.StripMarks(strings.Join(ci.Supers, ","))),
		orDash(ci.Origin),
	)

	for _, m := range e.class.Members {
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.paint(kindColor, strings.ToLower(m.Kind.String())),
			e.paint(nameColor, m.Name),
			e.paint(typeColor, e.memberType(m)),
			e.parametersStr(m),
			orDash(strings.ReplaceAll(m.Modifiers, " ", ",")),
			m.DeclaringClass,
		)
	}

	return []byte(sb.String()), nil
}

func (e *LineEncoder) memberType(m *reflector.MemberDescriptor) string {
	if m.Kind == reflector.KindConstructor {
		return "-"
	}
	return m.ReturnTypeString()
}

func (e *LineEncoder) parametersStr(m *reflector.MemberDescriptor) string {
	if m.Kind == reflector.KindField {
		return "-"
	}
	return orDash(strings.Join(m.ParameterTypes(), ","))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// DeclarationEncoder writes each member as it would appear in source, one
// per line.
type DeclarationEncoder struct {
	w     io.Writer
	class *Class
}

func NewDeclarationEncoder(w io.Writer) *DeclarationEncoder {
	return &DeclarationEncoder{w: w}
}

func (e *DeclarationEncoder) Encode(class *Class) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *DeclarationEncoder) MarshalText() ([]byte, error) {
	if e.class == nil || e.class.Index == nil {
		return nil, fmt.Errorf("no class to encode")
	}
	var sb strings.Builder
	sb.WriteString(e.class.Index.Declaration())
	sb.WriteString(" {\n")
	for _, m := range e.class.Members {
		fmt.Fprintf(&sb, "  %s;\n", m.Declaration())
	}
	sb.WriteString("}\n")
	return []byte(sb.String()), nil
}
