package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jreflect/java/reflector"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

type JSONEncoder struct {
	w     io.Writer
	class *Class
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *Class) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	if _, err := e.w.Write(text); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, "\n")
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	if e.class == nil || e.class.Index == nil {
		return nil, fmt.Errorf("no class to encode")
	}
	return json.MarshalIndent(buildClass(e.class), "", "  ")
}

type jsonClass struct {
	Name           string       `json:"name"`
	SimpleName     string       `json:"simpleName"`
	Package        string       `json:"package"`
	Kind           string       `json:"kind"`
	TypeParameters []string     `json:"typeParameters,omitempty"`
	Supers         []string     `json:"supers,omitempty"`
	Functional     bool         `json:"functional,omitempty"`
	Origin         string       `json:"origin,omitempty"`
	Members        []jsonMember `json:"members,omitempty"`
}

type jsonMember struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	DeclaringClass string          `json:"declaringClass"`
	Modifiers      []string        `json:"modifiers,omitempty"`
	TypeParameters string          `json:"typeParameters,omitempty"`
	Type           string          `json:"type,omitempty"`
	Parameters     []jsonParameter `json:"parameters,omitempty"`
	Exceptions     []string        `json:"exceptions,omitempty"`
	Declaration    string          `json:"declaration"`
}

type jsonParameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func buildClass(c *Class) jsonClass {
	ci := c.Index
	data := jsonClass{
		Name:           ci.Name,
		SimpleName:     ci.SimpleName(),
		Package:        ci.Package(),
		Kind:           classKind(ci),
		TypeParameters: ci.TypeParameters,
		Functional:     ci.Functional,
		Origin:         ci.Origin,
	}
	for _, s := range ci.Supers {
		data.Supers = append(data.Supers, typeinfo.StripMarks(s))
	}
	for _, m := range c.Members {
		data.Members = append(data.Members, buildMember(m))
	}
	return data
}

func buildMember(m *reflector.MemberDescriptor) jsonMember {
	out := jsonMember{
		Name:           m.Name,
		Kind:           strings.ToLower(m.Kind.String()),
		DeclaringClass: m.DeclaringClass,
		Modifiers:      strings.Fields(m.Modifiers),
		Declaration:    m.Declaration(),
	}
	if m.FormalTypeParameters != "" {
		out.TypeParameters = typeinfo.Render(m.FormalTypeParameters, m.TypeParameterMap)
	}
	if m.Kind != reflector.KindConstructor {
		out.Type = m.ReturnTypeString()
	}
	types := m.ParameterTypes()
	for i, p := range m.Parameters {
		out.Parameters = append(out.Parameters, jsonParameter{Name: p.Name, Type: types[i]})
	}
	for _, ex := range m.Exceptions {
		out.Exceptions = append(out.Exceptions, typeinfo.Render(ex, m.TypeParameterMap))
	}
	return out
}
