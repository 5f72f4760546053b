package reflector

import (
	"strings"

	"github.com/dhamidi/jreflect/java/typeinfo"
)

type MemberKind int

const (
	KindMethod MemberKind = iota
	KindConstructor
	KindField
)

func (k MemberKind) String() string {
	switch k {
	case KindConstructor:
		return "CONSTRUCTOR"
	case KindField:
		return "FIELD"
	default:
		return "METHOD"
	}
}

type Parameter struct {
	// Type is placeholder-tagged.
	Type string
	Name string
}

// MemberDescriptor is one method, constructor or field. Type strings keep
// their %% and ## placeholders; rendering resolves them through
// TypeParameterMap.
type MemberDescriptor struct {
	DeclaringClass string
	Name           string
	Kind           MemberKind
	Modifiers      string
	// ReturnType is the field type for fields and the class name for
	// constructors.
	ReturnType string
	Parameters []Parameter
	// TypeParameters names the class-owned variables the member references.
	TypeParameters []string
	// FormalTypeParameters is the method's own "<T extends X>" declaration.
	FormalTypeParameters string
	Exceptions           []string
	HasDefault           bool
	TypeParameterMap     map[string]string
}

// Key is the merge identity: "name::[types]" for methods and constructors,
// the bare name for fields.
func (m *MemberDescriptor) Key() string {
	if m.Kind == KindField {
		return m.Name
	}
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = typeinfo.Bare(p.Type)
	}
	return m.Name + "::[" + strings.Join(types, ", ") + "]"
}

func (m *MemberDescriptor) IsStatic() bool { return hasModifier(m.Modifiers, "static") }

func (m *MemberDescriptor) IsPublic() bool { return hasModifier(m.Modifiers, "public") }

func (m *MemberDescriptor) render(s string) string {
	return typeinfo.Render(s, m.TypeParameterMap)
}

// ReturnTypeString renders the return type with placeholders resolved.
func (m *MemberDescriptor) ReturnTypeString() string { return m.render(m.ReturnType) }

// ParameterTypes renders the parameter types with placeholders resolved.
func (m *MemberDescriptor) ParameterTypes() []string {
	out := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		out[i] = m.render(p.Type)
	}
	return out
}

// Declaration renders the member the way it would be written in source,
// with member classes spelled with '.'.
func (m *MemberDescriptor) Declaration() string {
	var parts []string
	if m.Modifiers != "" {
		parts = append(parts, m.Modifiers)
	}
	switch m.Kind {
	case KindField:
		parts = append(parts, m.ReturnTypeString(), m.Name)
		return typeinfo.SourceName(strings.Join(parts, " "))
	case KindConstructor:
		parts = append(parts, m.Name+m.parameterList())
	default:
		if m.FormalTypeParameters != "" {
			parts = append(parts, m.render(m.FormalTypeParameters))
		}
		parts = append(parts, m.ReturnTypeString(), m.Name+m.parameterList())
	}
	if len(m.Exceptions) > 0 {
		ex := make([]string, len(m.Exceptions))
		for i, e := range m.Exceptions {
			ex[i] = m.render(e)
		}
		parts = append(parts, "throws "+strings.Join(ex, ", "))
	}
	return typeinfo.SourceName(strings.Join(parts, " "))
}

func (m *MemberDescriptor) parameterList() string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = strings.TrimSpace(m.render(p.Type) + " " + p.Name)
	}
	return "(" + strings.Join(params, ", ") + ")"
}

func (m *MemberDescriptor) Clone() *MemberDescriptor {
	c := *m
	c.Parameters = append([]Parameter(nil), m.Parameters...)
	c.TypeParameters = append([]string(nil), m.TypeParameters...)
	c.Exceptions = append([]string(nil), m.Exceptions...)
	c.TypeParameterMap = nil
	for k, v := range m.TypeParameterMap {
		if c.TypeParameterMap == nil {
			c.TypeParameterMap = make(map[string]string, len(m.TypeParameterMap))
		}
		c.TypeParameterMap[k] = v
	}
	return &c
}

// Bind records actual type arguments for the class-owned variables this
// member references. Names the member does not reference are ignored.
func (m *MemberDescriptor) Bind(bindings map[string]string) {
	for k, v := range bindings {
		if !containsName(m.TypeParameters, k) {
			continue
		}
		if m.TypeParameterMap == nil {
			m.TypeParameterMap = make(map[string]string)
		}
		m.TypeParameterMap[k] = v
	}
}

// Substitute rewrites the member's class-owned placeholders in place. It is
// used when a member is seen from a subclass: "%%T" becomes whatever the
// subclass passed for T, which may itself be one of the subclass's own
// placeholders.
func (m *MemberDescriptor) Substitute(sub map[string]string) {
	if len(sub) == 0 {
		return
	}
	m.ReturnType = typeinfo.Substitute(m.ReturnType, sub)
	for i := range m.Parameters {
		m.Parameters[i].Type = typeinfo.Substitute(m.Parameters[i].Type, sub)
	}
	for i := range m.Exceptions {
		m.Exceptions[i] = typeinfo.Substitute(m.Exceptions[i], sub)
	}
	m.FormalTypeParameters = typeinfo.Substitute(m.FormalTypeParameters, sub)
	m.TypeParameters = m.classVariables()
}

func (m *MemberDescriptor) classVariables() []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		for _, v := range typeinfo.ClassVariables(s) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	add(m.ReturnType)
	for _, p := range m.Parameters {
		add(p.Type)
	}
	for _, e := range m.Exceptions {
		add(e)
	}
	add(m.FormalTypeParameters)
	return out
}

func hasModifier(modifiers, word string) bool {
	for _, f := range strings.Fields(modifiers) {
		if f == word {
			return true
		}
	}
	return false
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
