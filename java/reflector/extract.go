package reflector

import (
	"fmt"
	"strings"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/java/signature"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

type Options struct {
	IncludePrivate bool
}

// Members extracts the full-mode members of one class: fields first, then
// methods and constructors, in class-file order. Every class-owned type
// variable is tagged %% so callers can substitute it later. Members with a
// malformed signature are logged and skipped.
func Members(cf *classfile.ClassFile, opts Options) []*MemberDescriptor {
	className := classfile.InternalToSourceName(cf.ClassName())

	var scope signature.Scope
	if sig := cf.Signature(); sig != "" {
		parsed, err := signature.ParseClassSignature(sig)
		if err != nil {
			log.Warningf("%s: ignoring class signature: %s", className, err)
		} else {
			for _, tp := range parsed.TypeParams {
				scope.ClassParams = append(scope.ClassParams, tp.Name)
			}
		}
	}

	var out []*MemberDescriptor
	for i := range cf.Fields {
		f := cf.Member(&cf.Fields[i])
		d, err := fieldDescriptor(className, f, scope, opts)
		if err != nil {
			log.Warningf("%s: skipping field %s: %s", className, f.Name(), err)
			continue
		}
		if d != nil {
			out = append(out, d)
		}
	}
	for i := range cf.Methods {
		m := cf.Member(&cf.Methods[i])
		d, err := methodDescriptor(cf, className, m, scope, opts)
		if err != nil {
			log.Warningf("%s: skipping method %s: %s", className, m.Name(), err)
			continue
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

func fieldDescriptor(className string, f classfile.Member, scope signature.Scope, opts Options) (*MemberDescriptor, error) {
	name := f.Name()
	flags := f.Flags()
	if strings.HasPrefix(name, "$") || flags.IsSynthetic() {
		return nil, nil
	}
	if flags.IsPrivate() && !opts.IncludePrivate {
		return nil, nil
	}

	text := f.Signature()
	if text == "" {
		text = f.Descriptor()
	}
	t, err := signature.ParseFieldSignature(text)
	if err != nil {
		return nil, err
	}
	ti, refs := scope.Field(t)
	return &MemberDescriptor{
		DeclaringClass: className,
		Name:           name,
		Kind:           KindField,
		Modifiers:      fieldModifiers(flags),
		ReturnType:     ti.String(),
		TypeParameters: refs.Class,
	}, nil
}

func methodDescriptor(cf *classfile.ClassFile, className string, m classfile.Member, scope signature.Scope, opts Options) (*MemberDescriptor, error) {
	name := m.Name()
	flags := m.Flags()
	switch {
	case m.IsStaticInitializer(), strings.Contains(name, "$"), flags.IsSynthetic(), flags.IsBridge():
		return nil, nil
	case flags.IsPrivate() && !opts.IncludePrivate:
		return nil, nil
	case m.IsConstructor() && className == typeinfo.ObjectClass:
		return nil, nil
	}

	desc, err := signature.ParseMethodSignature(m.Descriptor())
	if err != nil {
		return nil, err
	}
	sig := desc
	generic := m.Signature() != ""
	if generic {
		if sig, err = signature.ParseMethodSignature(m.Signature()); err != nil {
			return nil, err
		}
	}
	info := scope.Method(sig)

	names := parameterNames(m, desc, len(info.Params))
	params := make([]Parameter, len(info.Params))
	for i, p := range info.Params {
		if flags.IsVarargs() && i == len(info.Params)-1 && p.IsArray() {
			p = p.WithVarargs()
		}
		params[i] = Parameter{Type: p.TypeString(), Name: names[i]}
	}

	d := &MemberDescriptor{
		DeclaringClass:       className,
		Name:                 name,
		Kind:                 KindMethod,
		Parameters:           params,
		TypeParameters:       info.Refs.Class,
		FormalTypeParameters: info.FormalTypeParameters,
	}

	hasBody := m.HasCode()
	d.Modifiers = methodModifiers(flags, cf.IsInterface(), hasBody)
	d.HasDefault = cf.IsInterface() && hasBody && !flags.IsStatic() && !flags.IsPrivate()

	switch {
	case m.IsConstructor():
		d.Kind = KindConstructor
		d.Name = className
		d.ReturnType = className
	case info.Return == nil:
		d.ReturnType = "void"
	default:
		d.ReturnType = info.Return.String()
	}

	if generic && len(info.Throws) > 0 {
		d.Exceptions = info.Throws
	} else {
		for _, e := range m.Exceptions() {
			d.Exceptions = append(d.Exceptions, classfile.InternalToSourceName(e))
		}
	}
	return d, nil
}

// parameterNames resolves n parameter names, preferring MethodParameters,
// then the LocalVariableTable, then argN. A generic signature may omit
// leading synthetic parameters present in the descriptor, so names are taken
// from the tail of the descriptor's parameter list.
func parameterNames(m classfile.Member, desc *signature.MethodSignature, n int) []string {
	names := make([]string, n)
	offset := len(desc.Params) - n
	if offset < 0 {
		offset = 0
	}

	if mp := m.ParameterNames(); len(mp) == len(desc.Params) {
		for i := range names {
			names[i] = mp[offset+i]
		}
	}

	if locals := m.LocalVariables(); len(locals) > 0 && hasEmpty(names) {
		bySlot := make(map[uint16]string, len(locals))
		for _, l := range locals {
			if _, dup := bySlot[l.Slot]; !dup {
				bySlot[l.Slot] = l.Name
			}
		}
		var slot uint16
		if !m.Flags().IsStatic() {
			slot = 1
		}
		for i, p := range desc.Params {
			if j := i - offset; j >= 0 && j < n && names[j] == "" {
				names[j] = bySlot[slot]
			}
			slot++
			if signature.IsWide(p) {
				slot++
			}
		}
	}

	for i := range names {
		if names[i] == "" {
			names[i] = fmt.Sprintf("arg%d", i)
		}
	}
	return names
}

func hasEmpty(names []string) bool {
	for _, n := range names {
		if n == "" {
			return true
		}
	}
	return false
}
