package classfile

// MemberInfo is the common shape of field_info and method_info.
type MemberInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// LocalVariable is a resolved LocalVariableTable entry.
type LocalVariable struct {
	Name       string
	Descriptor string
	Slot       uint16
}

// Member binds a MemberInfo to the constant pool it indexes into.
type Member struct {
	info *MemberInfo
	cp   ConstantPool
}

func (m Member) Flags() AccessFlags { return m.info.AccessFlags }

func (m Member) Name() string { return m.cp.GetUtf8(m.info.NameIndex) }

func (m Member) Descriptor() string { return m.cp.GetUtf8(m.info.DescriptorIndex) }

func (m Member) Signature() string { return signatureOf(m.info.Attributes, m.cp) }

func (m Member) GetAttribute(name string) *AttributeInfo {
	return findAttribute(m.info.Attributes, name)
}

func (m Member) IsConstructor() bool { return m.Name() == "<init>" }

func (m Member) IsStaticInitializer() bool { return m.Name() == "<clinit>" }

func (m Member) HasCode() bool {
	attr := m.GetAttribute(AttrCode)
	return attr != nil && attr.AsCode() != nil
}

// Exceptions returns the internal names from the Exceptions attribute.
func (m Member) Exceptions() []string {
	attr := m.GetAttribute(AttrExceptions)
	if attr == nil || attr.AsExceptions() == nil {
		return nil
	}
	idx := attr.AsExceptions().ExceptionIndexTable
	out := make([]string, len(idx))
	for i, ix := range idx {
		out[i] = m.cp.GetClassName(ix)
	}
	return out
}

// ParameterNames returns names from the MethodParameters attribute. Entries
// without a name are returned as "".
func (m Member) ParameterNames() []string {
	attr := m.GetAttribute(AttrMethodParameters)
	if attr == nil || attr.AsMethodParameters() == nil {
		return nil
	}
	params := attr.AsMethodParameters().Parameters
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = m.cp.GetUtf8(p.NameIndex)
	}
	return out
}

// LocalVariables returns the LocalVariableTable nested in the Code attribute.
func (m Member) LocalVariables() []LocalVariable {
	attr := m.GetAttribute(AttrCode)
	if attr == nil || attr.AsCode() == nil {
		return nil
	}
	var out []LocalVariable
	for i := range attr.AsCode().Attributes {
		lvt := attr.AsCode().Attributes[i].AsLocalVariableTable()
		if lvt == nil {
			continue
		}
		for _, e := range lvt.LocalVariableTable {
			out = append(out, LocalVariable{
				Name:       m.cp.GetUtf8(e.NameIndex),
				Descriptor: m.cp.GetUtf8(e.DescriptorIndex),
				Slot:       e.Index,
			})
		}
	}
	return out
}
