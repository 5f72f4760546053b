package classfile

import "strings"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []MemberInfo
	Methods      []MemberInfo
	Attributes   []AttributeInfo
}

// ClassName returns the internal (slash separated) name of the class.
func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface()
}

func (cf *ClassFile) IsAnnotation() bool {
	return cf.AccessFlags.IsAnnotation()
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return findAttribute(cf.Attributes, name)
}

// Signature returns the generic class signature or "" when the class
// carries none.
func (cf *ClassFile) Signature() string {
	return signatureOf(cf.Attributes, cf.ConstantPool)
}

// VisibleAnnotations returns the descriptors of the runtime-visible
// annotations on the class, e.g. "Ljava/lang/FunctionalInterface;".
func (cf *ClassFile) VisibleAnnotations() []string {
	attr := cf.GetAttribute(AttrRuntimeVisibleAnnotations)
	if attr == nil || attr.AsRuntimeVisibleAnnotations() == nil {
		return nil
	}
	anns := attr.AsRuntimeVisibleAnnotations().Annotations
	out := make([]string, 0, len(anns))
	for _, a := range anns {
		out = append(out, cf.ConstantPool.GetUtf8(a.TypeIndex))
	}
	return out
}

// InnerClassNames lists the internal names of member classes declared
// directly inside this class.
func (cf *ClassFile) InnerClassNames() []string {
	attr := cf.GetAttribute(AttrInnerClasses)
	if attr == nil || attr.AsInnerClasses() == nil {
		return nil
	}
	self := cf.ClassName()
	var out []string
	for _, e := range attr.AsInnerClasses().Classes {
		if cf.ConstantPool.GetClassName(e.OuterClassInfoIndex) != self {
			continue
		}
		out = append(out, cf.ConstantPool.GetClassName(e.InnerClassInfoIndex))
	}
	return out
}

func (cf *ClassFile) Member(m *MemberInfo) Member {
	return Member{info: m, cp: cf.ConstantPool}
}

func findAttribute(attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

func signatureOf(attrs []AttributeInfo, cp ConstantPool) string {
	attr := findAttribute(attrs, AttrSignature)
	if attr == nil || attr.AsSignature() == nil {
		return ""
	}
	return cp.GetUtf8(attr.AsSignature().SignatureIndex)
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
