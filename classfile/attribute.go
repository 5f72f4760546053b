package classfile

type AttributeInfo struct {
	Name   string
	Info   []byte
	Parsed interface{}
}

type CodeAttribute struct {
	MaxStack   uint16
	MaxLocals  uint16
	Attributes []AttributeInfo
}

type LocalVariableTableAttribute struct {
	LocalVariableTable []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

type SignatureAttribute struct {
	SignatureIndex uint16
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

// Annotation keeps only the annotation type. Element values are skipped.
type Annotation struct {
	TypeIndex uint16
}

type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	v, _ := a.Parsed.(*CodeAttribute)
	return v
}

func (a *AttributeInfo) AsLocalVariableTable() *LocalVariableTableAttribute {
	v, _ := a.Parsed.(*LocalVariableTableAttribute)
	return v
}

func (a *AttributeInfo) AsExceptions() *ExceptionsAttribute {
	v, _ := a.Parsed.(*ExceptionsAttribute)
	return v
}

func (a *AttributeInfo) AsInnerClasses() *InnerClassesAttribute {
	v, _ := a.Parsed.(*InnerClassesAttribute)
	return v
}

func (a *AttributeInfo) AsSignature() *SignatureAttribute {
	v, _ := a.Parsed.(*SignatureAttribute)
	return v
}

func (a *AttributeInfo) AsMethodParameters() *MethodParametersAttribute {
	v, _ := a.Parsed.(*MethodParametersAttribute)
	return v
}

func (a *AttributeInfo) AsRuntimeVisibleAnnotations() *RuntimeVisibleAnnotationsAttribute {
	v, _ := a.Parsed.(*RuntimeVisibleAnnotationsAttribute)
	return v
}

// decodeAttribute returns nil for attributes it does not know or cannot
// decode; the raw bytes stay available in AttributeInfo.Info.
func decodeAttribute(name string, info []byte, cp ConstantPool) interface{} {
	r := newBytesReader(info)
	var v interface{}
	switch name {
	case AttrCode:
		v = parseCodeAttribute(r, cp)
	case AttrLocalVariableTable:
		v = parseLocalVariableTableAttribute(r)
	case AttrExceptions:
		v = &ExceptionsAttribute{ExceptionIndexTable: r.readU2s()}
	case AttrInnerClasses:
		v = parseInnerClassesAttribute(r)
	case AttrSignature:
		v = &SignatureAttribute{SignatureIndex: r.readU2()}
	case AttrMethodParameters:
		v = parseMethodParametersAttribute(r)
	case AttrRuntimeVisibleAnnotations:
		v = parseRuntimeVisibleAnnotationsAttribute(r)
	default:
		return nil
	}
	if r.err != nil {
		return nil
	}
	return v
}

func parseCodeAttribute(r *reader, cp ConstantPool) *CodeAttribute {
	code := &CodeAttribute{
		MaxStack:  r.readU2(),
		MaxLocals: r.readU2(),
	}
	r.readBytes(r.readU4())
	exceptionTableLength := r.readU2()
	r.readBytes(uint32(exceptionTableLength) * 8)
	if r.err != nil {
		return nil
	}
	attrs, err := readAttributes(r, cp)
	if err != nil {
		r.err = err
		return nil
	}
	code.Attributes = attrs
	return code
}

func parseLocalVariableTableAttribute(r *reader) *LocalVariableTableAttribute {
	count := r.readU2()
	lvt := &LocalVariableTableAttribute{
		LocalVariableTable: make([]LocalVariableEntry, 0, count),
	}
	for i := uint16(0); i < count && r.err == nil; i++ {
		lvt.LocalVariableTable = append(lvt.LocalVariableTable, LocalVariableEntry{
			StartPC:         r.readU2(),
			Length:          r.readU2(),
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
			Index:           r.readU2(),
		})
	}
	return lvt
}

func parseInnerClassesAttribute(r *reader) *InnerClassesAttribute {
	count := r.readU2()
	ic := &InnerClassesAttribute{
		Classes: make([]InnerClassEntry, 0, count),
	}
	for i := uint16(0); i < count && r.err == nil; i++ {
		ic.Classes = append(ic.Classes, InnerClassEntry{
			InnerClassInfoIndex:   r.readU2(),
			OuterClassInfoIndex:   r.readU2(),
			InnerNameIndex:        r.readU2(),
			InnerClassAccessFlags: AccessFlags(r.readU2()),
		})
	}
	return ic
}

func parseMethodParametersAttribute(r *reader) *MethodParametersAttribute {
	count := r.readU1()
	mp := &MethodParametersAttribute{
		Parameters: make([]MethodParameter, 0, count),
	}
	for i := uint8(0); i < count && r.err == nil; i++ {
		mp.Parameters = append(mp.Parameters, MethodParameter{
			NameIndex:   r.readU2(),
			AccessFlags: AccessFlags(r.readU2()),
		})
	}
	return mp
}

func parseRuntimeVisibleAnnotationsAttribute(r *reader) *RuntimeVisibleAnnotationsAttribute {
	count := r.readU2()
	rva := &RuntimeVisibleAnnotationsAttribute{
		Annotations: make([]Annotation, 0, count),
	}
	for i := uint16(0); i < count && r.err == nil; i++ {
		rva.Annotations = append(rva.Annotations, skipAnnotation(r))
	}
	return rva
}

func skipAnnotation(r *reader) Annotation {
	ann := Annotation{TypeIndex: r.readU2()}
	pairs := r.readU2()
	for i := uint16(0); i < pairs && r.err == nil; i++ {
		r.readU2()
		skipElementValue(r)
	}
	return ann
}

func skipElementValue(r *reader) {
	switch tag := r.readU1(); tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		r.readU2()
	case 'e':
		r.readU2()
		r.readU2()
	case '@':
		skipAnnotation(r)
	case '[':
		n := r.readU2()
		for i := uint16(0); i < n && r.err == nil; i++ {
			skipElementValue(r)
		}
	default:
		if r.err == nil {
			r.err = errUnknownElementTag(tag)
		}
	}
}

type errUnknownElementTag byte

func (e errUnknownElementTag) Error() string {
	return "unknown element value tag: " + string(rune(e))
}
