package signature

import (
	"fmt"
	"strings"
)

type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("signature %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

type parser struct {
	s   string
	pos int
}

func (p *parser) fail(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.s, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		if p.pos >= len(p.s) {
			return p.fail("expected %q, got end of input", c)
		}
		return p.fail("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) done() error {
	if p.pos != len(p.s) {
		return p.fail("trailing input %q", p.s[p.pos:])
	}
	return nil
}

func ParseClassSignature(s string) (*ClassSignature, error) {
	p := &parser{s: s}
	sig := &ClassSignature{}
	var err error
	if sig.TypeParams, err = p.typeParameters(); err != nil {
		return nil, err
	}
	if sig.Super, err = p.classType(); err != nil {
		return nil, err
	}
	for p.pos < len(p.s) {
		iface, err := p.classType()
		if err != nil {
			return nil, err
		}
		sig.Interfaces = append(sig.Interfaces, iface)
	}
	return sig, nil
}

// ParseMethodSignature parses a method signature or a plain method
// descriptor.
func ParseMethodSignature(s string) (*MethodSignature, error) {
	p := &parser{s: s}
	sig := &MethodSignature{}
	var err error
	if sig.TypeParams, err = p.typeParameters(); err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		if p.pos >= len(p.s) {
			return nil, p.fail("unterminated parameter list")
		}
		t, err := p.javaType()
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, t)
	}
	p.pos++
	if p.peek() == 'V' {
		p.pos++
	} else if sig.Return, err = p.javaType(); err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		var t Type
		if p.peek() == 'T' {
			t, err = p.typeVariable()
		} else {
			t, err = p.classType()
		}
		if err != nil {
			return nil, err
		}
		sig.Throws = append(sig.Throws, t)
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return sig, nil
}

// ParseFieldSignature parses a field signature or a field descriptor.
func ParseFieldSignature(s string) (Type, error) {
	p := &parser{s: s}
	t, err := p.javaType()
	if err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *parser) typeParameters() ([]TypeParameter, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.pos++
	var params []TypeParameter
	for p.peek() != '>' {
		tp, err := p.typeParameter()
		if err != nil {
			return nil, err
		}
		params = append(params, tp)
	}
	p.pos++
	if len(params) == 0 {
		return nil, p.fail("empty type parameter list")
	}
	return params, nil
}

func (p *parser) typeParameter() (TypeParameter, error) {
	end := strings.IndexByte(p.s[p.pos:], ':')
	if end <= 0 {
		return TypeParameter{}, p.fail("expected type parameter name")
	}
	tp := TypeParameter{Name: p.s[p.pos : p.pos+end]}
	p.pos += end + 1
	if c := p.peek(); c != ':' && c != '>' && c != 0 {
		bound, err := p.referenceType()
		if err != nil {
			return tp, err
		}
		tp.ClassBound = bound
	}
	for p.peek() == ':' {
		p.pos++
		bound, err := p.referenceType()
		if err != nil {
			return tp, err
		}
		tp.InterfaceBounds = append(tp.InterfaceBounds, bound)
	}
	return tp, nil
}

func (p *parser) javaType() (Type, error) {
	c := p.peek()
	if _, ok := baseTypeNames[c]; ok && c != 'V' {
		p.pos++
		return &BaseType{Code: c}, nil
	}
	return p.referenceType()
}

func (p *parser) referenceType() (Type, error) {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		return p.typeVariable()
	case '[':
		p.pos++
		elem, err := p.javaType()
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem}, nil
	case 0:
		return nil, p.fail("expected type, got end of input")
	default:
		return nil, p.fail("unexpected %q", p.peek())
	}
}

func (p *parser) typeVariable() (*TypeVariable, error) {
	if err := p.expect('T'); err != nil {
		return nil, err
	}
	end := strings.IndexByte(p.s[p.pos:], ';')
	if end <= 0 {
		return nil, p.fail("unterminated type variable")
	}
	tv := &TypeVariable{Name: p.s[p.pos : p.pos+end]}
	p.pos += end + 1
	return tv, nil
}

func (p *parser) classType() (*ClassType, error) {
	if err := p.expect('L'); err != nil {
		return nil, err
	}
	ct := &ClassType{}
	for {
		start := p.pos
		for p.pos < len(p.s) && !strings.ContainsRune("<.;", rune(p.s[p.pos])) {
			p.pos++
		}
		if start == p.pos {
			return nil, p.fail("expected class name")
		}
		seg := ClassSegment{Name: p.s[start:p.pos]}
		if p.peek() == '<' {
			args, err := p.typeArguments()
			if err != nil {
				return nil, err
			}
			seg.Args = args
		}
		ct.Segments = append(ct.Segments, seg)
		switch p.peek() {
		case '.':
			p.pos++
		case ';':
			p.pos++
			return ct, nil
		default:
			return nil, p.fail("unterminated class type")
		}
	}
}

func (p *parser) typeArguments() ([]TypeArgument, error) {
	p.pos++
	var args []TypeArgument
	for p.peek() != '>' {
		switch w := Wildcard(p.peek()); w {
		case WildcardAny:
			p.pos++
			args = append(args, TypeArgument{Wildcard: WildcardAny})
		case WildcardExtends, WildcardSuper:
			p.pos++
			t, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, TypeArgument{Wildcard: w, Type: t})
		default:
			t, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, TypeArgument{Type: t})
		}
	}
	p.pos++
	if len(args) == 0 {
		return nil, p.fail("empty type argument list")
	}
	return args, nil
}
