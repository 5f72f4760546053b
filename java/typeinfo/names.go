package typeinfo

import (
	"fmt"
	"strings"
)

const (
	// ClassVarMark tags a type variable owned by the declaring class. Such
	// placeholders are rewritten when the class is seen through a
	// parameterized reference.
	ClassVarMark = "%%"
	// FormalVarMark tags a type variable declared by the method itself.
	FormalVarMark = "##"

	ObjectClass = "java.lang.Object"
)

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

func isNameByte(c byte) bool {
	return isIdentByte(c) || c == '.' || c == '%' || c == '#' || c == '/'
}

// Parse reads the textual grammar Name<Arg, ...>[]... including wildcard
// prefixes and member-class suffixes ("Outer<A>$Inner<B>").
func Parse(s string) (*TypeInfo, error) {
	p := &textParser{s: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("unexpected %q at offset %d in %q", p.s[p.pos:], p.pos, s)
	}
	return t, nil
}

type textParser struct {
	s   string
	pos int
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *textParser) consume(prefix string) bool {
	if strings.HasPrefix(p.s[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *textParser) parseType() (*TypeInfo, error) {
	p.skipSpace()
	var wildcard string
	if p.consume("?") {
		switch {
		case p.consume(" extends "):
			wildcard = "? extends "
		case p.consume(" super "):
			wildcard = "? super "
		default:
			return &TypeInfo{Name: "?"}, nil
		}
		p.skipSpace()
	}

	seg, err := p.parseSegment()
	if err != nil {
		return nil, err
	}
	seg.Name = wildcard + seg.Name
	tail := seg
	for p.pos < len(p.s) && p.s[p.pos] == '$' && len(tail.Args) > 0 {
		p.pos++
		in, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		tail.Inner = in
		tail = in
	}
	for p.consume("[]") {
		seg.ArrayDims++
	}
	if p.consume("...") {
		seg.Varargs = true
	}
	return seg, nil
}

func (p *textParser) parseSegment() (*TypeInfo, error) {
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		if strings.HasPrefix(p.s[p.pos:], "..") {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected type name at offset %d in %q", p.pos, p.s)
	}
	t := &TypeInfo{Name: p.s[start:p.pos]}
	if !p.consume("<") {
		return t, nil
	}
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		t.Args = append(t.Args, arg)
		p.skipSpace()
		if p.consume(">") {
			return t, nil
		}
		if !p.consume(",") {
			return nil, fmt.Errorf("expected ',' or '>' at offset %d in %q", p.pos, p.s)
		}
	}
}

// TypeArguments returns the rendered type arguments of name. For a
// member-class spelling the arguments of the innermost segment are returned.
// A name without arguments, or one that does not parse, yields nil.
func TypeArguments(name string) []string {
	t, err := Parse(name)
	if err != nil {
		return nil
	}
	for t.Inner != nil {
		t = t.Inner
	}
	out := make([]string, len(t.Args))
	for i, a := range t.Args {
		out[i] = a.TypeString()
	}
	return out
}

// Bare strips every <...> group from name.
func Bare(name string) string {
	if strings.IndexByte(name, '<') < 0 {
		return strings.TrimSpace(name)
	}
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '<':
			depth++
		case '>':
			depth--
		default:
			if depth == 0 {
				sb.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// InnerVariants lists the binary-name spellings of a dotted name whose
// trailing segments may be member classes, nearest nesting first:
// "a.Outer.Mid.In" yields "a.Outer.Mid$In" then "a.Outer$Mid$In".
func InnerVariants(name string) []string {
	var out []string
	cur := name
	for {
		i := strings.LastIndexByte(cur, '.')
		if i < 0 || i+1 >= len(cur) {
			return out
		}
		next := cur[i+1]
		if next < 'A' || next > 'Z' {
			return out
		}
		prev := strings.LastIndexByte(cur[:i], '.')
		if prev >= 0 && (cur[prev+1] < 'A' || cur[prev+1] > 'Z') {
			// the segment before the dot is a package, not a class
			return out
		}
		if prev < 0 && (cur[0] < 'A' || cur[0] > 'Z') {
			return out
		}
		cur = cur[:i] + "$" + cur[i+1:]
		out = append(out, cur)
	}
}

// SourceName renders a binary name with '.' for member classes.
func SourceName(name string) string {
	return strings.ReplaceAll(name, "$", ".")
}

// SimpleName returns the last segment of a dotted or member-class name.
func SimpleName(name string) string {
	name = Bare(name)
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// PackageName returns the package portion of a dotted class name.
func PackageName(name string) string {
	name = Bare(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

// ClassVariables returns the distinct class-owned placeholders referenced in
// s, in order of first appearance, without the mark.
func ClassVariables(s string) []string {
	var out []string
	seen := map[string]bool{}
	scanMarked(s, ClassVarMark, func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

// Substitute rewrites every %%V in s with m[V] in a single pass, so a
// replacement value is never rewritten again. Unbound placeholders stay.
func Substitute(s string, m map[string]string) string {
	if len(m) == 0 || !strings.Contains(s, ClassVarMark) {
		return s
	}
	return replaceMarked(s, ClassVarMark, func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	})
}

// ReplaceVariable rewrites the complete placeholder from (including its
// mark) with to. "%%T" does not match inside "%%TT".
func ReplaceVariable(s, from, to string) string {
	mark := from[:2]
	want := from[2:]
	return replaceMarked(s, mark, func(name string) (string, bool) {
		if name == want {
			return to, true
		}
		return "", false
	})
}

// Render produces the display form of a placeholder-tagged string: bound
// class variables take their binding, unbound ones erase to
// java.lang.Object, and method formals lose their mark.
func Render(s string, bindings map[string]string) string {
	if !strings.Contains(s, ClassVarMark) && !strings.Contains(s, FormalVarMark) {
		return s
	}
	s = replaceMarked(s, ClassVarMark, func(name string) (string, bool) {
		if v, ok := bindings[name]; ok {
			return Render(v, nil), true
		}
		return ObjectClass, true
	})
	return strings.ReplaceAll(s, FormalVarMark, "")
}

// StripMarks drops placeholder marks and leaves the variable names, for
// showing declarations rather than uses.
func StripMarks(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, ClassVarMark, ""), FormalVarMark, "")
}

// Bindings aligns formal type parameters with actual arguments positionally.
// Extra actuals are ignored, missing ones stay unbound, and an actual that
// is the formal's own placeholder is skipped.
func Bindings(formals, actuals []string) map[string]string {
	m := make(map[string]string, len(formals))
	for i, f := range formals {
		if i >= len(actuals) {
			break
		}
		a := strings.TrimSpace(actuals[i])
		if a == "" || a == ClassVarMark+f {
			continue
		}
		m[f] = a
	}
	return m
}

func scanMarked(s, mark string, fn func(name string)) {
	replaceMarked(s, mark, func(name string) (string, bool) {
		fn(name)
		return "", false
	})
}

func replaceMarked(s, mark string, fn func(name string) (string, bool)) string {
	var sb strings.Builder
	i := 0
	for i < len(s) {
		j := strings.Index(s[i:], mark)
		if j < 0 {
			sb.WriteString(s[i:])
			break
		}
		j += i
		k := j + len(mark)
		for k < len(s) && isIdentByte(s[k]) {
			k++
		}
		sb.WriteString(s[i:j])
		if v, ok := fn(s[j+len(mark) : k]); ok && k > j+len(mark) {
			sb.WriteString(v)
		} else {
			sb.WriteString(s[j:k])
		}
		i = k
	}
	return sb.String()
}
