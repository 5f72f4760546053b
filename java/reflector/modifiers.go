package reflector

import (
	"strings"

	"github.com/dhamidi/jreflect/classfile"
)

var modifierOrder = []struct {
	flag classfile.AccessFlags
	word string
}{
	{classfile.AccPrivate, "private"},
	{classfile.AccPublic, "public"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccFinal, "final"},
	{classfile.AccInterface, "interface"},
	{classfile.AccNative, "native"},
	{classfile.AccStrict, "strict"},
}

// methodModifiers renders method flags in source order. Interface methods
// never print abstract; an interface method with a body is a default method.
func methodModifiers(flags classfile.AccessFlags, inInterface, hasBody bool) string {
	words := modifierWords(flags, inInterface)
	if flags.IsSynchronized() {
		words = append(words, "synchronized")
	}
	if inInterface && hasBody && !flags.IsStatic() && !flags.IsPrivate() {
		words = append(words, "default")
	}
	return strings.Join(words, " ")
}

// fieldModifiers leaves out volatile and transient.
func fieldModifiers(flags classfile.AccessFlags) string {
	return strings.Join(modifierWords(flags, false), " ")
}

func modifierWords(flags classfile.AccessFlags, inInterface bool) []string {
	var words []string
	for _, m := range modifierOrder {
		if !flags.Has(m.flag) {
			continue
		}
		if m.flag == classfile.AccAbstract && inInterface {
			continue
		}
		words = append(words, m.word)
	}
	return words
}
