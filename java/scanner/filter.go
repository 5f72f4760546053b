package scanner

import (
	"path"
	"strings"
)

// DenyPrefixes are JDK-internal and legacy vendor packages that are never
// indexed unless explicitly allowed.
var DenyPrefixes = []string{
	"sun.",
	"com.sun",
	"com.oracle",
	"oracle.jrockit",
	"jdk",
	"org.omg",
	"org.ietf.",
	"org.jcp.",
	"netscape",
}

// Filter decides which classes are indexed. An Allow prefix always wins over
// the deny list.
type Filter struct {
	Allow []string
}

// AcceptEntry reports whether an entry name such as "java/util/List.class"
// should be parsed at all. Package and module descriptors never are.
func (f Filter) AcceptEntry(name string) bool {
	base := strings.TrimSuffix(path.Base(name), ".class")
	return base != "package-info" && base != "module-info"
}

// AcceptClass reports whether the dotted class name passes the policy.
func (f Filter) AcceptClass(name string) bool {
	for _, p := range f.Allow {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, p := range DenyPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return true
}
