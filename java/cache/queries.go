package cache

import (
	"sort"
	"strings"

	"github.com/dhamidi/jreflect/java/reflector"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

// sortedClasses returns the current index ordered by name.
func (c *Cache) sortedClasses() []*reflector.ClassIndex {
	table := c.table()
	out := make([]*reflector.ClassIndex, 0, len(table))
	for _, ci := range table {
		out = append(out, ci)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PackageClasses maps simple names to FQCNs for the top-level classes of
// pkg. A trailing ".*" is accepted.
func (c *Cache) PackageClasses(pkg string) map[string]string {
	pkg = strings.TrimSuffix(pkg, ".*")
	out := make(map[string]string)
	for _, ci := range c.table() {
		if strings.Contains(ci.Name, "$") || ci.Package() != pkg {
			continue
		}
		out[ci.SimpleName()] = ci.Name
	}
	return out
}

// InnerClasses lists the member classes directly or transitively nested in
// parent.
func (c *Cache) InnerClasses(parent string) []*reflector.ClassIndex {
	prefix := typeinfo.Bare(parent) + "$"
	var out []*reflector.ClassIndex
	for _, ci := range c.sortedClasses() {
		if strings.HasPrefix(ci.Name, prefix) && !isAnonymous(ci.Name) {
			out = append(out, ci.Clone())
		}
	}
	return out
}

// SearchClasses finds classes whose simple name, member-class suffix or
// FQCN equals keyword.
func (c *Cache) SearchClasses(keyword string, includeAnnotations bool) []*reflector.ClassIndex {
	var out []*reflector.ClassIndex
	for _, ci := range c.sortedClasses() {
		if ci.Annotation && !includeAnnotations {
			continue
		}
		if isAnonymous(ci.Name) {
			continue
		}
		if ci.SimpleName() == keyword || strings.HasSuffix(ci.Name, "$"+keyword) || ci.Name == keyword {
			out = append(out, ci.Clone())
		}
	}
	return out
}

// isAnonymous reports whether the last member-class segment is numeric.
func isAnonymous(name string) bool {
	i := strings.LastIndexByte(name, '$')
	if i < 0 || i == len(name)-1 {
		return false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SuperClasses lists every transitive supertype of name without type
// arguments, most-derived first, ending with java.lang.Object.
func (c *Cache) SuperClasses(name string) []string {
	table := c.table()
	seen := map[string]bool{typeinfo.ObjectClass: true}
	var out []string
	var walk func(string)
	walk = func(n string) {
		ci, ok := reflector.Find(table, n)
		if !ok {
			return
		}
		for _, s := range ci.Supers {
			bare := typeinfo.Bare(s)
			if seen[bare] {
				continue
			}
			seen[bare] = true
			out = append(out, bare)
			walk(bare)
		}
	}
	seen[typeinfo.Bare(name)] = true
	walk(name)
	return append(out, typeinfo.ObjectClass)
}

// IsImplements reports whether name is iface or has it among its
// transitive supertypes.
func (c *Cache) IsImplements(name, iface string) bool {
	target := typeinfo.Bare(iface)
	if ci, ok := c.Lookup(name); ok && ci.Name == target {
		return true
	}
	if typeinfo.Bare(name) == target {
		return true
	}
	for _, s := range c.SuperClasses(name) {
		if s == target {
			return true
		}
	}
	return false
}

// ClassNameToFQCN resolves a simple, qualified or member-class spelling to
// an indexed FQCN. Member classes inherited from a supertype of their
// spelled outer class are found too.
func (c *Cache) ClassNameToFQCN(name string) (string, bool) {
	table := c.table()
	name = typeinfo.Bare(name)
	if ci, ok := table[name]; ok {
		return ci.Name, true
	}
	if ci, ok := reflector.Find(table, name); ok {
		return ci.Name, true
	}

	classes := c.sortedClasses()
	for _, ci := range classes {
		if ci.SimpleName() == name {
			return ci.Name, true
		}
	}

	for _, v := range typeinfo.InnerVariants(name) {
		i := strings.LastIndexByte(v, '$')
		outer, inner := v[:i], v[i+1:]
		for _, ci := range classes {
			if ci.Name != outer && ci.SimpleName() != outer {
				continue
			}
			if _, ok := table[ci.Name+"$"+inner]; ok {
				return ci.Name + "$" + inner, true
			}
			for _, s := range ci.Supers {
				candidate := typeinfo.Bare(s) + "$" + inner
				if _, ok := table[candidate]; ok {
					return candidate, true
				}
			}
		}
	}
	return "", false
}
