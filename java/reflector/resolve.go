package reflector

import (
	"strings"

	"github.com/dhamidi/jreflect/java/typeinfo"
)

// InheritanceInfo is the resolved ancestry of one query. Ancestors are the
// parameterized names, most-derived first, deduplicated by exact string.
type InheritanceInfo struct {
	Target    string
	Ancestors []string
	// Files groups ancestors by the origin they are read from; FileOrder
	// keeps the order in which origins were first reached.
	Files     map[string][]string
	FileOrder []string
	// Classes maps each ancestor to its index entry.
	Classes map[string]*ClassIndex
}

func (info *InheritanceInfo) Found() bool { return len(info.Ancestors) > 0 }

func (info *InheritanceInfo) add(ci *ClassIndex, name string) {
	if _, seen := info.Classes[name]; seen {
		return
	}
	info.Classes[name] = ci
	info.Ancestors = append(info.Ancestors, name)
	if _, ok := info.Files[ci.Origin]; !ok {
		info.FileOrder = append(info.FileOrder, ci.Origin)
	}
	info.Files[ci.Origin] = append(info.Files[ci.Origin], name)
}

// Table is the read side of the global class index.
type Table interface {
	Get(fqcn string) (*ClassIndex, bool)
}

// MapTable adapts a plain map to Table.
type MapTable map[string]*ClassIndex

func (t MapTable) Get(fqcn string) (*ClassIndex, bool) {
	ci, ok := t[fqcn]
	return ci, ok
}

// Find looks name up by its bare spelling, then by each member-class
// spelling ("a.Outer.Inner" as "a.Outer$Inner").
func Find(table Table, name string) (*ClassIndex, bool) {
	bare := typeinfo.Bare(name)
	if ci, ok := table.Get(bare); ok {
		return ci, true
	}
	for _, v := range typeinfo.InnerVariants(bare) {
		if ci, ok := table.Get(v); ok {
			return ci, true
		}
	}
	return nil, false
}

// Resolve walks the supertypes of name. Each level binds the class's formal
// type parameters to the type arguments it was reached with and rewrites its
// supertypes through that binding before descending into them in reverse
// declaration order. A name missing from the table yields no ancestors.
func Resolve(table Table, name string) *InheritanceInfo {
	info := &InheritanceInfo{
		Files:   make(map[string][]string),
		Classes: make(map[string]*ClassIndex),
	}
	if ci, ok := Find(table, name); ok {
		info.Target = parameterizedName(ci, name)
	} else {
		info.Target = name
	}
	walk(table, info, name)
	return info
}

func walk(table Table, info *InheritanceInfo, name string) {
	ci, ok := Find(table, name)
	if !ok {
		log.Debugf("resolve %s: not in index", name)
		return
	}
	name = parameterizedName(ci, name)
	if _, seen := info.Classes[name]; seen {
		return
	}
	info.add(ci, name)

	sub := levelBindings(ci, name)
	supers := make([]string, len(ci.Supers))
	for i, s := range ci.Supers {
		supers[len(supers)-1-i] = typeinfo.Substitute(s, sub)
	}
	for _, s := range supers {
		walk(table, info, s)
	}
}

// levelBindings aligns ci's formals with the arguments of name, skipping
// arguments that are the formal's own placeholder.
func levelBindings(ci *ClassIndex, name string) map[string]string {
	return typeinfo.Bindings(ci.TypeParameters, typeinfo.TypeArguments(name))
}

// parameterizedName re-spells name with the index's canonical class name,
// keeping any type arguments.
func parameterizedName(ci *ClassIndex, name string) string {
	args := typeinfo.TypeArguments(name)
	if len(args) == 0 {
		return ci.Name
	}
	return ci.Name + "<" + strings.Join(args, ", ") + ">"
}
