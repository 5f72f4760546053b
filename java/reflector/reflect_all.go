package reflector

import (
	"fmt"
	"strings"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/java/typeinfo"
)

// ClassSource reads class files out of one origin.
type ClassSource interface {
	ReadClass(entry string) (*classfile.ClassFile, error)
	Close() error
}

// Opener opens the origin recorded in a ClassIndex.
type Opener func(origin string) (ClassSource, error)

type Reflector struct {
	Open    Opener
	Options Options
}

func New(open Opener, opts Options) *Reflector {
	return &Reflector{Open: open, Options: opts}
}

// ClassFile re-reads the class behind ci.
func (r *Reflector) ClassFile(ci *ClassIndex) (*classfile.ClassFile, error) {
	src, err := r.Open(ci.Origin)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	cf, err := src.ReadClass(ci.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", ci.Entry, ci.Origin, err)
	}
	return cf, nil
}

// ReflectAll extracts and merges the members of every ancestor in info.
//
// Each origin is opened once. Members of ancestors other than the target are
// rewritten through the type arguments the ancestor was reached with and
// labelled with the parameterized ancestor name. Members are then merged in
// ancestor order keeping the first declaration seen for each key, so a
// subclass override hides the inherited one while overloads stay separate.
// Constructors are kept for the target only.
//
// Ancestor order decides between a superclass method and an interface
// default with the same key. This approximates Java's rules and is not a
// full default-method resolution.
func (r *Reflector) ReflectAll(info *InheritanceInfo) []*MemberDescriptor {
	target := typeinfo.Bare(info.Target)
	byAncestor := make(map[string][]*MemberDescriptor, len(info.Ancestors))

	for _, origin := range info.FileOrder {
		src, err := r.Open(origin)
		if err != nil {
			log.Warningf("reflect %s: %s", info.Target, err)
			continue
		}
		for _, name := range info.Files[origin] {
			ci := info.Classes[name]
			cf, err := src.ReadClass(ci.Entry)
			if err != nil {
				log.Warningf("reflect %s: reading %s: %s", info.Target, name, err)
				continue
			}
			members := Members(cf, r.Options)
			var sub map[string]string
			if typeinfo.Bare(name) != target {
				sub = inheritedBindings(ci, name)
			}
			for _, m := range members {
				m.Substitute(sub)
				if strings.HasPrefix(name, m.DeclaringClass+"<") {
					m.DeclaringClass = name
				}
			}
			byAncestor[name] = members
		}
		if err := src.Close(); err != nil {
			log.Debugf("closing %s: %s", origin, err)
		}
	}

	seen := make(map[string]bool)
	var out []*MemberDescriptor
	for _, name := range info.Ancestors {
		isTarget := typeinfo.Bare(name) == target
		for _, m := range byAncestor[name] {
			if m.Kind == KindConstructor && !isTarget {
				continue
			}
			key := m.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// inheritedBindings is levelBindings plus erasure for a raw reference: a
// class inherited without type arguments sees its variables as Object.
func inheritedBindings(ci *ClassIndex, name string) map[string]string {
	sub := levelBindings(ci, name)
	if len(typeinfo.TypeArguments(name)) == 0 {
		for _, f := range ci.TypeParameters {
			sub[f] = typeinfo.ObjectClass
		}
	}
	return sub
}

// Reflect resolves name against table and merges its members.
func (r *Reflector) Reflect(table Table, name string) []*MemberDescriptor {
	info := Resolve(table, name)
	if !info.Found() {
		return nil
	}
	return r.ReflectAll(info)
}
