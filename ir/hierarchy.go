package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var primitiveNames = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true,
	"void": true,
}

// ErrResolution is wrapped by every *ResolutionError.
var ErrResolution = errors.New("method resolution failed")

// ResolutionError reports that no concrete implementation of a method could
// be found for a type.
type ResolutionError struct {
	Type         *Type
	Subsignature string
	Reason       string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s on %v: %s", e.Subsignature, e.Type, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }

// Hierarchy is the registry of all types in a program. It is the sole
// authority for type identity and answers subtyping and method resolution
// queries. Interning (Class, ArrayOf, Primitive, Lookup) and the query
// methods (IsSubtype, ResolveVirtual, ResolveMethod, FieldByName) are safe for
// concurrent use. Declare and the AddField/AddMethod methods of Type mutate
// declarations and must not run concurrently with anything else.
type Hierarchy struct {
	intern     sync.Mutex
	classes    map[string]*Type
	arrays     map[*Type]*Type
	primitives map[string]*Type
	object     *Type
	null       *Type

	mu          sync.Mutex
	subtypeMemo map[[2]*Type]bool
	resolveMemo map[resolveKey]resolved
}

type resolveKey struct {
	t       *Type
	subsig  string
	virtual bool
}

type resolved struct {
	m   *Method
	err error
}

func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		classes:     make(map[string]*Type),
		arrays:      make(map[*Type]*Type),
		primitives:  make(map[string]*Type),
		subtypeMemo: make(map[[2]*Type]bool),
		resolveMemo: make(map[resolveKey]resolved),
	}
	h.null = &Type{kind: NullKind, name: "null", h: h}

	h.object = h.Class(ObjectClass)
	h.object.declared = true
	for _, name := range [...]string{CloneableClass, SerializableClass} {
		h.Declare(name, ClassDecl{Interface: true})
	}
	return h
}

// Object returns java.lang.Object, the root of the class hierarchy.
func (h *Hierarchy) Object() *Type { return h.object }

// Null returns the type of the null literal.
func (h *Hierarchy) Null() *Type { return h.null }

// Class returns the class type with the given name, creating an undeclared
// class type on first request. Undeclared classes extend java.lang.Object.
func (h *Hierarchy) Class(name string) *Type {
	h.intern.Lock()
	defer h.intern.Unlock()
	if t, found := h.classes[name]; found {
		return t
	}

	t := &Type{
		kind:    ClassKind,
		name:    name,
		Super:   h.object,
		fields:  make(map[string]*Field),
		methods: make(map[string]*Method),
		h:       h,
	}
	h.classes[name] = t
	return t
}

// ArrayOf returns the array type with the given element type.
func (h *Hierarchy) ArrayOf(elem *Type) *Type {
	h.intern.Lock()
	defer h.intern.Unlock()
	if t, found := h.arrays[elem]; found {
		return t
	}

	t := &Type{kind: ArrayKind, name: elem.name + "[]", elem: elem, h: h}
	h.arrays[elem] = t
	return t
}

// Primitive returns the primitive type with the given name. It panics if the
// name does not denote a primitive type.
func (h *Hierarchy) Primitive(name string) *Type {
	if !primitiveNames[name] {
		panic(fmt.Errorf("%q is not a primitive type", name))
	}

	h.intern.Lock()
	defer h.intern.Unlock()
	if t, found := h.primitives[name]; found {
		return t
	}

	t := &Type{kind: PrimitiveKind, name: name, h: h}
	h.primitives[name] = t
	return t
}

// Lookup returns the type denoted by a source-level type name such as
// "int", "A", "A[][]" or "null".
func (h *Hierarchy) Lookup(name string) *Type {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasSuffix(name, "[]"):
		return h.ArrayOf(h.Lookup(strings.TrimSuffix(name, "[]")))
	case name == "null":
		return h.null
	case primitiveNames[name]:
		return h.Primitive(name)
	default:
		return h.Class(name)
	}
}

// ClassDecl is the declaration of a class or interface.
type ClassDecl struct {
	// Name of the superclass. Defaults to java.lang.Object.
	Super      string
	Interfaces []string
	Interface  bool
	Abstract   bool
}

// Declare records the declaration of a class or interface and returns its
// type. Interfaces are always abstract and have no superclass.
func (h *Hierarchy) Declare(name string, d ClassDecl) *Type {
	t := h.Class(name)
	t.declared = true
	t.Abstract = d.Abstract || d.Interface

	if d.Interface {
		t.kind = InterfaceKind
		t.Super = nil
	} else if name != ObjectClass {
		super := d.Super
		if super == "" {
			super = ObjectClass
		}
		t.Super = h.Class(super)
	}

	t.Interfaces = t.Interfaces[:0]
	for _, itf := range d.Interfaces {
		t.Interfaces = append(t.Interfaces, h.Class(itf))
	}

	return t
}

// Classes returns all class and interface types known to the hierarchy,
// sorted by name.
func (h *Hierarchy) Classes() []*Type {
	h.intern.Lock()
	defer h.intern.Unlock()
	res := make([]*Type, 0, len(h.classes))
	for _, t := range h.classes {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].name < res[j].name })
	return res
}

// IsSubtype reports whether values of type sub may be stored in locations of
// type sup.
func (h *Hierarchy) IsSubtype(sub, sup *Type) bool {
	if sub == sup {
		return true
	}

	key := [2]*Type{sub, sup}
	h.mu.Lock()
	res, found := h.subtypeMemo[key]
	h.mu.Unlock()
	if found {
		return res
	}

	res = h.isSubtype(sub, sup)

	h.mu.Lock()
	h.subtypeMemo[key] = res
	h.mu.Unlock()
	return res
}

func (h *Hierarchy) isSubtype(sub, sup *Type) bool {
	if !sub.IsReference() || !sup.IsReference() {
		return false
	}

	switch {
	case sub.kind == NullKind:
		return true
	case sup.kind == NullKind:
		return false
	case sup == h.Object():
		return true
	}

	if sub.kind == ArrayKind {
		switch {
		case sup.kind == ArrayKind:
			if sub.elem.IsReference() && sup.elem.IsReference() {
				return h.IsSubtype(sub.elem, sup.elem)
			}
			return false
		case sup.name == CloneableClass, sup.name == SerializableClass:
			return true
		default:
			return false
		}
	}

	if sup.kind == ArrayKind {
		return false
	}

	// Breadth-first search through the (acyclic) supertype graph.
	visited := map[*Type]bool{sub: true}
	queue := []*Type{sub}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t == sup {
			return true
		}

		for _, st := range t.supertypes() {
			if !visited[st] {
				visited[st] = true
				queue = append(queue, st)
			}
		}
	}

	return false
}

func (t *Type) supertypes() []*Type {
	sts := make([]*Type, 0, len(t.Interfaces)+1)
	if t.Super != nil {
		sts = append(sts, t.Super)
	}
	return append(sts, t.Interfaces...)
}

// ResolveVirtual finds the method invoked by a virtual call of the method
// with the given subsignature on a receiver whose runtime type is t.
// The superclass chain is searched first, then superinterfaces for a default
// method. A *ResolutionError is returned if the most-derived declaration is
// abstract, if no declaration exists, or if the maximally specific default
// methods conflict.
func (h *Hierarchy) ResolveVirtual(t *Type, subsig string) (*Method, error) {
	return h.memoResolve(resolveKey{t, subsig, true}, func() (*Method, error) {
		recv := t
		if recv.kind == ArrayKind {
			recv = h.Object()
		}

		if recv.kind != ClassKind {
			return nil, &ResolutionError{t, subsig, fmt.Sprintf("receiver is a %s type", t.kind)}
		}

		for c := recv; c != nil; c = c.Super {
			if m := c.methods[subsig]; m != nil && !m.Static {
				if m.Abstract {
					return nil, &ResolutionError{t, subsig,
						fmt.Sprintf("most-derived declaration in %v is abstract", c)}
				}
				return m, nil
			}
		}

		cands := h.maximallySpecific(recv, subsig)
		switch concrete := concreteMethods(cands); {
		case len(concrete) == 1:
			return concrete[0], nil
		case len(concrete) > 1:
			return nil, &ResolutionError{t, subsig,
				fmt.Sprintf("conflicting default methods in %v and %v", concrete[0].Class, concrete[1].Class)}
		case len(cands) > 0:
			return nil, &ResolutionError{t, subsig,
				fmt.Sprintf("most specific declaration in %v is abstract", cands[0].Class)}
		}

		return nil, &ResolutionError{t, subsig, "no implementation found"}
	})
}

// ResolveMethod resolves a method reference against its declaring type: the
// type itself, then its superclasses, then its superinterfaces. Unlike
// ResolveVirtual the result may be abstract.
func (h *Hierarchy) ResolveMethod(t *Type, subsig string) (*Method, error) {
	return h.memoResolve(resolveKey{t, subsig, false}, func() (*Method, error) {
		if t.kind != ClassKind && t.kind != InterfaceKind {
			return nil, &ResolutionError{t, subsig, fmt.Sprintf("%s type declares no methods", t.kind)}
		}

		for c := t; c != nil; c = c.Super {
			if m := c.methods[subsig]; m != nil {
				return m, nil
			}
		}

		cands := h.maximallySpecific(t, subsig)
		if concrete := concreteMethods(cands); len(concrete) == 1 {
			return concrete[0], nil
		} else if len(cands) > 0 {
			return cands[0], nil
		}

		return nil, &ResolutionError{t, subsig, "no declaration found"}
	})
}

// maximallySpecific returns the non-static declarations of subsig in the
// superinterfaces of t and its superclasses, minus those overridden by a
// declaration in a more specific interface. Results are in breadth-first order.
func (h *Hierarchy) maximallySpecific(t *Type, subsig string) []*Method {
	var queue []*Type
	for c := t; c != nil; c = c.Super {
		queue = append(queue, c.Interfaces...)
	}

	var cands []*Method
	visited := make(map[*Type]bool)
	for len(queue) > 0 {
		itf := queue[0]
		queue = queue[1:]
		if visited[itf] {
			continue
		}
		visited[itf] = true

		if m := itf.methods[subsig]; m != nil && !m.Static {
			cands = append(cands, m)
		}
		queue = append(queue, itf.Interfaces...)
	}

	var res []*Method
outer:
	for _, m := range cands {
		for _, o := range cands {
			if o != m && h.IsSubtype(o.Class, m.Class) {
				continue outer
			}
		}
		res = append(res, m)
	}
	return res
}

func concreteMethods(ms []*Method) []*Method {
	var res []*Method
	for _, m := range ms {
		if !m.Abstract {
			res = append(res, m)
		}
	}
	return res
}

func (h *Hierarchy) memoResolve(key resolveKey, f func() (*Method, error)) (*Method, error) {
	h.mu.Lock()
	r, found := h.resolveMemo[key]
	h.mu.Unlock()
	if found {
		return r.m, r.err
	}

	m, err := f()

	h.mu.Lock()
	h.resolveMemo[key] = resolved{m, err}
	h.mu.Unlock()
	return m, err
}

// FieldByName looks up a field by name in t and its supertypes.
func (h *Hierarchy) FieldByName(t *Type, name string) *Field {
	visited := make(map[*Type]bool)
	queue := []*Type{t}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if visited[c] {
			continue
		}
		visited[c] = true

		if f := c.fields[name]; f != nil {
			return f
		}
		queue = append(queue, c.supertypes()...)
	}
	return nil
}
