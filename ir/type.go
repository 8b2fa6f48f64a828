package ir

import (
	"fmt"
	"sort"
)

// Kind discriminates the variants of Type.
type Kind int

const (
	ClassKind Kind = iota
	InterfaceKind
	ArrayKind
	PrimitiveKind
	NullKind
)

func (k Kind) String() string {
	switch k {
	case ClassKind:
		return "class"
	case InterfaceKind:
		return "interface"
	case ArrayKind:
		return "array"
	case PrimitiveKind:
		return "primitive"
	case NullKind:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Well-known class names.
const (
	ObjectClass       = "java.lang.Object"
	CloneableClass    = "java.lang.Cloneable"
	SerializableClass = "java.io.Serializable"
)

// Type is a nominal type. Types are interned by a Hierarchy: two requests for
// the same name yield the same *Type, so types are compared with ==.
//
// Class and interface types additionally carry their declaration: supertypes,
// fields and methods.
type Type struct {
	kind Kind
	name string
	elem *Type

	// Populated for class and interface types.
	Super      *Type
	Interfaces []*Type
	Abstract   bool
	declared   bool
	fields     map[string]*Field
	methods    map[string]*Method
	h          *Hierarchy
}

func (t *Type) Kind() Kind { return t.kind }

// Name is the fully qualified name of the type. Array types are named by
// their element type followed by "[]".
func (t *Type) Name() string { return t.name }

func (t *Type) String() string { return t.name }

// Elem returns the element type of an array type, and nil otherwise.
func (t *Type) Elem() *Type { return t.elem }

// IsReference reports whether values of the type are heap references.
func (t *Type) IsReference() bool {
	switch t.kind {
	case ClassKind, InterfaceKind, ArrayKind, NullKind:
		return true
	}
	return false
}

// IsDeclared reports whether a class or interface type has been given a
// declaration (as opposed to only being referenced by name).
func (t *Type) IsDeclared() bool { return t.declared }

// Field returns the field declared by t with the given name, or nil.
func (t *Type) Field(name string) *Field { return t.fields[name] }

// Fields returns the fields declared by t, sorted by name.
func (t *Type) Fields() []*Field {
	res := make([]*Field, 0, len(t.fields))
	for _, f := range t.fields {
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Method returns the method declared by t with the given subsignature, or nil.
func (t *Type) Method(subsig string) *Method { return t.methods[subsig] }

// Methods returns the methods declared by t, sorted by subsignature.
func (t *Type) Methods() []*Method {
	res := make([]*Method, 0, len(t.methods))
	for _, m := range t.methods {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Subsignature() < res[j].Subsignature()
	})
	return res
}

// AddField declares a field on a class or interface type.
func (t *Type) AddField(name string, typ *Type, static bool) *Field {
	if t.kind != ClassKind && t.kind != InterfaceKind {
		panic(fmt.Errorf("cannot declare field %s on %s type %v", name, t.kind, t))
	}
	if f, found := t.fields[name]; found {
		return f
	}

	f := &Field{Class: t, Name: name, Type: typ, Static: static}
	t.fields[name] = f
	return f
}

// MethodDecl describes a method to be added to a type with AddMethod.
type MethodDecl struct {
	Name       string
	ParamTypes []*Type
	Return     *Type
	// Names of the formal parameters. Missing names default to p0, p1, ...
	ParamNames []string

	Static, Abstract, Native bool
}

// AddMethod declares a method on a class or interface type. The method's this
// variable (for instance methods) and parameter variables are created here.
// Declaring a method twice with the same subsignature returns the existing
// method.
func (t *Type) AddMethod(d MethodDecl) *Method {
	if t.kind != ClassKind && t.kind != InterfaceKind {
		panic(fmt.Errorf("cannot declare method %s on %s type %v", d.Name, t.kind, t))
	}

	ret := d.Return
	if ret == nil {
		ret = t.h.Primitive("void")
	}

	m := &Method{
		Class:      t,
		Name:       d.Name,
		ParamTypes: d.ParamTypes,
		Return:     ret,
		Static:     d.Static,
		Abstract:   d.Abstract,
		Native:     d.Native,
		vars:       make(map[string]*Var),
	}

	if existing, found := t.methods[m.Subsignature()]; found {
		return existing
	}

	if !m.Static {
		m.This = m.NewVar("this", t)
	}

	m.Params = make([]*Var, len(d.ParamTypes))
	for i, pt := range d.ParamTypes {
		name := fmt.Sprintf("p%d", i)
		if i < len(d.ParamNames) && d.ParamNames[i] != "" {
			name = d.ParamNames[i]
		}
		m.Params[i] = m.NewVar(name, pt)
	}

	t.methods[m.Subsignature()] = m
	return m
}

// Field is a field declaration.
type Field struct {
	Class  *Type
	Name   string
	Type   *Type
	Static bool
}

// Signature renders the field as <Class: Type name>.
func (f *Field) Signature() string {
	return fmt.Sprintf("<%s: %s %s>", f.Class, f.Type, f.Name)
}

func (f *Field) String() string { return f.Signature() }
