package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Program is the input of the analysis: a type hierarchy containing every
// class, field and method, and the entry methods the analysis starts from.
type Program struct {
	Hierarchy *Hierarchy
	Entries   []*Method
}

func NewProgram() *Program {
	return &Program{Hierarchy: NewHierarchy()}
}

// Methods returns every method declared in the program, sorted by signature.
func (p *Program) Methods() []*Method {
	var res []*Method
	for _, c := range p.Hierarchy.Classes() {
		res = append(res, c.Methods()...)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Signature() < res[j].Signature() })
	return res
}

// Method looks up a method by its signature, e.g. "<A: void m(B)>".
func (p *Program) Method(sig string) (*Method, error) {
	ref, err := ParseSignature(p.Hierarchy, sig)
	if err != nil {
		return nil, err
	}

	if m := ref.Class.Method(ref.Subsignature()); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, sig)
}

var (
	ErrMalformedSignature = errors.New("malformed method signature")
	ErrUnknownMethod      = errors.New("unknown method")
)

// ParseSignature parses a method signature of the form
// "<Class: ret name(p1,p2)>".
func ParseSignature(h *Hierarchy, sig string) (MethodRef, error) {
	sig = strings.TrimSpace(sig)
	if !strings.HasPrefix(sig, "<") || !strings.HasSuffix(sig, ">") {
		return MethodRef{}, fmt.Errorf("%w: %q", ErrMalformedSignature, sig)
	}

	class, subsig, found := strings.Cut(sig[1:len(sig)-1], ": ")
	if !found || class == "" {
		return MethodRef{}, fmt.Errorf("%w: %q", ErrMalformedSignature, sig)
	}

	name, params, ret, err := ParseSubsignature(h, subsig)
	if err != nil {
		return MethodRef{}, err
	}

	return MethodRef{Class: h.Class(class), Name: name, ParamTypes: params, Return: ret}, nil
}

// ParseSubsignature parses a method subsignature of the form
// "ret name(p1,p2)".
func ParseSubsignature(h *Hierarchy, subsig string) (name string, params []*Type, ret *Type, err error) {
	subsig = strings.TrimSpace(subsig)
	malformed := fmt.Errorf("%w: %q", ErrMalformedSignature, subsig)

	open := strings.IndexByte(subsig, '(')
	if open < 0 || !strings.HasSuffix(subsig, ")") {
		return "", nil, nil, malformed
	}

	retName, name, found := strings.Cut(strings.TrimSpace(subsig[:open]), " ")
	name = strings.TrimSpace(name)
	if !found || retName == "" || name == "" {
		return "", nil, nil, malformed
	}

	if plist := strings.TrimSpace(subsig[open+1 : len(subsig)-1]); plist != "" {
		for _, p := range strings.Split(plist, ",") {
			if p = strings.TrimSpace(p); p == "" {
				return "", nil, nil, malformed
			}
			params = append(params, h.Lookup(p))
		}
	}

	return name, params, h.Lookup(retName), nil
}
