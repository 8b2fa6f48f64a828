package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedIR is wrapped by every error reported by Validate.
	ErrMalformedIR = errors.New("malformed IR")
	// ErrNoEntry is reported when a program has no entry methods.
	ErrNoEntry = errors.New("no entry method")
)

// Validate checks the invariants the analysis relies on. Violations are
// defects of whatever constructed the program and must be fixed there; the
// returned error joins every violation found.
func (p *Program) Validate() error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrMalformedIR}, args...)...))
	}

	if len(p.Entries) == 0 {
		errs = append(errs, fmt.Errorf("%w: %w", ErrMalformedIR, ErrNoEntry))
	}
	for _, m := range p.Entries {
		if m == nil {
			report("nil entry method")
		} else if !m.HasBody() {
			report("entry method %v has no body", m)
		}
	}

	for _, m := range p.Methods() {
		if !m.HasBody() && len(m.Stmts) > 0 {
			report("%v: abstract or native method has statements", m)
		}

		for _, s := range m.Stmts {
			if err := validateStmt(p.Hierarchy, m, s); err != nil {
				report("%v: %q: %v", m, s, err)
			}
		}
	}

	return errors.Join(errs...)
}

func validateStmt(h *Hierarchy, m *Method, s Stmt) error {
	if s.Parent() != m {
		return errors.New("statement belongs to another method")
	}

	local := func(vs ...*Var) error {
		for _, v := range vs {
			if v == nil {
				return errors.New("missing variable")
			}
			if v.Method != m || m.vars[v.Name] != v {
				return fmt.Errorf("variable %s is not declared in this method", v)
			}
		}
		return nil
	}

	switch s := s.(type) {
	case *New:
		if s.Type == nil {
			return errors.New("allocation without a type")
		}
		switch s.Type.kind {
		case InterfaceKind, PrimitiveKind, NullKind:
			return fmt.Errorf("cannot allocate %s type %v", s.Type.kind, s.Type)
		case ClassKind:
			if s.Type.Abstract {
				return fmt.Errorf("cannot allocate abstract class %v", s.Type)
			}
		}
		return local(s.LHS)

	case *Assign:
		return local(s.LHS, s.RHS)

	case *Cast:
		if s.Type == nil {
			return errors.New("cast without a type")
		}
		return local(s.LHS, s.RHS)

	case *InstanceLoad:
		if err := checkField(s.Field, false); err != nil {
			return err
		}
		return local(s.LHS, s.Base)

	case *InstanceStore:
		if err := checkField(s.Field, false); err != nil {
			return err
		}
		return local(s.Base, s.RHS)

	case *StaticLoad:
		if err := checkField(s.Field, true); err != nil {
			return err
		}
		return local(s.LHS)

	case *StaticStore:
		if err := checkField(s.Field, true); err != nil {
			return err
		}
		return local(s.RHS)

	case *ArrayLoad:
		return local(s.LHS, s.Base)

	case *ArrayStore:
		return local(s.Base, s.RHS)

	case *Call:
		if s.Ref.Class == nil || s.Ref.Return == nil || s.Ref.Name == "" {
			return errors.New("incomplete method reference")
		}
		if len(s.Args) != len(s.Ref.ParamTypes) {
			return fmt.Errorf("call passes %d arguments to %v which takes %d",
				len(s.Args), s.Ref, len(s.Ref.ParamTypes))
		}
		if s.IsStatic() != (s.Recv == nil) {
			if s.IsStatic() {
				return errors.New("static call with a receiver")
			}
			return fmt.Errorf("%s call without a receiver", s.Kind)
		}
		if s.Recv != nil {
			if err := local(s.Recv); err != nil {
				return err
			}
		}
		if s.Result != nil {
			if err := local(s.Result); err != nil {
				return err
			}
		}
		return local(s.Args...)

	case *Return:
		if s.Value == nil {
			return nil
		}
		return local(s.Value)

	default:
		return fmt.Errorf("unsupported statement %T", s)
	}
}

func checkField(f *Field, static bool) error {
	switch {
	case f == nil:
		return errors.New("missing field")
	case f.Static && !static:
		return fmt.Errorf("static field %v accessed as instance field", f)
	case !f.Static && static:
		return fmt.Errorf("instance field %v accessed as static field", f)
	}
	return nil
}
