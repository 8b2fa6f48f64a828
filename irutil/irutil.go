// Package irutil loads programs from YAML program descriptions.
//
// A description lists the classes of the program with their fields and
// methods, and the entry methods:
//
//	entries: ["<Main: void main()>"]
//	classes:
//	  - name: A
//	    fields: [{name: f, type: B}]
//	    methods:
//	      - signature: "B get()"
//	        locals: {x: B}
//	        body:
//	          - {op: load, lhs: x, base: this, field: f}
//	          - {op: return, rhs: x}
//
// Statement ops are new, assign, cast, load, store, aload, astore, invoke and
// return. Loads and stores without a base access static fields.
package irutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BarrensZeppelin/andersen/ir"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProgram is wrapped by errors describing inconsistent program
// descriptions.
var ErrInvalidProgram = errors.New("invalid program description")

type programDesc struct {
	Entries []string    `yaml:"entries"`
	Classes []classDesc `yaml:"classes"`
}

type classDesc struct {
	Name       string       `yaml:"name"`
	Super      string       `yaml:"super"`
	Interfaces []string     `yaml:"interfaces"`
	Interface  bool         `yaml:"interface"`
	Abstract   bool         `yaml:"abstract"`
	Fields     []fieldDesc  `yaml:"fields"`
	Methods    []methodDesc `yaml:"methods"`
}

type fieldDesc struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
}

type methodDesc struct {
	Signature string            `yaml:"signature"`
	Params    []string          `yaml:"params"`
	Static    bool              `yaml:"static"`
	Abstract  bool              `yaml:"abstract"`
	Native    bool              `yaml:"native"`
	Locals    map[string]string `yaml:"locals"`
	Body      []stmtDesc        `yaml:"body"`
}

type stmtDesc struct {
	Op     string   `yaml:"op"`
	LHS    string   `yaml:"lhs"`
	RHS    string   `yaml:"rhs"`
	Base   string   `yaml:"base"`
	Type   string   `yaml:"type"`
	Class  string   `yaml:"class"`
	Field  string   `yaml:"field"`
	Kind   string   `yaml:"kind"`
	Method string   `yaml:"method"`
	Recv   string   `yaml:"recv"`
	Args   []string `yaml:"args"`
	Text   string   `yaml:"text"`
}

// LoadProgramFromSource loads a program from an in-memory description.
func LoadProgramFromSource(source string) (*ir.Program, error) {
	return LoadProgram(strings.NewReader(source))
}

// LoadProgramFromFile loads a program from the description in a file.
func LoadProgramFromFile(path string) (*ir.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := LoadProgram(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// LoadProgram decodes a program description. Unknown keys are rejected.
func LoadProgram(r io.Reader) (*ir.Program, error) {
	var desc programDesc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}

	return build(&desc)
}

func build(desc *programDesc) (*ir.Program, error) {
	prog := ir.NewProgram()
	h := prog.Hierarchy

	for _, cd := range desc.Classes {
		if cd.Name == "" {
			return nil, fmt.Errorf("%w: class without a name", ErrInvalidProgram)
		}
		h.Declare(cd.Name, ir.ClassDecl{
			Super:      cd.Super,
			Interfaces: cd.Interfaces,
			Interface:  cd.Interface,
			Abstract:   cd.Abstract,
		})
	}

	// Fields and method declarations are created before any body, since
	// bodies may refer to members of any class.
	type body struct {
		m  *ir.Method
		md *methodDesc
	}
	var bodies []body
	for ci := range desc.Classes {
		cd := &desc.Classes[ci]
		cls := h.Class(cd.Name)

		for _, fd := range cd.Fields {
			if fd.Name == "" || fd.Type == "" {
				return nil, fmt.Errorf("%w: %s: field needs a name and a type", ErrInvalidProgram, cls)
			}
			cls.AddField(fd.Name, h.Lookup(fd.Type), fd.Static)
		}

		for mi := range cd.Methods {
			md := &cd.Methods[mi]
			name, params, ret, err := ir.ParseSubsignature(h, md.Signature)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProgram, cls, err)
			}
			if len(md.Params) > len(params) {
				return nil, fmt.Errorf("%w: %s: %s names %d parameters but takes %d",
					ErrInvalidProgram, cls, md.Signature, len(md.Params), len(params))
			}

			m := cls.AddMethod(ir.MethodDecl{
				Name:       name,
				ParamTypes: params,
				Return:     ret,
				ParamNames: md.Params,
				Static:     md.Static,
				Abstract:   md.Abstract || (cd.Interface && len(md.Body) == 0 && !md.Static),
				Native:     md.Native,
			})
			bodies = append(bodies, body{m, md})
		}
	}

	for _, b := range bodies {
		if err := buildBody(h, b.m, b.md); err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrInvalidProgram, b.m, err)
		}
	}

	for _, sig := range desc.Entries {
		m, err := prog.Method(sig)
		if err != nil {
			return nil, fmt.Errorf("%w: entry: %v", ErrInvalidProgram, err)
		}
		prog.Entries = append(prog.Entries, m)
	}

	return prog, nil
}

func buildBody(h *ir.Hierarchy, m *ir.Method, md *methodDesc) error {
	for name, typ := range md.Locals {
		if existing := m.Var(name); existing != nil {
			return fmt.Errorf("local %s shadows a parameter", name)
		}
		m.NewVar(name, h.Lookup(typ))
	}

	for i := range md.Body {
		s, err := buildStmt(h, m, &md.Body[i])
		if err != nil {
			return fmt.Errorf("statement %d (%s): %w", i, md.Body[i].Op, err)
		}
		m.Add(s)
	}

	return nil
}

func buildStmt(h *ir.Hierarchy, m *ir.Method, sd *stmtDesc) (ir.Stmt, error) {
	var err error
	variable := func(name string) *ir.Var {
		if err != nil {
			return nil
		}
		if name == "" {
			err = errors.New("missing variable")
			return nil
		}
		v := m.Var(name)
		if v == nil {
			err = fmt.Errorf("undeclared variable %s", name)
		}
		return v
	}

	typ := func() *ir.Type {
		if sd.Type == "" {
			if err == nil {
				err = errors.New("missing type")
			}
			return nil
		}
		return h.Lookup(sd.Type)
	}

	field := func(base *ir.Var) *ir.Field {
		if err != nil {
			return nil
		}
		var cls *ir.Type
		switch {
		case sd.Class != "":
			cls = h.Class(sd.Class)
		case base != nil:
			cls = base.Type
		default:
			cls = m.Class
		}
		f := h.FieldByName(cls, sd.Field)
		if f == nil {
			err = fmt.Errorf("no field %q in %v", sd.Field, cls)
		}
		return f
	}

	var s ir.Stmt
	switch sd.Op {
	case "new":
		s = &ir.New{LHS: variable(sd.LHS), Type: typ()}

	case "assign":
		s = &ir.Assign{LHS: variable(sd.LHS), RHS: variable(sd.RHS)}

	case "cast":
		s = &ir.Cast{LHS: variable(sd.LHS), RHS: variable(sd.RHS), Type: typ()}

	case "load":
		if sd.Base == "" {
			s = &ir.StaticLoad{LHS: variable(sd.LHS), Field: field(nil)}
		} else {
			base := variable(sd.Base)
			s = &ir.InstanceLoad{LHS: variable(sd.LHS), Base: base, Field: field(base)}
		}

	case "store":
		if sd.Base == "" {
			s = &ir.StaticStore{Field: field(nil), RHS: variable(sd.RHS)}
		} else {
			base := variable(sd.Base)
			s = &ir.InstanceStore{Base: base, Field: field(base), RHS: variable(sd.RHS)}
		}

	case "aload":
		s = &ir.ArrayLoad{LHS: variable(sd.LHS), Base: variable(sd.Base)}

	case "astore":
		s = &ir.ArrayStore{Base: variable(sd.Base), RHS: variable(sd.RHS)}

	case "invoke":
		call := &ir.Call{Text: sd.Text}
		kind := sd.Kind
		if kind == "" {
			kind = ir.VirtualCall.String()
		}
		if call.Kind, err = ir.ParseCallKind(kind); err != nil {
			return nil, err
		}
		if call.Ref, err = ir.ParseSignature(h, sd.Method); err != nil {
			return nil, err
		}
		if sd.Recv != "" {
			call.Recv = variable(sd.Recv)
		}
		for _, a := range sd.Args {
			call.Args = append(call.Args, variable(a))
		}
		if sd.LHS != "" {
			call.Result = variable(sd.LHS)
		}
		s = call

	case "return":
		ret := &ir.Return{}
		if sd.RHS != "" {
			ret.Value = variable(sd.RHS)
		}
		s = ret

	default:
		return nil, fmt.Errorf("unknown op %q", sd.Op)
	}

	if err != nil {
		return nil, err
	}
	return s, nil
}
