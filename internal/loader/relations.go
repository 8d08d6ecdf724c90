package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/relad/internal/expr"
)

type fileSpec struct {
	Variables []variableSpec `yaml:"variables"`
	Relations []relationSpec `yaml:"relations"`
}

type variableSpec struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type bindingSpec struct {
	Name string    `yaml:"name"`
	Expr yaml.Node `yaml:"expr"`
}

type relationSpec struct {
	Name  string        `yaml:"name"`
	Kind  string        `yaml:"kind"`
	Relop string        `yaml:"relop"`
	Let   []bindingSpec `yaml:"let"`
	LHS   yaml.Node     `yaml:"lhs"`
	RHS   yaml.Node     `yaml:"rhs"`
	Vars  []string      `yaml:"vars"`
}

// Set is a loaded relation file.
type Set struct {
	Format    Format
	Path      string
	Variables []*expr.Real
	Relations []*expr.Relation

	vars map[string]*expr.Real
	rels map[string]*expr.Relation
}

// Variable returns the named variable.
func (s *Set) Variable(name string) (*expr.Real, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Relation returns the named relation.
func (s *Set) Relation(name string) (*expr.Relation, bool) {
	r, ok := s.rels[name]
	return r, ok
}

// Assign sets the value of the named variable.
func (s *Set) Assign(name string, value float64) error {
	v, ok := s.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	v.Set(value)
	return nil
}

// Values returns the current value of every variable by name.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.Variables))
	for _, v := range s.Variables {
		out[v.Name()] = v.Value()
	}
	return out
}

// Parse builds a Set from YAML or JSON text.
func Parse(data []byte) (*Set, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse relation file: %w", err)
	}

	set := &Set{
		vars: make(map[string]*expr.Real, len(spec.Variables)),
		rels: make(map[string]*expr.Relation, len(spec.Relations)),
	}
	for _, vs := range spec.Variables {
		if vs.Name == "" {
			return nil, &SyntaxError{Err: fmt.Errorf("%w: variable without name", ErrMalformed)}
		}
		if _, dup := set.vars[vs.Name]; dup {
			return nil, &SyntaxError{Err: fmt.Errorf("%w: variable %q", ErrDuplicateName, vs.Name)}
		}
		v := expr.NewReal(vs.Name, vs.Value)
		set.vars[vs.Name] = v
		set.Variables = append(set.Variables, v)
	}

	for i := range spec.Relations {
		rs := &spec.Relations[i]
		if rs.Name == "" {
			rs.Name = fmt.Sprintf("r%d", i+1)
		}
		if _, dup := set.rels[rs.Name]; dup {
			return nil, &SyntaxError{Relation: rs.Name, Err: ErrDuplicateName}
		}
		rel, err := set.build(rs)
		if err != nil {
			return nil, err
		}
		set.rels[rs.Name] = rel
		set.Relations = append(set.Relations, rel)
	}
	return set, nil
}

func parseKind(s string) (expr.RelKind, bool) {
	if s == "" {
		return expr.RelToken, true
	}
	for _, k := range []expr.RelKind{expr.RelToken, expr.RelOpcode, expr.RelGlassBox, expr.RelBlackBox} {
		if k.String() == s {
			return k, true
		}
	}
	return expr.RelToken, false
}

func (s *Set) build(rs *relationSpec) (*expr.Relation, error) {
	kind, ok := parseKind(rs.Kind)
	if !ok {
		return nil, &SyntaxError{Relation: rs.Name, Err: fmt.Errorf("%w: %q", ErrUnknownKind, rs.Kind)}
	}
	if kind != expr.RelToken {
		vars := make([]expr.Variable, 0, len(rs.Vars))
		for _, name := range rs.Vars {
			v, ok := s.vars[name]
			if !ok {
				return nil, &SyntaxError{Relation: rs.Name, Err: fmt.Errorf("%w: %q", ErrUnknownName, name)}
			}
			vars = append(vars, v)
		}
		return expr.NewOpaque(rs.Name, kind, vars), nil
	}

	relop := expr.RelEqual
	if rs.Relop != "" {
		if relop, ok = expr.ParseRelop(rs.Relop); !ok {
			return nil, &SyntaxError{Relation: rs.Name, Err: fmt.Errorf("%w: %q", ErrUnknownRelop, rs.Relop)}
		}
	}

	rb := &relBuilder{
		set:      s,
		name:     rs.Name,
		b:        expr.NewBuilder(),
		index:    make(map[string]int),
		bindings: make(map[string]expr.NodeID),
	}
	for i := range rs.Let {
		bs := &rs.Let[i]
		if _, dup := rb.bindings[bs.Name]; dup || s.vars[bs.Name] != nil {
			return nil, rb.errorf(&bs.Expr, "%w: binding %q", ErrDuplicateName, bs.Name)
		}
		id, err := rb.node(&bs.Expr)
		if err != nil {
			return nil, err
		}
		rb.bindings[bs.Name] = id
	}

	lhs, err := rb.node(&rs.LHS)
	if err != nil {
		return nil, err
	}

	var rel *expr.Relation
	switch {
	case relop.IsObjective():
		rel, err = rb.b.Objective(rs.Name, lhs, relop)
	case rs.RHS.Kind == 0:
		if relop != expr.RelEqual {
			return nil, rb.errorf(&rs.LHS, "%w: %s needs a right-hand side", ErrMalformed, relop)
		}
		rel, err = rb.b.Residual(rs.Name, lhs)
	default:
		var rhs expr.NodeID
		if rhs, err = rb.node(&rs.RHS); err != nil {
			return nil, err
		}
		rel, err = rb.b.Relation(rs.Name, lhs, relop, rhs)
	}
	if err != nil {
		return nil, &SyntaxError{Relation: rs.Name, Line: rs.LHS.Line, Err: err}
	}
	return rel, nil
}

// relBuilder turns YAML expression trees of one relation into builder nodes.
type relBuilder struct {
	set      *Set
	name     string
	b        *expr.Builder
	index    map[string]int // variable name to 1-based index in this relation
	bindings map[string]expr.NodeID
}

func (rb *relBuilder) errorf(n *yaml.Node, format string, args ...any) error {
	return &SyntaxError{Relation: rb.name, Line: n.Line, Err: fmt.Errorf(format, args...)}
}

func (rb *relBuilder) node(n *yaml.Node) (expr.NodeID, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return rb.scalar(n)
	case yaml.MappingNode:
		return rb.apply(n)
	case 0:
		return expr.NoNode, rb.errorf(n, "%w: missing expression", ErrMalformed)
	default:
		return expr.NoNode, rb.errorf(n, "%w: expected number, name or operator map", ErrMalformed)
	}
}

func (rb *relBuilder) scalar(n *yaml.Node) (expr.NodeID, error) {
	switch n.ShortTag() {
	case "!!int", "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return expr.NoNode, rb.errorf(n, "%w: %v", ErrMalformed, err)
		}
		return rb.b.Const(v), nil
	case "!!str":
		return rb.name2node(n)
	default:
		return expr.NoNode, rb.errorf(n, "%w: unexpected %s scalar %q", ErrMalformed, n.ShortTag(), n.Value)
	}
}

func (rb *relBuilder) name2node(n *yaml.Node) (expr.NodeID, error) {
	if id, ok := rb.bindings[n.Value]; ok {
		return id, nil
	}
	v, ok := rb.set.vars[n.Value]
	if !ok {
		return expr.NoNode, rb.errorf(n, "%w: %q", ErrUnknownName, n.Value)
	}
	idx, ok := rb.index[n.Value]
	if !ok {
		idx = rb.b.AddVariable(v)
		rb.index[n.Value] = idx
	}
	return rb.b.Var(idx), nil
}

func (rb *relBuilder) apply(n *yaml.Node) (expr.NodeID, error) {
	if len(n.Content) != 2 {
		return expr.NoNode, rb.errorf(n, "%w: operator map must have exactly one key", ErrMalformed)
	}
	key, val := n.Content[0], n.Content[1]
	op, ok := expr.ParseOp(key.Value)
	if !ok {
		return expr.NoNode, rb.errorf(key, "%w: %q", ErrUnknownOperator, key.Value)
	}

	args := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		args = val.Content
	}
	if len(args) != op.Arity() {
		return expr.NoNode, rb.errorf(key, "%w: %s takes %d arguments, got %d", ErrMalformed, op, op.Arity(), len(args))
	}

	if op == expr.OpIPow {
		var exp int
		if args[1].ShortTag() != "!!int" || args[1].Decode(&exp) != nil {
			return expr.NoNode, rb.errorf(args[1], "%w: ipow exponent must be an integer literal", ErrMalformed)
		}
		base, err := rb.node(args[0])
		if err != nil {
			return expr.NoNode, err
		}
		return rb.b.IPow(base, exp), nil
	}

	ids := make([]expr.NodeID, len(args))
	for i, a := range args {
		id, err := rb.node(a)
		if err != nil {
			return expr.NoNode, err
		}
		ids[i] = id
	}
	return rb.b.Apply(op, ids...), nil
}
