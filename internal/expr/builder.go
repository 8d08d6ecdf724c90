package expr

// Builder assembles a relation DAG node by node. Handles returned by one call
// can be passed to any number of later calls, which is how shared
// subexpressions are expressed.
//
// The first invalid call is remembered and reported by Relation or Objective;
// later calls are ignored. A Builder produces a single relation.
//
//	x, y := expr.NewReal("x", 1), expr.NewReal("y", 2)
//	b := expr.NewBuilder(x, y)
//	s := b.Add(b.Var(1), b.Var(2))
//	rel, err := b.Relation("r", b.Mul(s, s), expr.RelEqual, b.Const(0))
type Builder struct {
	nodes []Node
	vars  []Variable
	err   error
}

// NewBuilder starts a relation whose incidence list is vars.
func NewBuilder(vars ...Variable) *Builder {
	return &Builder{vars: vars}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

// AddVariable appends v to the incidence list and returns its 1-based index.
func (b *Builder) AddVariable(v Variable) int {
	b.vars = append(b.vars, v)
	return len(b.vars)
}

// Const adds a constant node.
func (b *Builder) Const(v float64) NodeID {
	return b.push(Const(v))
}

// Var adds a reference to the 1-based variable index i.
func (b *Builder) Var(i int) NodeID {
	if b.err == nil && (i < 1 || i > len(b.vars)) {
		b.err = structural(NodeID(len(b.nodes)), ErrVarIndex, "index %d, builder has %d variables", i, len(b.vars))
	}
	return b.push(VarRef(i))
}

// Unary adds op applied to a.
func (b *Builder) Unary(op Op, a NodeID) NodeID {
	if b.err == nil && !op.IsUnary() {
		b.err = structural(NodeID(len(b.nodes)), ErrArity, "%s used as unary operator", op)
	}
	b.checkRef(a)
	return b.push(Unary(op, a))
}

// Binary adds op applied to a and c.
func (b *Builder) Binary(op Op, a, c NodeID) NodeID {
	if b.err == nil && !op.IsBinary() {
		b.err = structural(NodeID(len(b.nodes)), ErrArity, "%s used as binary operator", op)
	}
	b.checkRef(a)
	b.checkRef(c)
	return b.push(Binary(op, a, c))
}

// Add adds a + c.
func (b *Builder) Add(a, c NodeID) NodeID { return b.Binary(OpAdd, a, c) }

// Sub adds a - c.
func (b *Builder) Sub(a, c NodeID) NodeID { return b.Binary(OpSub, a, c) }

// Mul adds a * c.
func (b *Builder) Mul(a, c NodeID) NodeID { return b.Binary(OpMul, a, c) }

// Div adds a / c.
func (b *Builder) Div(a, c NodeID) NodeID { return b.Binary(OpDiv, a, c) }

// Pow adds a ^ c with a real exponent.
func (b *Builder) Pow(a, c NodeID) NodeID { return b.Binary(OpPow, a, c) }

// IPow adds a ^ n for an integer n.
func (b *Builder) IPow(a NodeID, n int) NodeID {
	return b.Binary(OpIPow, a, b.Const(float64(n)))
}

// Neg adds -a.
func (b *Builder) Neg(a NodeID) NodeID { return b.Unary(OpNeg, a) }

// Relation closes the builder into a token relation lhs relop rhs whose
// residual is lhs - rhs. An objective relop closes into Objective(name,
// lhs, relop) and rhs is ignored.
func (b *Builder) Relation(name string, lhs NodeID, relop Relop, rhs NodeID) (*Relation, error) {
	if relop.IsObjective() {
		return b.Objective(name, lhs, relop)
	}
	root := b.Sub(lhs, rhs)
	return b.finish(name, relop, root, lhs, rhs)
}

// Objective closes the builder into an objective relation whose residual is e.
func (b *Builder) Objective(name string, e NodeID, relop Relop) (*Relation, error) {
	if !relop.IsObjective() {
		relop = RelMinimize
	}
	return b.finish(name, relop, e, e, NoNode)
}

// Residual closes the builder into a relation whose residual is root itself.
func (b *Builder) Residual(name string, root NodeID) (*Relation, error) {
	return b.finish(name, RelEqual, root, root, NoNode)
}

func (b *Builder) finish(name string, relop Relop, root, lhs, rhs NodeID) (*Relation, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Relation{
		name:  name,
		kind:  RelToken,
		relop: relop,
		nodes: b.nodes,
		root:  root,
		lhs:   lhs,
		rhs:   rhs,
		vars:  b.vars,
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	b.nodes, b.vars = nil, nil
	return r, nil
}

func (b *Builder) checkRef(id NodeID) {
	if b.err == nil && (id < 0 || int(id) >= len(b.nodes)) {
		b.err = structural(NodeID(len(b.nodes)), ErrDangling, "operand %d", id)
	}
}

func (b *Builder) push(n Node) NodeID {
	b.nodes = append(b.nodes, n)
	return NodeID(len(b.nodes) - 1)
}

// Sqr adds a².
func (b *Builder) Sqr(a NodeID) NodeID { return b.Unary(OpSqr, a) }

// Apply adds op over args, dispatching on the operator arity.
func (b *Builder) Apply(op Op, args ...NodeID) NodeID {
	if len(args) != op.Arity() {
		if b.err == nil {
			b.err = structural(NodeID(len(b.nodes)), ErrArity, "%s takes %d operands, got %d", op, op.Arity(), len(args))
		}
		return b.push(Const(0))
	}
	if len(args) == 1 {
		return b.Unary(op, args[0])
	}
	return b.Binary(op, args[0], args[1])
}
