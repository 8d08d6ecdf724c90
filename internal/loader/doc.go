// Package loader reads relation sets from files.
//
// A relation file declares a list of variables with their current values and
// a list of relations over them. Expressions are YAML trees: a number is a
// constant, a string names a variable or a binding, and a single-key map
// applies an operator to its arguments. Bindings declared under let are
// built once and shared by every use, so the relation DAG keeps them as
// single nodes.
//
// Example:
//
//	variables:
//	  - {name: x, value: 1}
//	  - {name: y, value: 2}
//	  - {name: z, value: 0}
//	relations:
//	  - name: square
//	    let:
//	      - {name: s, expr: {add: [x, y]}}
//	    lhs: {mul: [s, s]}
//	    relop: "="
//	    rhs: z
//	  - name: cost
//	    relop: minimize
//	    lhs: {div: [x, {sqr: y}]}
//	  - name: external
//	    kind: blackbox
//	    vars: [x, y]
//
// Variables are shared between relations: setting a value through the Set
// is seen by every relation that references it. Each relation's variable
// list holds the variables it references in order of first appearance.
package loader
