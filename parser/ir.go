/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package parser

import "fmt"

/*
Node is a single IR node. Every grammar rule lowers into values of this
one type, discriminated by Kind: variable / constant / scan /
expression / record / attribute / attributeMutator / action /
functionRecord / ifExpression / ifBranch / name / tag / parenthesis.
*/
type Node struct {
	ID   string // "<blockId>|<n>", assigned by ParseBlock.makeNode
	Kind string

	From       []*Node     // contributing IR nodes, for provenance
	FromTokens []LexToken  // contributing tokens, for provenance
	Comments   []string    // preceding "//" comments folded onto this node

	// variable
	Name          string
	Generated     bool
	NonProjecting bool

	// constant
	ConstValue interface{} // string | float64 | bool

	// scan
	ScanEntity    *Node
	ScanAttribute interface{} // string | float64
	ScanValue     *Node
	NeedsEntity   bool
	Scopes        []string

	// expression / comparison / addition / multiplication (all share
	// Op + Args + an optional result-binding Variable)
	Op       string
	Args     []*Node
	Variable *Node

	// record
	Attributes      []*Node // attribute nodes
	RecordAction    interface{} // string | false
	ExtraProjection bool

	// attribute
	AttrName  interface{} // string | float64
	AttrValue *Node

	// attributeMutator
	MutatorAttr   *LexToken
	MutatorParent *Node

	// action
	ActionOp     string // "+" "-" "erase" "<-" ":" "="
	ActionEntity *Node
	ActionAttr   string
	ActionValue  *Node

	// functionRecord
	FuncRecord *Node
	Returns    []*Node // bound when a function record appears on the right of a parenthesis equality

	// ifExpression / ifBranch
	Branches  []*Node
	Outputs   []*Node
	Block     *ParseBlock
	Exclusive bool

	// parenthesis
	Items []*Node
}

// Node kind discriminants.
const (
	KindVariable         = "variable"
	KindConstant         = "constant"
	KindScan             = "scan"
	KindExpression       = "expression"
	KindRecord           = "record"
	KindAttribute        = "attribute"
	KindAttributeMutator = "attributeMutator"
	KindAction           = "action"
	KindFunctionRecord   = "functionRecord"
	KindIfExpression     = "ifExpression"
	KindIfBranch         = "ifBranch"
	KindName             = "name"
	KindTag              = "tag"
	KindParenthesis      = "parenthesis"
	KindComparison       = "comparison"
	KindAddition         = "addition"
	KindMultiplication   = "multiplication"
)

/*
ParseBlock is a per-block mutable IR container: the parsing scope a
statement is lowered into. Root blocks are created per
fenced code block; sub-blocks are created for negation and if/else
branches and share the parent's variableLookup by identity.
*/
type ParseBlock struct {
	ID     string
	Type   string // "" or "not"
	From   []*Node // provenance, for sub-blocks nested as statements

	nodeID int
	subID  int

	pendingComments []string // "//" comments not yet attached to a node

	Variables      map[string]*Node // names used within this block
	VariableLookup map[string]*Node // shared identity chain back to the root

	Equalities [][2]*Node
	ScanLike   []*Node
	Expressions []*Node
	Binds      []*Node
	Commits    []*Node

	parent *ParseBlock
}

/*
NewRootBlock creates a fresh root ParseBlock with its own variable
lookup table.
*/
func NewRootBlock(id string) *ParseBlock {
	return &ParseBlock{
		ID:             id,
		Variables:      make(map[string]*Node),
		VariableLookup: make(map[string]*Node),
	}
}

/*
ToVariable resolves name to its variable node, allocating one if this is
the first mention of name anywhere on the lookup chain. Every reference
— whether the identity came from this
block or from an ancestor via the shared VariableLookup map — is
recorded in this block's own Variables map.
*/
func (b *ParseBlock) ToVariable(name string, generated bool) *Node {
	v, ok := b.VariableLookup[name]

	if !ok {
		v = &Node{Kind: KindVariable, Name: name, Generated: generated}
		b.MakeNode(v)
		b.VariableLookup[name] = v
	}

	b.Variables[name] = v

	return v
}

/*
GeneratedVariable allocates a fresh synthetic variable whose name embeds
line/column so it cannot collide with another synthetic introduced at a
different source position.
*/
func (b *ParseBlock) GeneratedVariable(base string, line, col int) *Node {
	name := fmt.Sprintf("%s-%d-%d", base, line, col)
	return b.ToVariable(name, true)
}

/*
Equality records a match-section equality between two values.
*/
func (b *ParseBlock) Equality(a, b2 *Node) {
	b.Equalities = append(b.Equalities, [2]*Node{a, b2})
}

/*
Scan appends a scan-like node (scan, sub-block negation, or
ifExpression) to the block.
*/
func (b *ParseBlock) Scan(n *Node) {
	b.ScanLike = append(b.ScanLike, n)
}

/*
Expression appends an expression node to the block.
*/
func (b *ParseBlock) Expression(n *Node) {
	b.Expressions = append(b.Expressions, n)
}

/*
Bind appends a record produced by a "bind" action section.
*/
func (b *ParseBlock) Bind(n *Node) {
	b.Binds = append(b.Binds, n)
}

/*
Commit appends a record produced by a "commit" action section.
*/
func (b *ParseBlock) Commit(n *Node) {
	b.Commits = append(b.Commits, n)
}

/*
MakeNode assigns this block's next monotonic id to n if it does not
already carry one, and returns n for chaining.
*/
func (b *ParseBlock) MakeNode(n *Node) *Node {
	if n.ID == "" {
		n.ID = fmt.Sprintf("%s|%d", b.ID, b.nodeID)
		b.nodeID++
	}
	return n
}

/*
SubBlock allocates a child ParseBlock whose VariableLookup is the exact
same map as this block's — not a copy — so that a name first mentioned
inside the nested scope resolves to the same variable identity if later
referenced in an enclosing scope.
*/
func (b *ParseBlock) SubBlock() *ParseBlock {
	sub := &ParseBlock{
		ID:             fmt.Sprintf("%s|sub%d", b.ID, b.subID),
		Variables:      make(map[string]*Node),
		VariableLookup: b.VariableLookup,
		parent:         b,
	}
	b.subID++
	return sub
}

/*
asValue normalizes n to something usable as a value argument elsewhere:
a constant/variable/parenthesis node is returned as-is; otherwise its
result-binding Variable is returned if present; otherwise this is a
fatal InvariantError.
*/
func asValue(n *Node) (*Node, error) {
	if n == nil {
		return nil, newInvariantError("asValue called on a nil node")
	}

	switch n.Kind {
	case KindConstant, KindVariable, KindParenthesis:
		return n, nil
	}

	if n.Variable != nil {
		return n.Variable, nil
	}

	return nil, newInvariantError(fmt.Sprintf("asValue called on a %s node with no result variable", n.Kind))
}

/*
ifOutputs returns the output values an if/else expression binds: every
item of a parenthesis in source order, or the single value itself.
*/
func ifOutputs(n *Node) ([]*Node, error) {
	if n.Kind == KindParenthesis {
		outs := make([]*Node, 0, len(n.Items))
		for _, item := range n.Items {
			v, err := asValue(item)
			if err != nil {
				return nil, err
			}
			outs = append(outs, v)
		}
		return outs, nil
	}

	v, err := asValue(n)
	if err != nil {
		return nil, err
	}

	return []*Node{v}, nil
}
