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

import (
	"bytes"
	"fmt"

	"github.com/krotik/common/stringutil"
)

/*
IndentationLevel is the indentation step (in spaces) the pretty printer
uses per nesting level.
*/
const IndentationLevel = 2

/*
String returns a tree dump of this node and its descendants, one line
per node, indented by nesting depth — a recursive
levelString-over-GenerateRollingString walk of the IR's own field set
instead of a generic Children list.
*/
func (n *Node) String() string {
	var buf bytes.Buffer
	n.levelString(0, &buf)
	return buf.String()
}

func (n *Node) levelString(indent int, buf *bytes.Buffer) {
	buf.WriteString(stringutil.GenerateRollingString(" ", indent*IndentationLevel))
	buf.WriteString(n.label())
	buf.WriteString("\n")

	for _, c := range n.children() {
		if c != nil {
			c.levelString(indent+1, buf)
		}
	}
}

func (n *Node) label() string {
	switch n.Kind {
	case KindVariable:
		if n.Generated {
			return fmt.Sprintf("variable: %s (generated)", n.Name)
		}
		return fmt.Sprintf("variable: %s", n.Name)

	case KindConstant:
		return fmt.Sprintf("constant: %#v", n.ConstValue)

	case KindName:
		return fmt.Sprintf("name: @%s", n.Name)

	case KindTag:
		return fmt.Sprintf("tag: #%s", n.Name)

	case KindScan:
		if n.Block != nil {
			return "scan: not(...)"
		}
		return fmt.Sprintf("scan: entity=%v attribute=%v needsEntity=%v", varName(n.ScanEntity), n.ScanAttribute, n.NeedsEntity)

	case KindExpression:
		return fmt.Sprintf("expression: %s", n.Op)

	case KindRecord:
		return fmt.Sprintf("record: action=%v variable=%s", n.RecordAction, varName(n.Variable))

	case KindAttribute:
		return fmt.Sprintf("attribute: %v (nonProjecting=%v)", n.AttrName, n.NonProjecting)

	case KindAttributeMutator:
		attr := ""
		if n.MutatorAttr != nil {
			attr = n.MutatorAttr.Image
		}
		return fmt.Sprintf("attributeMutator: %s.%s", varName(n.MutatorParent), attr)

	case KindAction:
		return fmt.Sprintf("action: %s %s.%s", n.ActionOp, varName(n.ActionEntity), n.ActionAttr)

	case KindFunctionRecord:
		return fmt.Sprintf("functionRecord: %s -> %s", n.Op, varName(n.Variable))

	case KindIfExpression:
		return "ifExpression"

	case KindIfBranch:
		return fmt.Sprintf("ifBranch (exclusive=%v)", n.Exclusive)

	case KindParenthesis:
		return "parenthesis"
	}

	return n.Kind
}

func varName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name
}

/*
children enumerates the subtree a node contributes to, pulled from
whichever kind-specific fields this node actually uses.
*/
func (n *Node) children() []*Node {
	var out []*Node

	switch n.Kind {
	case KindVariable:
		return nil
	}

	out = append(out, n.Args...)
	out = append(out, n.Attributes...)
	out = append(out, n.Items...)
	out = append(out, n.Branches...)

	if n.ScanEntity != nil {
		out = append(out, n.ScanEntity)
	}
	if v, ok := n.ScanAttribute.(*Node); ok {
		out = append(out, v)
	}
	if n.ScanValue != nil {
		out = append(out, n.ScanValue)
	}
	if n.AttrValue != nil {
		out = append(out, n.AttrValue)
	}
	if n.ActionValue != nil {
		out = append(out, n.ActionValue)
	}
	if n.FuncRecord != nil {
		out = append(out, n.FuncRecord)
	}
	if n.Variable != nil && n.Kind != KindFunctionRecord {
		out = append(out, n.Variable)
	}
	if n.Block != nil {
		out = append(out, n.Block.roots()...)
	}

	return out
}

/*
roots returns the top-level nodes this block carries, grouped by kind
rather than in source order: equalities first (flattened to their
left/right values), then scans, expressions, binds, commits — used by the pretty
printer to recurse into sub-blocks and by callers that want a single
flat walk of a block's contents.
*/
func (b *ParseBlock) roots() []*Node {
	var out []*Node

	for _, eq := range b.Equalities {
		out = append(out, eq[0], eq[1])
	}

	out = append(out, b.ScanLike...)
	out = append(out, b.Expressions...)
	out = append(out, b.Binds...)
	out = append(out, b.Commits...)

	return out
}

/*
String returns a tree dump of every node this block carries, headed by
the block's id and type.
*/
func (b *ParseBlock) String() string {
	var buf bytes.Buffer

	kind := b.Type
	if kind == "" {
		kind = "root"
	}
	fmt.Fprintf(&buf, "block %s (%s)\n", b.ID, kind)

	for _, n := range b.roots() {
		n.levelString(1, &buf)
	}

	return buf.String()
}
