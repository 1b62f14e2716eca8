/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package parser implements the lexer and the recursive-descent
parser/lowerer for the DSL: a two-tier front end that turns a fenced
code block's source text directly into a ParseBlock IR, with no
intermediate surface AST. Grammar rules both recognize syntax and
mutate the current ParseBlock as they descend, in the style the
teacher repo's combined parse-and-build recursive-descent parser uses.
*/
package parser

import (
	"fmt"
	"strings"

	"github.com/krotik/common/errorutil"
	"github.com/krotik/weave/config"
)

/*
parser holds the mutable state of one block parse: the lookahead token
buffer, the stack of active ParseBlocks (root plus any nested
sub-blocks from negation/if branches), and the accumulated errors.
Recovery is disabled: the first error halts this block's parse.
*/
type parser struct {
	name string
	la   *LABuffer

	blockStack []*ParseBlock
	block      *ParseBlock

	errors []*ParseError
}

/*
ParseCodeBlock parses one block's DSL source (already stripped of its
markdown fence lines) into a root ParseBlock, starting the lexer in
code mode. Returns the block's IR and any
accumulated errors; if errs is non-empty the IR may be incomplete.
*/
func ParseCodeBlock(name string, blockID string, source string) (block *ParseBlock, errs []*ParseError) {
	root := NewRootBlock(blockID)

	p := &parser{
		name: name,
		la:   NewLABuffer(LexCode(name, source), config.Int(config.LookaheadSize)),
	}

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				p.errors = append(p.errors, NewParseError(name, ErrInvalidStatement, ie.Error(), nil))
			} else {
				panic(r)
			}
		}
		block = root
		errs = p.errors
	}()

	p.pushBlock(root)
	p.parseCodeBlockBody()
	p.popBlock(root)

	return root, p.errors
}

// Block stack
// ===========

func (p *parser) pushBlock(b *ParseBlock) {
	p.blockStack = append(p.blockStack, b)
	p.block = b
}

func (p *parser) popBlock(expect *ParseBlock) {
	errorutil.AssertTrue(len(p.blockStack) > 0, "block stack underflow")

	top := p.blockStack[len(p.blockStack)-1]
	errorutil.AssertTrue(top == expect, "block stack pop does not match the block that was pushed")

	p.blockStack = p.blockStack[:len(p.blockStack)-1]

	if len(p.blockStack) > 0 {
		p.block = p.blockStack[len(p.blockStack)-1]
	} else {
		p.block = nil
	}
}

// Token helpers
// =============

func (p *parser) peek(n int) LexToken {
	t, _ := p.la.Peek(n)
	return t
}

func (p *parser) next() LexToken {
	t, _ := p.la.Next()
	return t
}

func (p *parser) expect(id LexTokenID) (LexToken, error) {
	t := p.peek(0)
	if t.ID != id {
		return t, p.unexpected(t, tokenNames[id])
	}
	return p.next(), nil
}

func (p *parser) unexpected(t LexToken, wanted string) error {
	if t.ID == TokenError {
		return NewParseError(p.name, ErrLexicalError, t.Image, &t)
	}
	return NewParseError(p.name, ErrUnexpectedToken, fmt.Sprintf("expected %s but found %s", wanted, t.String()), &t)
}

func (p *parser) consumeComment() {
	t := p.next()
	p.block.pendingComments = append(p.block.pendingComments, t.Image)
}

func (p *parser) takeComments() []string {
	c := p.block.pendingComments
	p.block.pendingComments = nil
	return c
}

func isComparisonToken(id LexTokenID) bool {
	switch id {
	case TokenGEQ, TokenLEQ, TokenNEQ, TokenGT, TokenLT:
		return true
	}
	return false
}

func isSectionKeyword(id LexTokenID) bool {
	return id == TokenMATCH || id == TokenBIND || id == TokenCOMMIT
}

func opLabel(id LexTokenID) string {
	switch id {
	case TokenGEQ:
		return ">="
	case TokenLEQ:
		return "<="
	case TokenNEQ:
		return "!="
	case TokenGT:
		return ">"
	case TokenLT:
		return "<"
	case TokenEQUALITY:
		return "=="
	case TokenADDINFIX:
		return "+"
	case TokenSUBINFIX:
		return "-"
	case TokenMULTINFIX:
		return "*"
	case TokenDIVINFIX:
		return "/"
	}
	return tokenNames[id]
}

func attrNameFromToken(t LexToken) interface{} {
	if t.ID == TokenNUMBER {
		if f, err := unquoteNumber(t.Image); err == nil {
			return f
		}
	}
	return t.Image
}

func asParseError(source string, err error) *ParseError {
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	return NewParseError(source, ErrInvalidStatement, err.Error(), nil)
}

// Code block / sections
// =====================

/*
parseCodeBlockBody lowers a sequence of sections ("match"/"bind"/"commit")
directly into the current (root) block, halting on the first error.
*/
func (p *parser) parseCodeBlockBody() {
	for {
		tok := p.peek(0)

		if tok.ID == TokenEOF || tok.ID == TokenCLOSEFENCE {
			return
		}

		if tok.ID == TokenCOMMENT {
			p.consumeComment()
			continue
		}

		if err := p.parseSection(); err != nil {
			p.errors = append(p.errors, asParseError(p.name, err))
			return
		}
	}
}

func (p *parser) parseSection() error {
	tok := p.peek(0)

	switch tok.ID {
	case TokenMATCH:
		return p.parseMatchSection()
	case TokenBIND:
		return p.parseActionSection("bind")
	case TokenCOMMIT:
		return p.parseActionSection("commit")
	}

	return p.unexpected(tok, "match, bind or commit")
}

/*
parseScopeDeclarationOrDefault recognizes the unambiguous parenthesized
scope-list form "(" identifier+ ")" immediately after a section keyword.
A bare single identifier is not treated as a scope declaration — it
would be indistinguishable from the first statement's own leading
identifier — so it always falls through to the default scope; see
DESIGN.md.
*/
func (p *parser) parseScopeDeclarationOrDefault(def []string) ([]string, error) {
	if p.peek(0).ID != TokenLPAREN {
		return def, nil
	}

	p.next()

	var scopes []string
	for p.peek(0).ID == TokenIDENTIFIER {
		scopes = append(scopes, p.next().Image)
	}

	if _, err := p.expect(TokenRPAREN); err != nil {
		return nil, err
	}

	if len(scopes) == 0 {
		return def, nil
	}

	return scopes, nil
}

func (p *parser) parseMatchSection() error {
	p.next() // "match"

	scopes, err := p.parseScopeDeclarationOrDefault(config.StrList(config.DefaultScope))
	if err != nil {
		return err
	}

	for {
		tok := p.peek(0)

		if tok.ID == TokenEOF || tok.ID == TokenCLOSEFENCE || isSectionKeyword(tok.ID) {
			return nil
		}

		if tok.ID == TokenCOMMENT {
			p.consumeComment()
			continue
		}

		if _, err := p.parseStatement(scopes); err != nil {
			return err
		}
	}
}

func (p *parser) parseActionSection(key string) error {
	p.next() // "bind" / "commit"

	scopes, err := p.parseScopeDeclarationOrDefault(config.StrList(config.DefaultScope))
	if err != nil {
		return err
	}

	for {
		tok := p.peek(0)

		if tok.ID == TokenEOF || tok.ID == TokenCLOSEFENCE || isSectionKeyword(tok.ID) {
			return nil
		}

		if tok.ID == TokenCOMMENT {
			p.consumeComment()
			continue
		}

		if err := p.parseActionStatement(scopes, key); err != nil {
			return err
		}
	}
}

// appendScan/appendBind/appendCommit are method values bound to p.block
// lazily at call time (p.block may rotate between root and sub-blocks
// across a single parse), used as the blockKey callback threaded down
// through parseRecord.

func (p *parser) appendScan(n *Node) {
	p.block.Scan(n)
}

func (p *parser) appendBind(n *Node) {
	p.block.Bind(n)
}

func (p *parser) appendCommit(n *Node) {
	p.block.Commit(n)
}

// Statement (match)
// =================

func (p *parser) parseStatement(scopes []string) (*Node, error) {
	tok := p.peek(0)

	if tok.ID == TokenCOMMENT {
		p.consumeComment()
		return nil, nil
	}

	comments := p.takeComments()

	var n *Node
	var err error

	if tok.ID == TokenNOT {
		n, err = p.parseNotStatement(scopes)
	} else {
		n, err = p.parseComparison(scopes, false)
	}

	if err == nil && n != nil && len(comments) > 0 {
		n.Comments = append(n.Comments, comments...)
	}

	return n, err
}

func (p *parser) parseNotStatement(scopes []string) (*Node, error) {
	notTok := p.next() // "not"

	if _, err := p.expect(TokenLPAREN); err != nil {
		return nil, err
	}

	sub := p.block.SubBlock()
	sub.Type = "not"

	p.pushBlock(sub)

	for {
		tok := p.peek(0)

		if tok.ID == TokenRPAREN {
			break
		}

		if tok.ID == TokenCOMMENT {
			p.consumeComment()
			continue
		}

		if _, err := p.parseStatement(scopes); err != nil {
			p.popBlock(sub)
			return nil, err
		}
	}

	p.popBlock(sub)

	if _, err := p.expect(TokenRPAREN); err != nil {
		return nil, err
	}

	wrap := &Node{Kind: KindScan, Block: sub, FromTokens: []LexToken{notTok}}
	p.block.MakeNode(wrap)
	p.block.Scan(wrap)

	return wrap, nil
}

// Comparison
// ==========

func (p *parser) parseComparison(scopes []string, nonFiltering bool) (*Node, error) {
	left, err := p.parseExpression(scopes)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek(0)

		isEquality := tok.ID == TokenEQUALITY
		isCmp := isComparisonToken(tok.ID)

		if !isEquality && !isCmp {
			break
		}

		opTok := p.next()

		var right *Node
		if isEquality && p.peek(0).ID == TokenIF {
			right, err = p.parseIfExpression(scopes)
		} else {
			right, err = p.parseExpression(scopes)
		}
		if err != nil {
			return nil, err
		}

		if nonFiltering {
			lv, err := asValue(left)
			if err != nil {
				return nil, err
			}
			rv, err := asValue(right)
			if err != nil {
				return nil, err
			}

			resVar := p.block.GeneratedVariable("cmp", opTok.Line, opTok.Column)
			n := &Node{Kind: KindExpression, Op: opLabel(opTok.ID), Args: []*Node{lv, rv}, Variable: resVar, FromTokens: []LexToken{opTok}}
			p.block.MakeNode(n)
			p.block.Expression(n)

			left = n
			continue
		}

		if isEquality {
			switch {
			case right.Kind == KindIfExpression:
				outs, err := ifOutputs(left)
				if err != nil {
					return nil, err
				}
				right.Outputs = outs
				p.block.Scan(right)

			case right.Kind == KindFunctionRecord && left.Kind == KindParenthesis:
				rets := make([]*Node, 0, len(left.Items))
				for _, item := range left.Items {
					v, err := asValue(item)
					if err != nil {
						return nil, err
					}
					rets = append(rets, v)
				}
				right.Returns = rets
				if len(rets) > 0 {
					p.block.Equality(rets[0], right)
				}

			case left.Kind == KindParenthesis:
				return nil, newInvariantError("left parenthesis without if or function on right of equality")

			default:
				lv, err := asValue(left)
				if err != nil {
					return nil, err
				}
				rv, err := asValue(right)
				if err != nil {
					return nil, err
				}
				p.block.Equality(lv, rv)
			}
		} else {
			lv, err := asValue(left)
			if err != nil {
				return nil, err
			}
			rv, err := asValue(right)
			if err != nil {
				return nil, err
			}

			n := &Node{Kind: KindExpression, Op: opLabel(opTok.ID), Args: []*Node{lv, rv}, FromTokens: []LexToken{opTok}}
			p.block.MakeNode(n)
			p.block.Expression(n)
		}

		left = right
	}

	return left, nil
}

// Expression / infix
// ===================

func (p *parser) parseExpression(scopes []string) (*Node, error) {
	if p.peek(0).ID == TokenLBRACK {
		return p.parseRecord(scopes, nil, false, p.appendScan)
	}
	return p.parseAddition(scopes)
}

func (p *parser) parseAddition(scopes []string) (*Node, error) {
	left, err := p.parseMultiplication(scopes)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek(0)
		if tok.ID != TokenADDINFIX && tok.ID != TokenSUBINFIX {
			break
		}
		p.next()

		right, err := p.parseMultiplication(scopes)
		if err != nil {
			return nil, err
		}

		lv, err := asValue(left)
		if err != nil {
			return nil, err
		}
		rv, err := asValue(right)
		if err != nil {
			return nil, err
		}

		resVar := p.block.GeneratedVariable("add", tok.Line, tok.Column)
		n := &Node{Kind: KindExpression, Op: opLabel(tok.ID), Args: []*Node{lv, rv}, Variable: resVar, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)

		left = n
	}

	return left, nil
}

func (p *parser) parseMultiplication(scopes []string) (*Node, error) {
	left, err := p.parseInfixValue(scopes)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek(0)
		if tok.ID != TokenMULTINFIX && tok.ID != TokenDIVINFIX {
			break
		}
		p.next()

		right, err := p.parseInfixValue(scopes)
		if err != nil {
			return nil, err
		}

		lv, err := asValue(left)
		if err != nil {
			return nil, err
		}
		rv, err := asValue(right)
		if err != nil {
			return nil, err
		}

		resVar := p.block.GeneratedVariable("mul", tok.Line, tok.Column)
		n := &Node{Kind: KindExpression, Op: opLabel(tok.ID), Args: []*Node{lv, rv}, Variable: resVar, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)

		left = n
	}

	return left, nil
}

func (p *parser) parseInfixValue(scopes []string) (*Node, error) {
	tok := p.peek(0)

	switch tok.ID {
	case TokenLPAREN:
		return p.parseParenthesis(scopes)

	case TokenIS:
		return p.parseIsExpression(scopes)

	case TokenIDENTIFIER:
		next1 := p.peek(1)

		if next1.ID == TokenLBRACK {
			return p.parseFunctionRecord(scopes)
		}

		if next1.ID == TokenDOT {
			p.next()
			return p.parseAttributeAccess(scopes, tok)
		}

		p.next()
		return p.block.ToVariable(tok.Image, false), nil

	case TokenSTRINGOPEN, TokenNUMBER, TokenTRUE, TokenFALSE, TokenNONE, TokenUUID:
		return p.parseValue(scopes)
	}

	return nil, p.unexpected(tok, "value")
}

func (p *parser) parseParenthesis(scopes []string) (*Node, error) {
	open := p.next() // "("

	var items []*Node

	for {
		v, err := p.parseExpression(scopes)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		if p.peek(0).ID == TokenRPAREN {
			break
		}
	}

	if _, err := p.expect(TokenRPAREN); err != nil {
		return nil, err
	}

	if len(items) == 1 {
		return items[0], nil
	}

	n := &Node{Kind: KindParenthesis, Items: items, FromTokens: []LexToken{open}}
	p.block.MakeNode(n)

	return n, nil
}

func (p *parser) parseValue(scopes []string) (*Node, error) {
	tok := p.peek(0)

	switch tok.ID {
	case TokenSTRINGOPEN:
		return p.parseStringInterpolation(scopes)

	case TokenNUMBER:
		p.next()
		f, err := unquoteNumber(tok.Image)
		if err != nil {
			return nil, p.unexpected(tok, "number")
		}
		n := &Node{Kind: KindConstant, ConstValue: f, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		return n, nil

	case TokenTRUE, TokenFALSE:
		p.next()
		n := &Node{Kind: KindConstant, ConstValue: tok.ID == TokenTRUE, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		return n, nil

	case TokenNONE:
		p.next()
		n := &Node{Kind: KindConstant, ConstValue: nil, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		return n, nil

	case TokenUUID:
		p.next()
		n := &Node{Kind: KindConstant, ConstValue: strings.Trim(tok.Image, "⦑⦒"), FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		return n, nil
	}

	return nil, p.unexpected(tok, "value")
}

func (p *parser) parseStringInterpolation(scopes []string) (*Node, error) {
	open, err := p.expect(TokenSTRINGOPEN)
	if err != nil {
		return nil, err
	}

	var parts []*Node

	for {
		tok := p.peek(0)

		if tok.ID == TokenSTRINGCLOSE {
			p.next()
			break
		}

		if tok.ID == TokenSTRINGCHARS {
			p.next()
			parts = append(parts, &Node{Kind: KindConstant, ConstValue: decodeStringEscapes(tok.Image), FromTokens: []LexToken{tok}})
			continue
		}

		if tok.ID == TokenSTRINGEMBEDOPEN {
			p.next()

			inner, err := p.parseAddition(scopes)
			if err != nil {
				return nil, err
			}

			v, err := asValue(inner)
			if err != nil {
				return nil, err
			}
			parts = append(parts, v)

			if _, err := p.expect(TokenSTRINGEMBEDCLOSE); err != nil {
				return nil, err
			}
			continue
		}

		return nil, p.unexpected(tok, "string content")
	}

	if len(parts) == 0 {
		n := &Node{Kind: KindConstant, ConstValue: "", FromTokens: []LexToken{open}}
		p.block.MakeNode(n)
		return n, nil
	}

	if len(parts) == 1 && parts[0].Kind == KindConstant {
		return parts[0], nil
	}

	resVar := p.block.GeneratedVariable("concat", open.Line, open.Column)
	n := &Node{Kind: KindExpression, Op: "concat", Args: parts, Variable: resVar, FromTokens: []LexToken{open}}
	p.block.MakeNode(n)
	p.block.Expression(n)

	return n, nil
}

// Attribute access / mutator
// ==========================

func (p *parser) parseAttributeAccess(scopes []string, base LexToken) (*Node, error) {
	entity := p.block.ToVariable(base.Image, false)
	var last *Node
	first := true

	for p.peek(0).ID == TokenDOT {
		p.next()

		attrTok, err := p.expect(TokenIDENTIFIER)
		if err != nil {
			return nil, err
		}

		val := p.block.GeneratedVariable("attr", attrTok.Line, attrTok.Column)

		scan := &Node{Kind: KindScan, ScanEntity: entity, ScanAttribute: attrTok.Image, ScanValue: val, NeedsEntity: first, Scopes: scopes, FromTokens: []LexToken{attrTok}}
		p.block.MakeNode(scan)
		p.block.Scan(scan)

		entity = val
		last = val
		first = false
	}

	return last, nil
}

func (p *parser) parseAttributeMutator(scopes []string, base LexToken) (*Node, error) {
	entity := p.block.ToVariable(base.Image, false)
	first := true

	for {
		if p.peek(0).ID != TokenDOT {
			return nil, p.unexpected(p.peek(0), ".")
		}
		p.next()

		attrTok, err := p.expect(TokenIDENTIFIER)
		if err != nil {
			return nil, err
		}

		next := p.peek(0).ID
		if next == TokenSET || next == TokenMERGE || next == TokenMUTATEADD || next == TokenMUTATESUB {
			mut := &Node{Kind: KindAttributeMutator, MutatorAttr: &attrTok, MutatorParent: entity, FromTokens: []LexToken{attrTok}}
			p.block.MakeNode(mut)
			return mut, nil
		}

		val := p.block.GeneratedVariable("attr", attrTok.Line, attrTok.Column)
		scan := &Node{Kind: KindScan, ScanEntity: entity, ScanAttribute: attrTok.Image, ScanValue: val, NeedsEntity: first, Scopes: scopes, FromTokens: []LexToken{attrTok}}
		p.block.MakeNode(scan)
		p.block.Scan(scan)

		entity = val
		first = false
	}
}

// Function record / is / if
// ==========================

func (p *parser) parseFunctionRecord(scopes []string) (*Node, error) {
	identTok := p.next()

	rec, err := p.parseRecord(scopes, nil, true, nil)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(identTok.Image, "lookup") {
		slots := make(map[string]*Node)
		for _, a := range rec.Attributes {
			slots[fmt.Sprint(a.AttrName)] = a.AttrValue
		}

		scan := &Node{Kind: KindScan, Scopes: scopes, FromTokens: []LexToken{identTok}}
		scan.ScanEntity = slots["record"]
		if v, ok := slots["attribute"]; ok {
			scan.ScanAttribute = v
		}
		scan.ScanValue = slots["value"]
		if v, ok := slots["node"]; ok {
			scan.Args = []*Node{v}
		}
		scan.NeedsEntity = scan.ScanEntity != nil

		p.block.MakeNode(scan)
		p.block.Scan(scan)

		return scan, nil
	}

	retVar := p.block.GeneratedVariable("fn", identTok.Line, identTok.Column)
	fr := &Node{Kind: KindFunctionRecord, Op: identTok.Image, FuncRecord: rec, Variable: retVar, FromTokens: []LexToken{identTok}}
	p.block.MakeNode(fr)
	p.block.Expression(fr)

	return fr, nil
}

func (p *parser) parseIsExpression(scopes []string) (*Node, error) {
	isTok := p.next() // "is"

	if _, err := p.expect(TokenLPAREN); err != nil {
		return nil, err
	}

	var args []*Node
	for p.peek(0).ID != TokenRPAREN {
		cmp, err := p.parseComparison(scopes, true)
		if err != nil {
			return nil, err
		}
		v, err := asValue(cmp)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if _, err := p.expect(TokenRPAREN); err != nil {
		return nil, err
	}

	resVar := p.block.GeneratedVariable("is", isTok.Line, isTok.Column)
	n := &Node{Kind: KindExpression, Op: "and", Args: args, Variable: resVar, FromTokens: []LexToken{isTok}}
	p.block.MakeNode(n)
	p.block.Expression(n)

	return n, nil
}

func (p *parser) parseIfExpression(scopes []string) (*Node, error) {
	first, err := p.parseIfBranch(scopes, false)
	if err != nil {
		return nil, err
	}

	branches := []*Node{first}

	for p.peek(0).ID == TokenELSE {
		if p.peek(1).ID == TokenIF {
			p.next() // "else"
			br, err := p.parseIfBranch(scopes, true)
			if err != nil {
				return nil, err
			}
			branches = append(branches, br)
			continue
		}

		p.next() // "else"
		br, err := p.parseElseBranch(scopes)
		if err != nil {
			return nil, err
		}
		branches = append(branches, br)
		break
	}

	n := &Node{Kind: KindIfExpression, Branches: branches}
	p.block.MakeNode(n)

	return n, nil
}

func (p *parser) parseIfBranch(scopes []string, exclusive bool) (*Node, error) {
	ifTok, err := p.expect(TokenIF)
	if err != nil {
		return nil, err
	}

	sub := p.block.SubBlock()
	p.pushBlock(sub)

	for p.peek(0).ID != TokenTHEN {
		if _, err := p.parseStatement(scopes); err != nil {
			p.popBlock(sub)
			return nil, err
		}
	}

	if _, err := p.expect(TokenTHEN); err != nil {
		p.popBlock(sub)
		return nil, err
	}

	result, err := p.parseExpression(scopes)
	if err != nil {
		p.popBlock(sub)
		return nil, err
	}

	p.popBlock(sub)

	outs, err := ifOutputs(result)
	if err != nil {
		return nil, err
	}

	branch := &Node{Kind: KindIfBranch, Block: sub, Outputs: outs, Exclusive: exclusive, FromTokens: []LexToken{ifTok}}
	p.block.MakeNode(branch)

	return branch, nil
}

func (p *parser) parseElseBranch(scopes []string) (*Node, error) {
	sub := p.block.SubBlock()
	p.pushBlock(sub)

	result, err := p.parseExpression(scopes)

	p.popBlock(sub)

	if err != nil {
		return nil, err
	}

	outs, err := ifOutputs(result)
	if err != nil {
		return nil, err
	}

	branch := &Node{Kind: KindIfBranch, Block: sub, Outputs: outs, Exclusive: true}
	p.block.MakeNode(branch)

	return branch, nil
}

// Record / attribute
// ===================

func (p *parser) parseRecord(scopes []string, action interface{}, noVar bool, appendFn func(*Node)) (*Node, error) {
	open, err := p.expect(TokenLBRACK)
	if err != nil {
		return nil, err
	}

	node := &Node{Kind: KindRecord, Scopes: scopes, RecordAction: action, FromTokens: []LexToken{open}}

	if !noVar {
		node.Variable = p.block.GeneratedVariable("record", open.Line, open.Column)
		node.Variable.NonProjecting = true
	}
	p.block.MakeNode(node)

	nonProjecting := false

	for {
		tok := p.peek(0)

		if tok.ID == TokenRBRACK {
			p.next()
			break
		}

		if tok.ID == TokenEOF || tok.ID == TokenCLOSEFENCE {
			return nil, p.unexpected(tok, "]")
		}

		if tok.ID == TokenPIPE {
			p.next()
			nonProjecting = true
			continue
		}

		if tok.ID == TokenCOMMENT {
			p.consumeComment()
			continue
		}

		attr, err := p.parseAttribute(scopes, node, nonProjecting, appendFn)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			node.Attributes = append(node.Attributes, attr)
		}
	}

	if !noVar && appendFn != nil {
		appendFn(node)
	}

	return node, nil
}

func (p *parser) parseAttribute(scopes []string, record *Node, nonProjecting bool, appendFn func(*Node)) (*Node, error) {
	tok := p.peek(0)

	switch {
	case tok.ID == TokenNOT:
		return p.parseAttributeNot(scopes, record)

	case tok.ID == TokenAT || tok.ID == TokenHASH:
		return p.parseSingularAttribute(nonProjecting, false)

	case tok.ID == TokenIDENTIFIER || tok.ID == TokenNUMBER:
		next1 := p.peek(1)

		if next1.ID == TokenEQUALITY {
			return p.parseAttributeEquality(scopes, nonProjecting, appendFn)
		}
		if isComparisonToken(next1.ID) {
			return p.parseAttributeComparison(scopes, nonProjecting)
		}
		return p.parseSingularAttribute(nonProjecting, false)
	}

	return nil, p.unexpected(tok, "attribute")
}

func (p *parser) parseSingularAttribute(nonProjecting bool, forceGenerate bool) (*Node, error) {
	tok := p.peek(0)

	switch tok.ID {
	case TokenAT:
		p.next()
		identTok, err := p.expect(TokenIDENTIFIER)
		if err != nil {
			return nil, err
		}
		name := &Node{Kind: KindName, Name: identTok.Image, FromTokens: []LexToken{tok, identTok}}
		p.block.MakeNode(name)

		attr := &Node{Kind: KindAttribute, AttrName: "name", AttrValue: name, NonProjecting: nonProjecting, FromTokens: []LexToken{tok, identTok}}
		p.block.MakeNode(attr)
		return attr, nil

	case TokenHASH:
		p.next()
		identTok, err := p.expect(TokenIDENTIFIER)
		if err != nil {
			return nil, err
		}
		tagNode := &Node{Kind: KindTag, Name: identTok.Image, FromTokens: []LexToken{tok, identTok}}
		p.block.MakeNode(tagNode)

		attr := &Node{Kind: KindAttribute, AttrName: "tag", AttrValue: tagNode, NonProjecting: nonProjecting, FromTokens: []LexToken{tok, identTok}}
		p.block.MakeNode(attr)
		return attr, nil

	case TokenIDENTIFIER:
		identTok := p.next()

		var v *Node
		if forceGenerate {
			v = p.block.GeneratedVariable(identTok.Image, identTok.Line, identTok.Column)
		} else {
			v = p.block.ToVariable(identTok.Image, false)
		}

		attr := &Node{Kind: KindAttribute, AttrName: identTok.Image, AttrValue: v, NonProjecting: nonProjecting, FromTokens: []LexToken{identTok}}
		p.block.MakeNode(attr)
		return attr, nil
	}

	return nil, p.unexpected(tok, "attribute")
}

func (p *parser) parseAttributeEquality(scopes []string, nonProjecting bool, appendFn func(*Node)) (*Node, error) {
	nameTok := p.next()
	if _, err := p.expect(TokenEQUALITY); err != nil {
		return nil, err
	}

	attrName := attrNameFromToken(nameTok)

	if p.peek(0).ID == TokenLBRACK {
		var records []*Node
		for p.peek(0).ID == TokenLBRACK {
			rec, err := p.parseRecord(scopes, nil, false, appendFn)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		var attrValue *Node
		if len(records) == 1 {
			attrValue = records[0]
		} else {
			for i, rec := range records {
				idxVal := &Node{Kind: KindConstant, ConstValue: float64(i + 1)}
				p.block.MakeNode(idxVal)
				idxAttr := &Node{Kind: KindAttribute, AttrName: "eve-auto-index", AttrValue: idxVal}
				p.block.MakeNode(idxAttr)
				rec.Attributes = append(rec.Attributes, idxAttr)
			}
			attrValue = &Node{Kind: KindParenthesis, Items: records}
			p.block.MakeNode(attrValue)
		}

		attr := &Node{Kind: KindAttribute, AttrName: attrName, AttrValue: attrValue, NonProjecting: nonProjecting, FromTokens: []LexToken{nameTok}}
		p.block.MakeNode(attr)
		return attr, nil
	}

	val, err := p.parseAddition(scopes)
	if err != nil {
		return nil, err
	}
	v, err := asValue(val)
	if err != nil {
		return nil, err
	}

	attr := &Node{Kind: KindAttribute, AttrName: attrName, AttrValue: v, NonProjecting: nonProjecting, FromTokens: []LexToken{nameTok}}
	p.block.MakeNode(attr)
	return attr, nil
}

func (p *parser) parseAttributeComparison(scopes []string, nonProjecting bool) (*Node, error) {
	nameTok := p.next()
	opTok := p.next()

	right, err := p.parseExpression(scopes)
	if err != nil {
		return nil, err
	}
	rv, err := asValue(right)
	if err != nil {
		return nil, err
	}

	attrVar := p.block.GeneratedVariable(fmt.Sprint(attrNameFromToken(nameTok)), nameTok.Line, nameTok.Column)

	expr := &Node{Kind: KindExpression, Op: opLabel(opTok.ID), Args: []*Node{attrVar, rv}, Variable: attrVar, FromTokens: []LexToken{opTok}}
	p.block.MakeNode(expr)
	p.block.Expression(expr)

	attr := &Node{Kind: KindAttribute, AttrName: attrNameFromToken(nameTok), AttrValue: attrVar, NonProjecting: nonProjecting, FromTokens: []LexToken{nameTok}}
	p.block.MakeNode(attr)
	return attr, nil
}

func (p *parser) parseAttributeNot(scopes []string, record *Node) (*Node, error) {
	notTok := p.next() // "not"

	if _, err := p.expect(TokenLPAREN); err != nil {
		return nil, err
	}

	sub := p.block.SubBlock()
	sub.Type = "not"
	p.pushBlock(sub)

	tok := p.peek(0)
	next1 := p.peek(1)

	var inner *Node
	var err error
	if tok.ID == TokenIDENTIFIER && isComparisonToken(next1.ID) {
		inner, err = p.parseAttributeComparison(scopes, false)
	} else {
		inner, err = p.parseSingularAttribute(false, true)
	}
	if err != nil {
		p.popBlock(sub)
		return nil, err
	}

	scan := &Node{Kind: KindScan, ScanEntity: record.Variable, ScanAttribute: inner.AttrName, ScanValue: inner.AttrValue, NeedsEntity: true, Scopes: scopes, FromTokens: []LexToken{notTok}}
	sub.MakeNode(scan)
	sub.Scan(scan)

	if record.Variable != nil {
		sub.Variables[record.Variable.Name] = record.Variable
	}

	p.popBlock(sub)

	if _, err := p.expect(TokenRPAREN); err != nil {
		return nil, err
	}

	wrap := &Node{Kind: KindScan, Block: sub, FromTokens: []LexToken{notTok}}
	p.block.MakeNode(wrap)
	p.block.Scan(wrap)

	return nil, nil
}

// Action statements
// =================

func (p *parser) parseActionStatement(scopes []string, key string) error {
	tok := p.peek(0)

	var appendFn func(*Node)
	if key == "bind" {
		appendFn = p.appendBind
	} else {
		appendFn = p.appendCommit
	}

	switch {
	case tok.ID == TokenCOMMENT:
		p.consumeComment()
		return nil

	case tok.ID == TokenLBRACK:
		_, err := p.parseRecord(scopes, "+=", false, appendFn)
		return err

	case tok.ID == TokenIDENTIFIER:
		next1 := p.peek(1)

		if next1.ID == TokenEQUALITY && p.peek(2).ID == TokenLBRACK {
			return p.parseActionEqualityRecord(scopes, appendFn)
		}

		if next1.ID == TokenDOT {
			return p.parseAttributeOperation(scopes, appendFn)
		}

		if next1.ID == TokenSET || next1.ID == TokenMERGE || next1.ID == TokenMUTATEADD || next1.ID == TokenMUTATESUB {
			return p.parseRecordOperation(scopes, appendFn)
		}

		return p.unexpected(next1, "action operation")
	}

	return p.unexpected(tok, "action statement")
}

func (p *parser) parseActionEqualityRecord(scopes []string, appendFn func(*Node)) error {
	nameTok := p.next()
	if _, err := p.expect(TokenEQUALITY); err != nil {
		return err
	}

	rec, err := p.parseRecord(scopes, "+=", false, appendFn)
	if err != nil {
		return err
	}

	rec.Variable = p.block.ToVariable(nameTok.Image, false)

	return nil
}

func (p *parser) parseRecordOperation(scopes []string, appendFn func(*Node)) error {
	nameTok := p.next()
	entity := p.block.ToVariable(nameTok.Image, false)

	tok := p.peek(0)

	switch tok.ID {
	case TokenSET:
		p.next()
		if _, err := p.expect(TokenNONE); err != nil {
			return err
		}
		n := &Node{Kind: KindAction, ActionOp: "erase", ActionEntity: entity, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)
		return nil

	case TokenMERGE:
		p.next()
		rec, err := p.parseRecord(scopes, "<-", true, nil)
		if err != nil {
			return err
		}
		rec.Variable = entity
		rec.NeedsEntity = true
		appendFn(rec)
		return nil

	case TokenMUTATEADD, TokenMUTATESUB:
		p.next()
		opImage := tok.Image

		valTok := p.peek(0)
		var attrName string
		var valNode *Node

		if valTok.ID == TokenHASH {
			p.next()
			identTok, err := p.expect(TokenIDENTIFIER)
			if err != nil {
				return err
			}
			attrName = "tag"
			valNode = &Node{Kind: KindTag, Name: identTok.Image, FromTokens: []LexToken{valTok, identTok}}
		} else if valTok.ID == TokenAT {
			p.next()
			identTok, err := p.expect(TokenIDENTIFIER)
			if err != nil {
				return err
			}
			attrName = "name"
			valNode = &Node{Kind: KindName, Name: identTok.Image, FromTokens: []LexToken{valTok, identTok}}
		} else {
			return p.unexpected(valTok, "tag or name")
		}

		p.block.MakeNode(valNode)

		n := &Node{Kind: KindAction, ActionOp: opImage, ActionEntity: entity, ActionAttr: attrName, ActionValue: valNode, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)
		return nil
	}

	return p.unexpected(tok, ":= <- += -=")
}

func (p *parser) parseAttributeOperation(scopes []string, appendFn func(*Node)) error {
	base := p.next()

	mut, err := p.parseAttributeMutator(scopes, base)
	if err != nil {
		return err
	}

	tok := p.peek(0)

	switch tok.ID {
	case TokenMERGE:
		p.next()

		curVal := p.block.GeneratedVariable("attr", tok.Line, tok.Column)
		scan := &Node{Kind: KindScan, ScanEntity: mut.MutatorParent, ScanAttribute: mut.MutatorAttr.Image, ScanValue: curVal, NeedsEntity: true, Scopes: scopes, FromTokens: []LexToken{*mut.MutatorAttr}}
		p.block.MakeNode(scan)
		p.block.Scan(scan)

		rec, err := p.parseRecord(scopes, "<-", true, nil)
		if err != nil {
			return err
		}
		rec.Variable = curVal
		rec.NeedsEntity = true
		appendFn(rec)
		return nil

	case TokenSET:
		p.next()

		if p.peek(0).ID == TokenNONE {
			p.next()
			n := &Node{Kind: KindAction, ActionOp: "erase", ActionEntity: mut.MutatorParent, ActionAttr: mut.MutatorAttr.Image, FromTokens: []LexToken{tok}}
			p.block.MakeNode(n)
			p.block.Expression(n)
			return nil
		}

		if p.peek(0).ID == TokenLBRACK {
			rec, err := p.parseRecord(scopes, nil, false, nil)
			if err != nil {
				return err
			}
			n := &Node{Kind: KindAction, ActionOp: ":=", ActionEntity: mut.MutatorParent, ActionAttr: mut.MutatorAttr.Image, ActionValue: rec, FromTokens: []LexToken{tok}}
			p.block.MakeNode(n)
			p.block.Expression(n)
			return nil
		}

		val, err := p.parseAddition(scopes)
		if err != nil {
			return err
		}
		v, err := asValue(val)
		if err != nil {
			return err
		}

		n := &Node{Kind: KindAction, ActionOp: ":=", ActionEntity: mut.MutatorParent, ActionAttr: mut.MutatorAttr.Image, ActionValue: v, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)
		return nil

	case TokenMUTATEADD, TokenMUTATESUB:
		p.next()

		val, err := p.parseAddition(scopes)
		if err != nil {
			return err
		}
		v, err := asValue(val)
		if err != nil {
			return err
		}

		n := &Node{Kind: KindAction, ActionOp: tok.Image, ActionEntity: mut.MutatorParent, ActionAttr: mut.MutatorAttr.Image, ActionValue: v, FromTokens: []LexToken{tok}}
		p.block.MakeNode(n)
		p.block.Expression(n)
		return nil
	}

	return p.unexpected(tok, "<- := += -=")
}
