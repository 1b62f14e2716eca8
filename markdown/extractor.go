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
Package markdown walks a CommonMark document and produces the flattened
text, the list of fenced code blocks to hand to the DSL lexer/parser,
and the span table entries for inline styles, headings, list items,
links and code blocks.

CommonMark parsing itself is an external collaborator; this package
treats goldmark's AST purely as a black box that emits entering/leaving
events with byte-accurate source positions.
*/
package markdown

import (
	"bytes"
	"fmt"

	"github.com/krotik/common/errorutil"
	"github.com/krotik/weave/span"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

/*
Block is a fenced code block discovered while walking the document.
*/
type Block struct {
	ID          string // "<docId>|<n>|block"
	Literal     string // source text of the block (without fence lines)
	StartOffset int    // character offset into the flattened text where the block's content starts
	Name        string // nearest preceding content line, or "Unnamed block"
}

/*
Result is the output of walking one document.
*/
type Result struct {
	Text   string       // flattened document text
	Blocks []*Block     // fenced code blocks, in document order
	Spans  *span.Table  // span table seeded by the markdown walk
}

/*
extractor carries the mutable walk state for one document traversal.
*/
type extractor struct {
	docID string

	source []byte

	text     []byte // accumulated flattened text
	pos      int     // character cursor into text
	lastLine int     // last source line number realigned to

	stack []containerFrame

	spans  *span.Table
	blocks []*Block

	lastContentLine string // most recently seen non-blank content line, for block naming
	idCounter       int
}

/*
containerFrame records an open container's start position in the
flattened text, captured on entering and consumed on leaving.
*/
type containerFrame struct {
	node  ast.Node
	start int
}

/*
Extract walks source and produces a Result. docID seeds span and block
ids ("<docID>|<n>", "<docID>|<n>|block").
*/
func Extract(docID string, source []byte) (*Result, error) {
	e := &extractor{
		docID:  docID,
		source: source,
		spans:  span.NewTable(),
	}

	md := goldmark.New()
	reader := gmtext.NewReader(source)
	root := md.Parser().Parse(reader)

	var walkErr error

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if walkErr != nil {
			return ast.WalkStop, walkErr
		}

		if entering {
			if e.enter(n) {
				return ast.WalkSkipChildren, nil
			}
		} else {
			if err := e.leave(n); err != nil {
				walkErr = err
				return ast.WalkStop, err
			}
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}

	return &Result{
		Text:   string(e.text),
		Blocks: e.blocks,
		Spans:  e.spans,
	}, nil
}

/*
nextID allocates the next span/block id for this document.
*/
func (e *extractor) nextID() string {
	id := fmt.Sprintf("%v|%v", e.docID, e.idCounter)
	e.idCounter++
	return id
}

/*
realign emits synthetic newlines to text and advances pos/lastLine until
lastLine matches the source line of the given byte offset. This keeps
the flattened text's line structure aligned with the original document
so that per-block offsets survive later.
*/
func (e *extractor) realign(offset int) {
	line := e.sourceLine(offset)

	for e.lastLine < line {
		e.text = append(e.text, '\n')
		e.pos++
		e.lastLine++
	}
}

/*
sourceLine returns the 1-based source line number of a byte offset.
*/
func (e *extractor) sourceLine(offset int) int {
	if offset > len(e.source) {
		offset = len(e.source)
	}

	line := 1
	for _, b := range e.source[:offset] {
		if b == '\n' {
			line++
		}
	}

	return line
}

/*
appendLiteral appends literal content to the flattened text and advances
pos by its rune length.
*/
func (e *extractor) appendLiteral(content []byte) {
	e.text = append(e.text, content...)
	e.pos += len([]rune(string(content)))
}

/*
enter handles an entering event for a node. It returns true if the
node's children must not be walked because its content was already
consumed verbatim (code spans and code blocks are leaves as far as the
flattened text is concerned).
*/
func (e *extractor) enter(n ast.Node) bool {
	switch n.Kind() {

	case ast.KindText:
		e.enterText(n.(*ast.Text))
		return false

	case ast.KindString:
		// Raw string segments carry no source position of their own;
		// nothing to realign against.
		return false

	case ast.KindCodeBlock, ast.KindFencedCodeBlock:
		e.enterCodeBlock(n)
		return true

	case ast.KindCodeSpan:
		e.enterCodeSpan(n)
		return true
	}

	if start, ok := nodeStartOffset(n, e.source); ok {
		e.realign(start)
	}

	e.stack = append(e.stack, containerFrame{node: n, start: e.pos})
	return false
}

/*
leave handles a leaving event for a node. It pops the container stack
and, for certain kinds, produces a span table entry.
*/
func (e *extractor) leave(n ast.Node) error {
	switch n.Kind() {
	case ast.KindText, ast.KindString, ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindCodeSpan:
		return nil
	}

	if len(e.stack) == 0 {
		return fmt.Errorf("markdown walker invariant violated: no open container to close for %v", n.Kind())
	}

	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]

	errorutil.AssertTrue(top.node == n,
		fmt.Sprintf("markdown walker invariant violated: closed %v but expected %v", n.Kind(), top.node.Kind()))

	switch v := n.(type) {

	case *ast.Emphasis:
		kind := "emph"
		if v.Level >= 2 {
			kind = "strong"
		}
		e.spans.Push(top.start, e.pos, kind, e.nextID())

	case *ast.Link:
		id := e.nextID()
		e.spans.Push(top.start, e.pos, "link", id)
		e.spans.SetExtraInfo(id).Destination = string(v.Destination)

	case *ast.Heading:
		id := e.nextID()
		e.spans.Push(top.start, top.start, "heading", id)
		e.spans.SetExtraInfo(id).Level = v.Level

	case *ast.ListItem:
		id := e.nextID()
		e.spans.Push(top.start, top.start, "item", id)
		ei := e.spans.SetExtraInfo(id)
		if list, ok := v.Parent().(*ast.List); ok {
			ei.ListData = map[string]interface{}{
				"ordered": list.IsOrdered(),
				"start":   list.Start,
				"tight":   list.IsTight,
			}
		}
	}

	return nil
}

/*
enterText handles the verbatim text / softbreak rules.
*/
func (e *extractor) enterText(t *ast.Text) {
	segment := t.Segment
	content := segment.Value(e.source)

	if len(content) > 0 {
		e.realign(segment.Start)
		e.appendLiteral(content)

		line := e.source[bytes.LastIndexByte(e.source[:segment.Start], '\n')+1:]
		if nl := bytes.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}

		if trimmed := trimTrailingSpace(line); len(trimmed) > 0 {
			e.lastContentLine = string(trimmed)
		}
	}

	if t.SoftLineBreak() || t.HardLineBreak() {
		e.text = append(e.text, '\n')
		e.pos++
		e.lastLine++
	}
}

/*
enterCodeBlock handles both indented and fenced code blocks: their
content is appended verbatim, a span is pushed, lastLine is realigned
past the block, and fenced blocks are additionally queued for DSL
parsing.
*/
func (e *extractor) enterCodeBlock(n ast.Node) {
	lines := codeBlockLines(n)
	if lines.Len() == 0 {
		return
	}

	first := lines.At(0)
	e.realign(first.Start)

	start := e.pos

	var content []byte
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		content = append(content, seg.Value(e.source)...)
	}

	e.appendLiteral(content)

	id := e.nextID()
	e.spans.Push(start, e.pos, "code_block", id)

	last := lines.At(lines.Len() - 1)
	e.lastLine = e.sourceLine(last.Stop)

	if _, ok := n.(*ast.FencedCodeBlock); ok {
		name := e.lastContentLine
		if name == "" {
			name = "Unnamed block"
		}

		e.blocks = append(e.blocks, &Block{
			ID:          fmt.Sprintf("%v|%v|block", e.docID, len(e.blocks)),
			Literal:     string(content),
			StartOffset: start,
			Name:        name,
		})
	}
}

/*
enterCodeSpan handles inline code: its content is the concatenation of
its raw Text children, appended verbatim, with a "code" span pushed
immediately since the content (and therefore the span's end) is known
as soon as it is entered.
*/
func (e *extractor) enterCodeSpan(n ast.Node) {
	var content []byte

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			content = append(content, t.Segment.Value(e.source)...)
		}
	}

	if start, ok := nodeStartOffset(n, e.source); ok {
		e.realign(start)
	}

	start := e.pos
	e.appendLiteral(content)

	e.spans.Push(start, e.pos, "code", e.nextID())
}

/*
codeBlockLines returns the raw source lines of a code block node.
*/
func codeBlockLines(n ast.Node) *gmtext.Segments {
	switch v := n.(type) {
	case *ast.CodeBlock:
		return v.Lines()
	case *ast.FencedCodeBlock:
		return v.Lines()
	}
	return gmtext.NewSegments()
}

/*
nodeStartOffset finds the first byte offset contributed by a node or any
of its descendants. Container nodes (document, list, blockquote, emph,
link, …) carry no segment of their own; their start is their first
content-bearing descendant's start.
*/
func nodeStartOffset(n ast.Node, source []byte) (int, bool) {
	// goldmark's inline nodes panic on Lines(); only block nodes carry lines.
	if n.Type() != ast.TypeInline {
		if lines := n.Lines(); lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}

	if t, ok := n.(*ast.Text); ok {
		if t.Segment.Len() > 0 {
			return t.Segment.Start, true
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := nodeStartOffset(c, source); ok {
			return off, true
		}
	}

	return 0, false
}

/*
trimTrailingSpace trims trailing carriage returns / newlines used when
recording a line for unnamed-block fallback naming.
*/
func trimTrailingSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}
