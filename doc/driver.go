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
Package doc is the document driver: it wires the Markdown
extractor and the DSL parser together, turning a whole CommonMark
document into a DocResult, or a single fenced block's source into a
BlockResult for callers (editor tooling) that already have the block
isolated.
*/
package doc

import (
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/krotik/common/sortutil"
	"github.com/krotik/weave/markdown"
	"github.com/krotik/weave/parser"
	"github.com/krotik/weave/span"
	"github.com/krotik/weave/util"
	"github.com/google/uuid"
)

/*
docCounter manufactures the default monotonically increasing docId
("doc|<n>") when a caller does not supply one. Parsing independent
documents concurrently is only safe if each uses its own parser
instance; this counter is what keeps their default ids from colliding
when they do.
*/
var docCounter uint64

/*
nextDocID returns the next default docId.
*/
func nextDocID() string {
	n := atomic.AddUint64(&docCounter, 1)
	return fmt.Sprintf("doc|%d", n-1)
}

/*
LexResult is the token stream produced while lexing a single block,
kept alongside the parsed IR so that editor tooling can map a source
position back to a raw token without re-lexing.
*/
type LexResult struct {
	Tokens []parser.LexToken
}

/*
BlockResult is the outcome of parsing a single fenced code block, used
both standalone and as an element of a DocResult.
*/
type BlockResult struct {
	Results *parser.ParseBlock
	Lex     LexResult
	Time    time.Duration
	Errors  []*parser.ParseError
}

/*
docResults is the nested "results" object of a DocResult.
*/
type docResults struct {
	Blocks    []*parser.ParseBlock
	Text      string
	Spans     []interface{}
	ExtraInfo map[string]*span.ExtraInfo
}

/*
DocResult is the outcome of parsing a whole document.
*/
type DocResult struct {
	Results docResults
	Time    time.Duration
	Errors  []*parser.ParseError
}

/*
options carries the settings a ParseDocOption can alter.
*/
type options struct {
	docID  string
	logger util.Logger
}

/*
ParseDocOption configures a ParseDoc call.
*/
type ParseDocOption func(*options)

/*
WithDocID fixes the docId explicitly instead of manufacturing a default
one, so that callers that persist documents can keep ids stable across
re-parses.
*/
func WithDocID(id string) ParseDocOption {
	return func(o *options) { o.docID = id }
}

/*
WithUUIDDocID assigns a random UUID as the docId, for callers that want
global rather than process-local uniqueness.
*/
func WithUUIDDocID() ParseDocOption {
	return func(o *options) { o.docID = uuid.NewString() }
}

/*
WithLogger attaches a logger that receives one debug line per block
parsed and one error line per parse error found.
*/
func WithLogger(logger util.Logger) ParseDocOption {
	return func(o *options) { o.logger = logger }
}

/*
ParseDoc walks a whole CommonMark document, parsing every fenced code
block it finds, and returns the aggregated result. docId defaults to a
monotonically increasing "doc|<n>" unless WithDocID or
WithUUIDDocID is given.
*/
func ParseDoc(text string, opts ...ParseDocOption) (*DocResult, error) {
	o := &options{docID: nextDocID(), logger: util.NewNullLogger()}
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()

	res, err := markdown.Extract(o.docID, []byte(text))
	if err != nil {
		return nil, err
	}

	var (
		blocks []*parser.ParseBlock
		errs   []*parser.ParseError
	)

	for _, b := range res.Blocks {
		o.logger.LogDebug(fmt.Sprintf("parsing block %s (%s)", b.ID, b.Name))

		br := parseBlock(b.Name, b.ID, b.Literal, b.StartOffset, res.Spans)

		blocks = append(blocks, br.Results)
		errs = append(errs, br.Errors...)

		for _, e := range br.Errors {
			o.logger.LogError(e.Error())
		}
	}

	errs = orderByPosition(errs)

	return &DocResult{
		Results: docResults{
			Blocks:    blocks,
			Text:      res.Text,
			Spans:     res.Spans.Flat(),
			ExtraInfo: res.Spans.ExtraInfo,
		},
		Time:   time.Since(start),
		Errors: errs,
	}, nil
}

/*
ParseBlock lexes and parses a single block's source in isolation.
offset shifts every token span pushed into spans so that
a block parsed as part of a larger document still reports positions
relative to the document's flattened text; a standalone caller (a
single-block editor buffer) passes offset 0 and a throwaway table, or a
nil table to record no spans.
*/
func ParseBlock(name, blockID, source string, offset int, spans *span.Table) *BlockResult {
	return parseBlock(name, blockID, source, offset, spans)
}

func parseBlock(name, blockID, source string, offset int, spans *span.Table) *BlockResult {
	start := time.Now()

	tokens := parser.LexToList(name, source, parser.ModeCode)
	for i := range tokens {
		tokens[i].BlockID = blockID
		tokens[i].Index = i
	}
	pushTokenSpans(blockID, source, tokens, offset, spans)

	block, errs := parser.ParseCodeBlock(name, blockID, source)

	return &BlockResult{
		Results: block,
		Lex:     LexResult{Tokens: tokens},
		Time:    time.Since(start),
		Errors:  errs,
	}
}

/*
orderByPosition returns errs ordered by (line, column), ascending, using
a priority queue keyed on the packed position rather than a custom
sort.Interface, keeping a document's accumulated ParseErrors
deterministic for diffable output.
*/
func orderByPosition(errs []*parser.ParseError) []*parser.ParseError {
	if len(errs) == 0 {
		return errs
	}

	pq := sortutil.NewPriorityQueue()
	for _, e := range errs {
		pq.Push(e, e.Line*1e6+e.Column)
	}

	ordered := make([]*parser.ParseError, 0, len(errs))
	for pq.Size() > 0 {
		ordered = append(ordered, pq.Pop().(*parser.ParseError))
	}

	return ordered
}

/*
pushTokenSpans records one span per token, shifted by offset, under ids
of the form "<blockId>|<n>". Token byte offsets are converted to
character offsets to match the flattened text. The terminal EOF token
carries no meaningful extent and is skipped.
*/
func pushTokenSpans(blockID, source string, tokens []parser.LexToken, offset int, spans *span.Table) {
	if spans == nil {
		return
	}

	for i, t := range tokens {
		if t.ID == parser.TokenEOF {
			continue
		}

		id := fmt.Sprintf("%s|%d", blockID, i)
		start := offset + utf8.RuneCountInString(source[:t.Offset])
		spans.Push(start, start+utf8.RuneCountInString(t.Image), "token", id)
	}
}
