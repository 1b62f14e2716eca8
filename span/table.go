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
Package span accumulates the flat span table shared by the Markdown
extractor and the per-block lexer/parser. A span is a (start, end, kind,
id) quadruple describing a region of the document's flattened text; the
table is consumed by downstream editor tooling (hover, goto-definition)
and is never interpreted by the parser itself.
*/
package span

import (
	"github.com/krotik/common/sortutil"
	"github.com/krotik/weave/config"
)

/*
Entry is a single span in the table.
*/
type Entry struct {
	Start int    // Start character offset into the flattened text
	End   int    // End character offset into the flattened text (exclusive)
	Kind  string // Span kind (e.g. "emph", "code_block", "token")
	ID    string // Stable id of the span's owning token/node
}

/*
ExtraInfo is auxiliary, kind-specific metadata attached to a span by id.
*/
type ExtraInfo struct {
	Level       int                    // Heading level
	ListData    map[string]interface{} // List item metadata
	Destination string                 // Link destination
}

/*
Table is an ordered accumulator of span Entry values plus their optional
ExtraInfo, keyed by span id.
*/
type Table struct {
	Entries   []Entry
	ExtraInfo map[string]*ExtraInfo
}

/*
NewTable creates a new, empty span Table.
*/
func NewTable() *Table {
	return &Table{
		Entries:   make([]Entry, 0, config.Int(config.SpanBufferSize)),
		ExtraInfo: make(map[string]*ExtraInfo),
	}
}

/*
Push appends a new span to the table.
*/
func (t *Table) Push(start, end int, kind, id string) {
	t.Entries = append(t.Entries, Entry{start, end, kind, id})
}

/*
SetExtraInfo records extra info for a given span id, creating the entry
if necessary.
*/
func (t *Table) SetExtraInfo(id string) *ExtraInfo {
	ei, ok := t.ExtraInfo[id]
	if !ok {
		ei = &ExtraInfo{}
		t.ExtraInfo[id] = ei
	}
	return ei
}

/*
SortByStart orders the span table's entries by their start offset, using
a priority queue keyed on Start rather than an in-place sort. ParseDoc
does not call it: a document's span table keeps the order in which spans
were pushed. Ordering is never required for correctness since consumers
key off id, not position.
*/
func (t *Table) SortByStart() {
	if len(t.Entries) == 0 {
		return
	}

	pq := sortutil.NewPriorityQueue()
	for _, e := range t.Entries {
		pq.Push(e, e.Start)
	}

	ordered := make([]Entry, 0, len(t.Entries))
	for pq.Size() > 0 {
		ordered = append(ordered, pq.Pop().(Entry))
	}

	t.Entries = ordered
}

/*
Flat returns the span table in its wire format: a flat sequence of four
values per entry (start, end, kind, id).
*/
func (t *Table) Flat() []interface{} {
	out := make([]interface{}, 0, len(t.Entries)*4)

	for _, e := range t.Entries {
		out = append(out, e.Start, e.End, e.Kind, e.ID)
	}

	return out
}
