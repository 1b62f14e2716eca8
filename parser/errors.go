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
	"encoding/json"
	"errors"
	"fmt"
)

/*
Error categories, used as ParseError.Type. Lexical and grammatical
errors are both reported as *ParseError values accumulated on the
parser instance. An InvariantError halts the block's parse as well and
reaches callers as a ParseError of type ErrInvalidStatement.
*/
var (
	ErrLexicalError     = errors.New("Lexical error")
	ErrUnexpectedToken  = errors.New("Unexpected token")
	ErrUnexpectedEnd    = errors.New("Unexpected end of input")
	ErrInvalidStatement = errors.New("Invalid statement")
)

/*
ParseError is a lexical or grammatical error found while parsing a
block: source, type, detail, and position, covering both lexer and
parser failures.
*/
type ParseError struct {
	Source string    // Name of the block the error occurred in
	Type   error     // Error category, for equality checks
	Detail string    // Human-readable detail
	Token  *LexToken // Offending token, if any
	Line   int       // Line of the error
	Column int        // Column of the error
}

/*
NewParseError creates a new ParseError tied to a token.
*/
func NewParseError(source string, t error, detail string, tok *LexToken) *ParseError {
	pe := &ParseError{Source: source, Type: t, Detail: detail}

	if tok != nil {
		pe.Token = tok
		pe.Line = tok.Line
		pe.Column = tok.Column
	}

	return pe
}

/*
Error returns a human-readable string representation of this error.
*/
func (pe *ParseError) Error() string {
	ret := fmt.Sprintf("Parse error in %s: %v (%v)", pe.Source, pe.Type, pe.Detail)

	if pe.Line != 0 {
		ret = fmt.Sprintf("%s (Line:%d Pos:%d)", ret, pe.Line, pe.Column)
	}

	return ret
}

/*
ToJSONObject returns this ParseError as a JSON object.
*/
func (pe *ParseError) ToJSONObject() map[string]interface{} {
	t := ""
	if pe.Type != nil {
		t = pe.Type.Error()
	}

	ret := map[string]interface{}{
		"source": pe.Source,
		"type":   t,
		"detail": pe.Detail,
		"line":   pe.Line,
		"column": pe.Column,
	}

	if pe.Token != nil {
		ret["token"] = pe.Token.String()
	}

	return ret
}

/*
MarshalJSON serializes this ParseError into a JSON string.
*/
func (pe *ParseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(pe.ToJSONObject())
}

/*
InvariantError signals a violated internal invariant: asValue called on
a node with no usable value, or a parenthesis on the LHS of an equality
without a function or if on the right. It is returned up through the
grammar rules like any other error, halts the block's parse, and is
reported in the block's errors as a ParseError of type
ErrInvalidStatement carrying its message. (A mismatched block-stack pop
is checked with errorutil.AssertTrue and panics instead.)
*/
type InvariantError struct {
	Detail string
}

func (ie *InvariantError) Error() string {
	return fmt.Sprintf("Invariant violated: %s", ie.Detail)
}

func newInvariantError(detail string) error {
	return &InvariantError{Detail: detail}
}
