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
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(tokens []LexToken) []LexTokenID {
	out := make([]LexTokenID, len(tokens))
	for i, t := range tokens {
		out[i] = t.ID
	}
	return out
}

func TestLexCodeBasicRecord(t *testing.T) {
	tokens := LexToList("test", `[#person @name: n age: 42]`, ModeCode)

	assert.Equal(t, []LexTokenID{
		TokenLBRACK,
		TokenHASH, TokenIDENTIFIER,
		TokenAT, TokenIDENTIFIER, TokenEQUALITY, TokenIDENTIFIER,
		TokenIDENTIFIER, TokenEQUALITY, TokenNUMBER,
		TokenRBRACK,
		TokenEOF,
	}, ids(tokens))
}

func TestLexCodeCommasAreWhitespace(t *testing.T) {
	tokens := LexToList("test", `(a, b,c)`, ModeCode)

	assert.Equal(t, []LexTokenID{
		TokenLPAREN, TokenIDENTIFIER, TokenIDENTIFIER, TokenIDENTIFIER, TokenRPAREN, TokenEOF,
	}, ids(tokens))
}

func TestLexCodeTwoCharOperators(t *testing.T) {
	tokens := LexToList("test", `x := y <- z += 1 -= 2 >= 3 <= 4 != 5`, ModeCode)

	want := []LexTokenID{
		TokenIDENTIFIER, TokenSET, TokenIDENTIFIER,
		TokenIDENTIFIER, TokenMERGE, TokenIDENTIFIER,
		TokenIDENTIFIER, TokenMUTATEADD, TokenNUMBER,
		TokenMUTATESUB, TokenNUMBER,
		TokenGEQ, TokenNUMBER,
		TokenLEQ, TokenNUMBER,
		TokenNEQ, TokenNUMBER,
		TokenEOF,
	}
	assert.Equal(t, want, ids(tokens))
}

func TestLexCodeNegativeNumberVsSubtraction(t *testing.T) {
	tokens := LexToList("test", `-5`, ModeCode)
	assert.Equal(t, []LexTokenID{TokenNUMBER, TokenEOF}, ids(tokens))
	assert.Equal(t, "-5", tokens[0].Image)

	// '-' is not a break character, so it does not end an identifier.
	tokens = LexToList("test", `x-5`, ModeCode)
	assert.Equal(t, []LexTokenID{TokenIDENTIFIER, TokenEOF}, ids(tokens))
	assert.Equal(t, "x-5", tokens[0].Image)
}

func TestLexCodeKeywords(t *testing.T) {
	tokens := LexToList("test", `match bind commit is if else then not true false none`, ModeCode)

	want := []LexTokenID{
		TokenMATCH, TokenBIND, TokenCOMMIT, TokenIS, TokenIF, TokenELSE, TokenTHEN,
		TokenNOT, TokenTRUE, TokenFALSE, TokenNONE, TokenEOF,
	}
	assert.Equal(t, want, ids(tokens))
}

func TestLexCodeComment(t *testing.T) {
	tokens := LexToList("test", "x // a trailing comment\ny", ModeCode)

	assert.Equal(t, []LexTokenID{TokenIDENTIFIER, TokenCOMMENT, TokenIDENTIFIER, TokenEOF}, ids(tokens))
	assert.Equal(t, "// a trailing comment", tokens[1].Image)
}

func TestLexCodeUUIDLiteral(t *testing.T) {
	tokens := LexToList("test", `⦑abc-123⦒`, ModeCode)

	assert.Equal(t, []LexTokenID{TokenUUID, TokenEOF}, ids(tokens))
	assert.Equal(t, "⦑abc-123⦒", tokens[0].Image)
}

func TestLexCodeString(t *testing.T) {
	tokens := LexToList("test", `"hello {{name}}!"`, ModeCode)

	want := []LexTokenID{
		TokenSTRINGOPEN, TokenSTRINGCHARS, TokenSTRINGEMBEDOPEN, TokenIDENTIFIER,
		TokenSTRINGEMBEDCLOSE, TokenSTRINGCHARS, TokenSTRINGCLOSE, TokenEOF,
	}
	assert.Equal(t, want, ids(tokens))
}

func TestLexCodeUnbalancedStringIsError(t *testing.T) {
	tokens := LexToList("test", `"unterminated`, ModeCode)

	last := tokens[len(tokens)-1]
	assert.Equal(t, TokenError, last.ID)
}

func TestLexDocFenceTransitionsToCode(t *testing.T) {
	tokens := LexToList("test", "prose\n```\nmatch\n```\nmore", ModeDoc)

	var sawFence, sawMatch, sawClose bool
	for _, tok := range tokens {
		switch tok.ID {
		case TokenFENCE:
			sawFence = true
		case TokenMATCH:
			sawMatch = true
		case TokenCLOSEFENCE:
			sawClose = true
		}
	}

	assert.True(t, sawFence)
	assert.True(t, sawMatch)
	assert.True(t, sawClose)
}

func TestDecodeStringEscapes(t *testing.T) {
	assert.Equal(t, "a\nb\tc\rd\"e{f}g", decodeStringEscapes(`a\nb\tc\rd\"e\{f\}g`))
	assert.Equal(t, `\q`, decodeStringEscapes(`\q`))
}

func TestUnquoteNumber(t *testing.T) {
	v, err := unquoteNumber("3.5")
	assert.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestMatchIdentifierRejectsBreakChars(t *testing.T) {
	assert.Equal(t, 0, matchIdentifier("@name"))
	assert.Equal(t, 0, matchIdentifier("#tag"))
	assert.True(t, matchIdentifier("foo.bar") > 0)
}
