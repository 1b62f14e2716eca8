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
LexTokenID identifies the kind of a lexer token.
*/
type LexTokenID int

/*
Token kinds produced by the lexer, grouped by the lexical mode that
produces them.
*/
const (
	TokenEOF LexTokenID = iota
	TokenError

	// doc mode

	TokenDOCCONTENT
	TokenFENCE

	// code mode (shared with string-embed, which is code mode pushed by "{{")

	TokenCLOSEFENCE
	TokenCOMMENT

	TokenLPAREN
	TokenRPAREN
	TokenLBRACK
	TokenRBRACK
	TokenLBRACE
	TokenRBRACE

	TokenSTRINGEMBEDCLOSE // "}}"
	TokenSTRINGOPEN       // '"'

	// keywords

	TokenBIND
	TokenCOMMIT
	TokenMATCH
	TokenIS
	TokenIF
	TokenELSE
	TokenTHEN
	TokenNOT
	TokenTRUE
	TokenFALSE
	TokenNONE

	// operators

	TokenSET      // ":="
	TokenMERGE    // "<-"
	TokenMUTATEADD // "+="
	TokenMUTATESUB // "-="
	TokenEQUALITY // ":" or "="
	TokenGEQ
	TokenLEQ
	TokenNEQ
	TokenGT
	TokenLT
	TokenADDINFIX // "+"
	TokenSUBINFIX // "-"
	TokenMULTINFIX // "*"
	TokenDIVINFIX  // "/"
	TokenDOT
	TokenPIPE
	TokenCOMMA

	TokenIDENTIFIER
	TokenNUMBER
	TokenUUID
	TokenAT   // "@"
	TokenHASH // "#"

	// string mode

	TokenSTRINGCLOSE // '"'
	TokenSTRINGEMBEDOPEN // "{{"
	TokenSTRINGCHARS
)

/*
tokenNames gives a human-readable name per LexTokenID, used in error
messages and LexToken.String.
*/
var tokenNames = map[LexTokenID]string{
	TokenEOF:              "EOF",
	TokenError:            "Error",
	TokenDOCCONTENT:       "DocContent",
	TokenFENCE:            "Fence",
	TokenCLOSEFENCE:       "CloseFence",
	TokenCOMMENT:          "Comment",
	TokenLPAREN:           "(",
	TokenRPAREN:           ")",
	TokenLBRACK:           "[",
	TokenRBRACK:           "]",
	TokenLBRACE:           "{",
	TokenRBRACE:           "}",
	TokenSTRINGEMBEDCLOSE: "}}",
	TokenSTRINGOPEN:       `"`,
	TokenBIND:             "bind",
	TokenCOMMIT:           "commit",
	TokenMATCH:            "match",
	TokenIS:               "is",
	TokenIF:               "if",
	TokenELSE:             "else",
	TokenTHEN:             "then",
	TokenNOT:              "not",
	TokenTRUE:             "true",
	TokenFALSE:            "false",
	TokenNONE:             "none",
	TokenSET:              ":=",
	TokenMERGE:            "<-",
	TokenMUTATEADD:        "+=",
	TokenMUTATESUB:        "-=",
	TokenEQUALITY:         "=",
	TokenGEQ:              ">=",
	TokenLEQ:              "<=",
	TokenNEQ:              "!=",
	TokenGT:               ">",
	TokenLT:               "<",
	TokenADDINFIX:         "+",
	TokenSUBINFIX:         "-",
	TokenMULTINFIX:        "*",
	TokenDIVINFIX:         "/",
	TokenDOT:              ".",
	TokenPIPE:             "|",
	TokenCOMMA:            ",",
	TokenIDENTIFIER:       "Identifier",
	TokenNUMBER:           "Number",
	TokenUUID:             "UUID",
	TokenAT:               "@",
	TokenHASH:             "#",
	TokenSTRINGCLOSE:      `"`,
	TokenSTRINGEMBEDOPEN:  "{{",
	TokenSTRINGCHARS:      "StringChars",
}

/*
tokenLabels classifies tokens into human-facing categories: identifier,
infix, comparison, equality, and so on.
*/
var tokenLabels = map[LexTokenID]string{
	TokenIDENTIFIER: "identifier",
	TokenNUMBER:     "number",
	TokenSTRINGCHARS: "string",
	TokenADDINFIX:   "infix",
	TokenSUBINFIX:   "infix",
	TokenMULTINFIX:  "infix",
	TokenDIVINFIX:   "infix",
	TokenGEQ:        "comparison",
	TokenLEQ:        "comparison",
	TokenNEQ:        "comparison",
	TokenGT:         "comparison",
	TokenLT:         "comparison",
	TokenEQUALITY:   "equality",
	TokenSET:        "set",
	TokenMERGE:      "merge",
	TokenMUTATEADD:  "mutate",
	TokenMUTATESUB:  "mutate",
	TokenAT:         "name",
	TokenHASH:       "tag",
}

/*
keywordMap maps lower-cased identifier spellings to keyword tokens. Kept
separate from symbol lexing because keywords require the identifier
scanner to have already matched a maximal run of characters (longest
match beats identifier).
*/
var keywordMap = map[string]LexTokenID{
	"bind":   TokenBIND,
	"commit": TokenCOMMIT,
	"match":  TokenMATCH,
	"is":     TokenIS,
	"if":     TokenIF,
	"else":   TokenELSE,
	"then":   TokenTHEN,
	"not":    TokenNOT,
	"true":   TokenTRUE,
	"false":  TokenFALSE,
	"none":   TokenNONE,
}

/*
LexToken is a single token returned by the lexer.
*/
type LexToken struct {
	ID     LexTokenID // Token kind
	Image  string      // Token text
	Line   int         // 1-based starting line
	Column int         // 1-based starting column
	Offset int         // Starting byte offset in the block's source
	BlockID string     // Owning block id (set after lexing)
	Index   int        // Per-block monotonic index (set after lexing)
}

/*
StableID returns this token's stable id "<blockId>|<index>", assigned
after lexing.
*/
func (t LexToken) StableID() string {
	return fmt.Sprintf("%v|%v", t.BlockID, t.Index)
}

/*
Label returns the human-facing token category, or "" if this token kind
has no category (punctuation, EOF, …).
*/
func (t LexToken) Label() string {
	return tokenLabels[t.ID]
}

/*
String returns a debug representation of the token.
*/
func (t LexToken) String() string {
	name, ok := tokenNames[t.ID]
	if !ok {
		name = fmt.Sprintf("Token(%d)", t.ID)
	}

	if t.Image != "" {
		return fmt.Sprintf("%s(%q)", name, t.Image)
	}

	return name
}
