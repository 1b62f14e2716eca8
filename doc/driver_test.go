/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package doc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# A rule\n" +
	"\n" +
	"Some prose before the block.\n" +
	"\n" +
	"```\n" +
	"match\n" +
	"  [#person @name: n]\n" +
	"bind\n" +
	"  [action: \"greet\" target: n]\n" +
	"```\n"

func TestParseDocProducesOneBlockPerFence(t *testing.T) {
	res, err := ParseDoc(sampleDoc)
	require.NoError(t, err)

	assert.Len(t, res.Results.Blocks, 1)
	assert.Empty(t, res.Errors)
	assert.True(t, strings.Contains(res.Results.Text, "A rule"))
}

func TestParseDocDefaultDocIDsAreUnique(t *testing.T) {
	first, err := ParseDoc(sampleDoc)
	require.NoError(t, err)

	second, err := ParseDoc(sampleDoc)
	require.NoError(t, err)

	assert.NotEqual(t, first.Results.Blocks[0].ID, second.Results.Blocks[0].ID)
}

func TestParseDocWithDocID(t *testing.T) {
	res, err := ParseDoc(sampleDoc, WithDocID("fixed"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Results.Blocks[0].ID, "fixed|"))
}

func TestParseDocWithUUIDDocID(t *testing.T) {
	res, err := ParseDoc(sampleDoc, WithUUIDDocID())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Results.Blocks[0].ID)
	assert.False(t, strings.HasPrefix(res.Results.Blocks[0].ID, "doc|"))
}

func TestParseDocAccumulatesErrorsInPositionOrder(t *testing.T) {
	broken := "```\n" +
		"match\n" +
		"  [#person @name: ===]\n" +
		"```\n"

	res, err := ParseDoc(broken)
	require.NoError(t, err)

	require.NotEmpty(t, res.Errors)

	for i := 1; i < len(res.Errors); i++ {
		prev, cur := res.Errors[i-1], res.Errors[i]
		assert.True(t, prev.Line < cur.Line || (prev.Line == cur.Line && prev.Column <= cur.Column))
	}
}

func TestParseBlockStandalone(t *testing.T) {
	br := ParseBlock("standalone", "b|0|block", "match\n  [#person @name: n]\n", 0, nil)

	require.NotNil(t, br.Results)
	assert.NotEmpty(t, br.Lex.Tokens)
}
