/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFindsFencedBlocks(t *testing.T) {
	src := "# Title\n\nSome *emphasis* text.\n\n```\nmatch\n  x = 1\n```\n\nMore text.\n"

	res, err := Extract("doc|0", []byte(src))
	require.NoError(t, err)

	require.Len(t, res.Blocks, 1)
	assert.Contains(t, res.Blocks[0].Literal, "match")
	assert.Equal(t, "Some *emphasis* text.", res.Blocks[0].Name)
}

func TestExtractEmphasisSpan(t *testing.T) {
	src := "Some *emphasis* text.\n"

	res, err := Extract("doc|0", []byte(src))
	require.NoError(t, err)

	var found bool
	for _, e := range res.Spans.Entries {
		if e.Kind == "emph" {
			found = true
			assert.Equal(t, "emphasis", res.Text[e.Start:e.End])
		}
	}
	assert.True(t, found)
}

func TestExtractUnnamedBlockFallback(t *testing.T) {
	src := "```\nmatch\n  x = 1\n```\n"

	res, err := Extract("doc|0", []byte(src))
	require.NoError(t, err)

	require.Len(t, res.Blocks, 1)
	assert.Equal(t, "Unnamed block", res.Blocks[0].Name)
}

func TestExtractLinkSpanDestination(t *testing.T) {
	src := "See [here](http://example.com) for more.\n"

	res, err := Extract("doc|0", []byte(src))
	require.NoError(t, err)

	var id string
	for _, e := range res.Spans.Entries {
		if e.Kind == "link" {
			id = e.ID
		}
	}
	require.NotEmpty(t, id)
	assert.Equal(t, "http://example.com", res.Spans.ExtraInfo[id].Destination)
}
