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

	"github.com/krotik/weave/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodeBlockMatchBind(t *testing.T) {
	src := `
match
  [#person @name: n age: a]
bind
  [action: "greet" target: n]
`
	block, errs := ParseCodeBlock("test", "b0", src)

	require.Empty(t, errs)
	require.NotNil(t, block)

	assert.Len(t, block.ScanLike, 1)
	require.Len(t, block.Binds, 1)

	rec := block.ScanLike[0]
	assert.Equal(t, KindRecord, rec.Kind)
	assert.Len(t, rec.Attributes, 3)

	bindRec := block.Binds[0]
	assert.Equal(t, KindRecord, bindRec.Kind)
}

func TestParseCodeBlockVariableIdentitySharedAcrossSections(t *testing.T) {
	src := `
match
  [#person @name: n]
bind
  [greeting: n]
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)

	nInMatch := block.VariableLookup["n"]
	require.NotNil(t, nInMatch)

	bindRec := block.Binds[0]
	var greetingAttr *Node
	for _, a := range bindRec.Attributes {
		if a.AttrName == "greeting" {
			greetingAttr = a
		}
	}
	require.NotNil(t, greetingAttr)
	assert.Same(t, nInMatch, greetingAttr.AttrValue)
}

func TestParseCodeBlockEquality(t *testing.T) {
	src := `
match
  x = 5
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.Len(t, block.Equalities, 1)

	left, right := block.Equalities[0][0], block.Equalities[0][1]
	assert.Equal(t, KindVariable, left.Kind)
	assert.Equal(t, "x", left.Name)
	assert.Equal(t, KindConstant, right.Kind)
	assert.Equal(t, float64(5), right.ConstValue)
}

func TestParseCodeBlockArithmeticLowersToExpressionChain(t *testing.T) {
	src := `
match
  x = 1 + 2 * 3
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.NotEmpty(t, block.Expressions)

	for _, e := range block.Expressions {
		assert.Equal(t, KindExpression, e.Kind)
	}
}

func TestParseCodeBlockNotStatement(t *testing.T) {
	src := `
match
  not ([#banned @name: n])
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.Len(t, block.ScanLike, 1)

	scan := block.ScanLike[0]
	assert.Equal(t, KindScan, scan.Kind)
	require.NotNil(t, scan.Block)
	assert.Equal(t, "not", scan.Block.Type)
}

func TestParseCodeBlockIfExpression(t *testing.T) {
	src := `
match
  x = if a > 1 then 2 else 3
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.NotEmpty(t, block.ScanLike)

	var ifNode *Node
	for _, n := range block.ScanLike {
		if n.Kind == KindIfExpression {
			ifNode = n
		}
	}
	require.NotNil(t, ifNode)
	assert.Len(t, ifNode.Branches, 2)
}

func TestParseCodeBlockUnexpectedTokenProducesError(t *testing.T) {
	src := `
match
  [#person @name: ===]
`
	_, errs := ParseCodeBlock("test", "b0", src)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrUnexpectedToken, errs[0].Type)
}

func TestParseCodeBlockUnknownSectionKeyword(t *testing.T) {
	_, errs := ParseCodeBlock("test", "b0", `frobnicate`)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrUnexpectedToken, errs[0].Type)
}

func TestParseCodeBlockScopeDeclaration(t *testing.T) {
	src := `
match (global local)
  [#person @name: n]
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.Len(t, block.ScanLike, 1)

	rec := block.ScanLike[0]
	assert.Equal(t, []string{"global", "local"}, rec.Scopes)
}

func TestParseCodeBlockGeneratedVariablesDontCollide(t *testing.T) {
	src := `
match
  x = 1 + 2
  y = 1 + 2
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)

	// One generated result variable per "+"; a collision would leave one.
	generated := 0
	for _, v := range block.VariableLookup {
		if v.Generated {
			generated++
		}
	}
	assert.Equal(t, 2, generated)
}

func TestParseCodeBlockDefaultScopeHonorsConfig(t *testing.T) {
	old := config.Config[config.DefaultScope]
	config.Config[config.DefaultScope] = []string{"global"}
	defer func() { config.Config[config.DefaultScope] = old }()

	src := `
match
  [#person @name: n]
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
	require.Len(t, block.ScanLike, 1)

	assert.Equal(t, []string{"global"}, block.ScanLike[0].Scopes)
}

func TestParseCodeBlockLookaheadHonorsConfig(t *testing.T) {
	old := config.Config[config.LookaheadSize]
	config.Config[config.LookaheadSize] = 8
	defer func() { config.Config[config.LookaheadSize] = old }()

	src := `
match
  [#person @name: n]
`
	_, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)
}

func TestNodeStringTreeDump(t *testing.T) {
	src := `
match
  [#person @name: n]
`
	block, errs := ParseCodeBlock("test", "b0", src)
	require.Empty(t, errs)

	dump := block.String()
	assert.Contains(t, dump, "block b0")
	assert.Contains(t, dump, "record:")
	assert.Contains(t, dump, "tag: #person")
	assert.Contains(t, dump, "name: @name")
}
