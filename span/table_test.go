/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package span

import (
	"testing"

	"github.com/krotik/weave/config"
	"github.com/stretchr/testify/assert"
)

func TestPushAndFlat(t *testing.T) {
	tbl := NewTable()
	tbl.Push(10, 20, "emph", "doc|0")
	tbl.Push(0, 5, "heading", "doc|1")

	assert.Equal(t, []interface{}{10, 20, "emph", "doc|0", 0, 5, "heading", "doc|1"}, tbl.Flat())
}

func TestSortByStart(t *testing.T) {
	tbl := NewTable()
	tbl.Push(10, 20, "emph", "doc|0")
	tbl.Push(0, 5, "heading", "doc|1")
	tbl.Push(5, 8, "link", "doc|2")

	tbl.SortByStart()

	var starts []int
	for _, e := range tbl.Entries {
		starts = append(starts, e.Start)
	}
	assert.Equal(t, []int{0, 5, 10}, starts)
}

func TestSetExtraInfo(t *testing.T) {
	tbl := NewTable()
	ei := tbl.SetExtraInfo("doc|0")
	ei.Level = 2

	assert.Equal(t, 2, tbl.ExtraInfo["doc|0"].Level)
}

func TestNewTableHonorsSpanBufferSizeConfig(t *testing.T) {
	old := config.Config[config.SpanBufferSize]
	config.Config[config.SpanBufferSize] = 8
	defer func() { config.Config[config.SpanBufferSize] = old }()

	tbl := NewTable()
	assert.Equal(t, 0, len(tbl.Entries))
	assert.Equal(t, 8, cap(tbl.Entries))
}
