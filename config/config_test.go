/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package config

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, []string{"session"}, StrList(DefaultScope))
	assert.Equal(t, 4, Int(LookaheadSize))
	assert.Equal(t, 64, Int(SpanBufferSize))
}

func TestBool(t *testing.T) {
	Config["Flag"] = "true"
	assert.True(t, Bool("Flag"))
	delete(Config, "Flag")
}

func TestLoadFile(t *testing.T) {
	f, err := ioutil.TempFile("", "weave-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString("LookaheadSize: 8\nDefaultScope: [global, session]\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, LoadFile(f.Name()))
	defer func() {
		Config[LookaheadSize] = DefaultConfig[LookaheadSize]
		Config[DefaultScope] = DefaultConfig[DefaultScope]
	}()

	assert.Equal(t, 8, Int(LookaheadSize))
	assert.Equal(t, []string{"global", "session"}, StrList(DefaultScope))
}
