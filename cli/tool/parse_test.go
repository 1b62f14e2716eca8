/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package tool

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "```\nmatch\n  [#person @name: n]\nbind\n  [greeting: n]\n```\n"

func writeSample(t *testing.T) string {
	f, err := ioutil.TempFile("", "weave-parse-*.md")
	require.NoError(t, err)
	_, err = f.WriteString(sample)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestParseFileTreeOutput(t *testing.T) {
	path := writeSample(t)

	var out bytes.Buffer
	require.NoError(t, ParseFile(path, &out, ParseOptions{}))

	assert.Contains(t, out.String(), "1 block")
	assert.Contains(t, out.String(), "record:")
}

func TestParseFileJSONOutput(t *testing.T) {
	path := writeSample(t)

	var out bytes.Buffer
	require.NoError(t, ParseFile(path, &out, ParseOptions{JSON: true}))

	assert.Contains(t, out.String(), `"blocks"`)
}

func TestParseFileMissingFile(t *testing.T) {
	err := ParseFile("/no/such/file.md", &bytes.Buffer{}, ParseOptions{})
	assert.Error(t, err)
}
