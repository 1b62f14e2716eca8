/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package cli

import (
	"testing"

	"github.com/krotik/weave/util"
	"github.com/stretchr/testify/assert"
)

func TestNewRootCommandHasParseSubcommand(t *testing.T) {
	root := NewRootCommand()

	cmd, _, err := root.Find([]string{"parse"})
	assert.NoError(t, err)
	assert.Equal(t, "parse", cmd.Name())
}

func TestNewRootCommandHasConfigAndLogFormatFlags(t *testing.T) {
	root := NewRootCommand()

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-format"))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	root := NewRootCommand()

	_, err := newLogger(root, "not-a-level", "text")
	assert.Error(t, err)
}

func TestNewLoggerBuildsLogrusLogger(t *testing.T) {
	root := NewRootCommand()

	logger, err := newLogger(root, "debug", "json")
	assert.NoError(t, err)
	assert.IsType(t, &util.LogrusLogger{}, logger)
}
