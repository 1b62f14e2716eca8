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
	"fmt"
	"io/ioutil"
	"strconv"

	"github.com/krotik/common/errorutil"
	"gopkg.in/yaml.v3"
)

// Global variables
// ================

/*
ProductVersion is the current version of weave.
*/
const ProductVersion = "1.0.0"

/*
Known configuration options.
*/
const (
	SpanBufferSize = "SpanBufferSize" // initial capacity hint for span.Table
	LookaheadSize  = "LookaheadSize"  // parser look-ahead buffer size (tokens)
	DefaultScope   = "DefaultScope"   // scope list used when a section has no explicit scope declaration
)

/*
DefaultConfig is the default configuration.
*/
var DefaultConfig = map[string]interface{}{
	SpanBufferSize: 64,
	LookaheadSize:  4,
	DefaultScope:   []string{"session"},
}

/*
Config is the actual config which is used.
*/
var Config map[string]interface{}

/*
Initialise the config.
*/
func init() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

/*
LoadFile reads a YAML config file and merges its keys over the current
Config, leaving any key it doesn't mention at its existing value.
*/
func LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	var loaded map[string]interface{}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	for k, v := range loaded {
		Config[k] = v
	}

	return nil
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int {
	ret, err := strconv.ParseInt(fmt.Sprint(Config[key]), 10, 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return int(ret)
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
StrList reads a config value as a list of strings. Accepts a Go-native
[]string (the compiled-in default) or a []interface{} (what yaml.v3
unmarshals a YAML sequence into), so a value loaded via LoadFile reads
the same way as the default.
*/
func StrList(key string) []string {
	switch v := Config[key].(type) {
	case []string:
		return v
	case []interface{}:
		ret := make([]string, len(v))
		for i, item := range v {
			ret[i] = fmt.Sprint(item)
		}
		return ret
	default:
		return []string{fmt.Sprint(v)}
	}
}
