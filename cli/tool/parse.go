/*
 * weave
 *
 * Copyright 2026 The weave authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package tool holds the CLI's actual logic, kept apart from the cli
package's flag wiring.
*/
package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/krotik/common/fileutil"
	"github.com/krotik/common/stringutil"
	"github.com/krotik/weave/doc"
	"github.com/krotik/weave/util"
)

/*
ParseOptions controls ParseFile's output.
*/
type ParseOptions struct {
	JSON   bool // print the DocResult as JSON instead of an IR tree dump
	Spans  bool // include the span table in the output
	Logger util.Logger
}

/*
ParseFile reads path, parses it as a weave document and writes the
result to out, as `weave parse <file.md>` does.
*/
func ParseFile(path string, out io.Writer, opts ParseOptions) error {
	if ok, err := fileutil.PathExists(path); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("file does not exist: %s", path)
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		logger = util.NewNullLogger()
	}

	result, err := doc.ParseDoc(string(data), doc.WithLogger(logger))
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(out, result, opts.Spans)
	}

	return writeTree(out, path, result, opts.Spans)
}

func writeJSON(out io.Writer, result *doc.DocResult, withSpans bool) error {
	obj := map[string]interface{}{
		"time":   result.Time.String(),
		"errors": result.Errors,
		"blocks": result.Results.Blocks,
	}

	if withSpans {
		obj["spans"] = result.Results.Spans
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}

func writeTree(out io.Writer, path string, result *doc.DocResult, withSpans bool) error {
	fmt.Fprintf(out, "%s: %d block%s, %d error%s (%s)\n", path,
		len(result.Results.Blocks), stringutil.Plural(len(result.Results.Blocks)),
		len(result.Errors), stringutil.Plural(len(result.Errors)),
		result.Time)

	for _, b := range result.Results.Blocks {
		fmt.Fprint(out, b.String())
	}

	for _, e := range result.Errors {
		fmt.Fprintln(out, e.Error())
	}

	if withSpans {
		n := len(result.Results.Spans) / 4
		fmt.Fprintf(out, "\n%d span%s:\n", n, stringutil.Plural(n))
		flat := result.Results.Spans
		for i := 0; i+3 < len(flat); i += 4 {
			fmt.Fprintf(out, "  %v-%v %v %v\n", flat[i], flat[i+1], flat[i+2], flat[i+3])
		}
	}

	return nil
}
