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
Package cli builds the cobra command tree for the weave binary:
`weave parse <file.md> [--json] [--spans]`. cmd/weave's main package
does nothing but call Execute.
*/
package cli

import (
	"os"

	"github.com/krotik/weave/cli/tool"
	"github.com/krotik/weave/config"
	"github.com/krotik/weave/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

/*
NewRootCommand builds the weave root cobra.Command.
*/
func NewRootCommand() *cobra.Command {
	var logLevel, logFormat, configPath string

	root := &cobra.Command{
		Use:     "weave",
		Short:   "weave parses literate, Markdown-hosted DSL documents",
		Version: config.ProductVersion,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "log level (debug, info, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML file overriding the default tunables (LookaheadSize, SpanBufferSize, DefaultScope)")

	var jsonOut, withSpans bool

	parseCmd := &cobra.Command{
		Use:   "parse <file.md>",
		Short: "Parse a Markdown document and print its IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := config.LoadFile(configPath); err != nil {
					return err
				}
			}

			logger, err := newLogger(cmd, logLevel, logFormat)
			if err != nil {
				return err
			}

			return tool.ParseFile(args[0], cmd.OutOrStdout(), tool.ParseOptions{
				JSON:   jsonOut,
				Spans:  withSpans,
				Logger: logger,
			})
		},
	}

	parseCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON instead of a tree dump")
	parseCmd.Flags().BoolVar(&withSpans, "spans", false, "include the span table in the output")

	root.AddCommand(parseCmd)

	return root
}

/*
newLogger builds the logrus-backed Logger the CLI hands to the document
driver, honoring --log-level and --log-format.
*/
func newLogger(cmd *cobra.Command, level, format string) (util.Logger, error) {
	llevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	entry := logrus.New()
	entry.SetLevel(llevel)
	entry.SetOutput(cmd.ErrOrStderr())

	if format == "json" {
		entry.SetFormatter(&logrus.JSONFormatter{})
	}

	return util.NewLogrusLogger(entry), nil
}

/*
Execute runs the weave CLI, exiting the process with a non-zero status
on error.
*/
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
