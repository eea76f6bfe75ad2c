// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration commands.
//
// Command: config
// Short:   Inspect or create the config file
//
// Examples:
//   darkchat config show                  Effective config as TOML
//   darkchat config show --format json    Effective config as JSON
//   darkchat config path                  Config file location
//   darkchat config init                  Write defaults to ~/.darkchat/config.toml
//   darkchat config init --force          Overwrite an existing file

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/config"
)

func newConfigCommand(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(
		newConfigShowCommand(opts),
		newConfigPathCommand(opts),
		newConfigInitCommand(opts),
	)
	return cmd
}

func newConfigShowCommand(opts *GlobalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig("config show")
			if err != nil {
				return err
			}
			data, err := cfg.Marshal(format)
			if err != nil {
				return &CommandError{Command: "config show", Reason: "unsupported format", Code: ExitUsageError, Err: err}
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", config.FormatTOML, "output format (toml, json, yaml)")
	return cmd
}

func newConfigPathCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := opts.configFile(); path != "" {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			path, err := config.DefaultPath()
			if err != nil {
				return configError("config path", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("(not created yet; run darkchat config init)"))
			return nil
		},
	}
}

func newConfigInitCommand(opts *GlobalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return configError("config init", err)
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{Command: "config init", Reason: path + " already exists (use --force to overwrite)", Code: ExitUsageError}
			}
			if err := config.Save(config.Default(), path); err != nil {
				return configError("config init", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
