// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Chat API status command.
//
// Command: status
// Short:   Probe the chat API and show the resolved endpoints
//
// Examples:
//   darkchat status                           Human-readable status
//   darkchat status --json                    Status as JSON
//   darkchat status --origin https://x.dev    Check a deployed origin
//
// Exits with code 5 when the health check fails.

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/config"
)

func newStatusCommand(opts *GlobalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Probe the chat API and show the resolved endpoints",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("status", opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			setupColors()

			eps, env, err := config.ResolveEndpoints(a.cfg.API)
			if err != nil {
				return configError("status", err)
			}

			data := StatusData{
				Version:     Version,
				ConfigFile:  opts.configFile(),
				Environment: string(env),
				Endpoints:   eps,
			}

			start := time.Now()
			health, probeErr := a.client.Health(cmd.Context())
			data.LatencyMs = time.Since(start).Milliseconds()
			data.Available = probeErr == nil
			if health != nil {
				data.Health = health.Status
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				resp := NewJSONResponse("status", data)
				if probeErr != nil {
					resp = NewJSONErrorResponse("status", data, probeErr)
				}
				if err := resp.Write(out); err != nil {
					return err
				}
			} else {
				printStatus(out, data, probeErr)
			}

			if probeErr != nil {
				return &CommandError{Command: "status", Reason: "chat API unavailable", Code: ExitNetworkError, Err: probeErr, Silent: true}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print status as JSON")
	return cmd
}

func printStatus(w io.Writer, d StatusData, probeErr error) {
	fmt.Fprintln(w, TitleStyle.Render("darkchat status"))

	configFile := d.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	fmt.Fprintln(w, RenderField("Version", d.Version))
	fmt.Fprintln(w, RenderField("Config", configFile))
	fmt.Fprintln(w, RenderField("Environment", d.Environment))
	fmt.Fprintln(w, RenderSeparator(50))
	fmt.Fprintln(w, RenderField("Chat", d.Endpoints.Chat))
	fmt.Fprintln(w, RenderField("Health", d.Endpoints.Health))
	fmt.Fprintln(w, RenderField("Fallback", d.Endpoints.Fallback))
	fmt.Fprintln(w, RenderSeparator(50))

	api := fmt.Sprintf("%s available (%dms)", RenderStatus(true), d.LatencyMs)
	if probeErr != nil {
		api = RenderStatus(false) + " unavailable: " + probeErr.Error()
	}
	fmt.Fprintln(w, LabelStyle.Render("API")+api)
}
