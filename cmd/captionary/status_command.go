package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionary/internal/preflight"
	"captionary/internal/services"
)

type statusCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the transcription server, dialog helper and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			if jsonOutput {
				checks := make([]statusCheck, 0, len(results))
				for _, r := range results {
					checks = append(checks, statusCheck(r))
				}
				if err := writeJSON(cmd.OutOrStdout(), checks); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, r := range results {
					fmt.Fprintln(out, renderCheckLine(r, colorize))
				}
			}

			if !preflight.Ready(results) {
				return services.Wrap(services.ErrConfiguration, "cli", "status", "one or more checks failed", nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderCheckLine(r preflight.Result, colorize bool) string {
	kind := statusOK
	switch {
	case !r.Passed:
		kind = statusError
	case r.Warning:
		kind = statusInfo
	}
	return renderStatusLine(kind, fmt.Sprintf("%s: %s", r.Name, r.Detail), colorize)
}
