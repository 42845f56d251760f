package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionary/internal/services"
)

func newPickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a media file with the native file dialog and print its path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			bridge := ctx.newBridge(cfg, logger)
			if !bridge.Available() {
				return services.Wrap(services.ErrValidation, "cli", "pick",
					fmt.Sprintf("native file dialog is not available (native.enabled=%s, dialog_command=%q)",
						yesNo(cfg.Native.Enabled), cfg.Native.DialogCommand), nil)
			}
			path, ok, err := bridge.PickFile(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return services.Wrap(services.ErrValidation, "cli", "pick", "no file selected", nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
