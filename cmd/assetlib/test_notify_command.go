package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetlib/internal/notifications"
)

// newTestNotifyCommand posts a low-priority message so operators can confirm
// the ntfy topic before relying on export notices.
func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Post a test message to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			topic := cfg.Notifications.NtfyTopic
			if topic == "" {
				fmt.Fprintln(out, "Skipped: notifications.ntfy_topic is not configured")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("notify %s: %w", topic, err)
			}
			fmt.Fprintf(out, "Test notification posted to %s\n", topic)
			return nil
		},
	}
}
