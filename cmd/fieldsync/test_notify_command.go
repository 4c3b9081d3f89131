package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if !resp.Sent {
					fmt.Fprintf(cmd.OutOrStdout(), "Not sent: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
