package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a sync pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sync(force)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !resp.Success && len(resp.Errors) == 1 && resp.Errors[0] == "Offline" {
					fmt.Fprintln(out, "Remote unreachable; mutations stay queued until the link returns.")
					return nil
				}

				fmt.Fprintf(out, "Synced %d, failed %d\n", resp.SyncedCount, resp.FailedCount)
				for _, msg := range resp.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
				if !resp.Success {
					return fmt.Errorf("sync pass failed")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Clear the single-flight guard before syncing")
	return cmd
}
