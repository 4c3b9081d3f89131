package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the background daemon",
	}
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	return daemonCmd
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop daemon background services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				}
				return nil
			})
		},
	}
}
