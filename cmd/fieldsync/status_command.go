package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, connectivity, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			client, err := ctx.dialClient()
			if err != nil {
				// The daemon is down; report what the queue database says.
				return printOfflineStatus(cmd, ctx, colorize)
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			printDaemonStatus(cmd, status, colorize)
			return nil
		},
	}
}

func printDaemonStatus(cmd *cobra.Command, status *ipc.StatusResponse, colorize bool) {
	out := cmd.OutOrStdout()

	runningKind := statusError
	if status.Running {
		runningKind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))

	onlineKind := statusWarn
	onlineMsg := "remote unreachable"
	if status.Online {
		onlineKind = statusOK
		onlineMsg = "remote reachable"
	}
	fmt.Fprintln(out, renderStatusLine("Connectivity", onlineKind, onlineMsg, colorize))

	syncMsg := "idle"
	if status.Syncing {
		syncMsg = "pass in progress"
	}
	fmt.Fprintln(out, renderStatusLine("Sync", statusInfo, syncMsg, colorize))

	pendingKind := statusOK
	if status.PendingCount > 0 {
		pendingKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Pending", pendingKind, strconv.Itoa(status.PendingCount), colorize))
	fmt.Fprintln(out, renderStatusLine("Last sync", statusInfo, formatTime(status.LastSyncAt), colorize))

	if status.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
}

func printOfflineStatus(cmd *cobra.Command, ctx *commandContext, colorize bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not running", colorize))

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	pending, err := store.PendingCount(cmd.Context())
	if err != nil {
		return err
	}
	pendingKind := statusOK
	if pending > 0 {
		pendingKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Pending", pendingKind, strconv.Itoa(pending), colorize))
	fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, cfg.DatabasePath(), colorize))
	return nil
}
