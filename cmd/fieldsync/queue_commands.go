package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/textutil"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the mutation queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(listStatuses)
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						textutil.HumanizeIdentifier(item.EntityType),
						item.EntityID,
						item.Operation,
						item.Status,
						strconv.Itoa(item.Attempts),
						item.ErrorMessage,
						item.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				rendered := renderTable(queueListColumns, rows)
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed mutations for delivery",
		Long:  "Moves failed mutations back to pending. With no ids, all failed mutations are requeued.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry(ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d item(s)\n", resp.Updated)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a queued mutation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(id)
				if err != nil {
					return err
				}
				if !resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %d not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearForce bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				var removed int64
				switch {
				case clearCompleted:
					resp, err := client.QueueClearCompleted()
					if err != nil {
						return err
					}
					removed = resp.Removed
				case clearFailed:
					resp, err := client.QueueClearFailed()
					if err != nil {
						return err
					}
					removed = resp.Removed
				default:
					if !clearForce {
						return errors.New("clearing the whole queue discards undelivered mutations; pass --force to confirm")
					}
					resp, err := client.QueueClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only delivered items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only parked items")
	cmd.Flags().BoolVar(&clearForce, "force", false, "Confirm removal of pending items")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueHealth()
				if err != nil {
					return err
				}
				rows := [][]string{
					{"pending", strconv.Itoa(resp.Pending)},
					{"completed", strconv.Itoa(resp.Completed)},
					{"failed", strconv.Itoa(resp.Failed)},
					{"total", strconv.Itoa(resp.Total)},
				}
				rendered := renderTable(queueHealthColumns, rows)
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
