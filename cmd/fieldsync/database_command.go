package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newDatabaseCommand(ctx *commandContext) *cobra.Command {
	databaseCmd := &cobra.Command{
		Use:   "database",
		Short: "Inspect the queue database",
	}
	databaseCmd.AddCommand(newDatabaseHealthCommand(ctx))
	return databaseCmd
}

func newDatabaseHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run queue database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if resp != nil {
					printDatabaseHealth(cmd, resp, colorize)
				}
				return err
			})
		},
	}
}

func printDatabaseHealth(cmd *cobra.Command, health *ipc.DatabaseHealthResponse, colorize bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, renderStatusLine("Database", boolKind(health.DatabaseExists), health.DBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize))
	fmt.Fprintln(out, renderStatusLine("Schema", boolKind(health.TableExists), "version "+health.SchemaVersion, colorize))
	fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
	fmt.Fprintln(out, renderStatusLine("Items", statusInfo, fmt.Sprintf("%d", health.TotalItems), colorize))

	if len(health.MissingColumns) > 0 {
		fmt.Fprintln(out, renderStatusLine("Missing columns", statusError, strings.Join(health.MissingColumns, ", "), colorize))
	}
	if health.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
