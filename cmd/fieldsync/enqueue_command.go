package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/textutil"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var payload string
	var payloadFile string
	var actor string

	cmd := &cobra.Command{
		Use:   "enqueue <entity-type> <entity-id> <operation>",
		Short: "Record a mutation for eventual delivery",
		Long: "Records a create, update, or delete mutation in the durable queue.\n" +
			"Create and update mutations require a JSON payload via --payload or --payload-file.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if payload != "" && payloadFile != "" {
				return fmt.Errorf("specify only one of --payload or --payload-file")
			}
			body := payload
			if payloadFile != "" {
				data, err := os.ReadFile(payloadFile)
				if err != nil {
					return fmt.Errorf("read payload file: %w", err)
				}
				body = strings.TrimSpace(string(data))
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Enqueue(ipc.EnqueueRequest{
					EntityType: args[0],
					EntityID:   args[1],
					Operation:  args[2],
					Payload:    body,
					Actor:      actor,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s of %s %s (item %d)\n",
					resp.Item.Operation,
					textutil.HumanizeIdentifier(resp.Item.EntityType),
					resp.Item.EntityID,
					resp.Item.ID,
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON document for create/update mutations")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "Read the JSON payload from a file")
	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Identifier of the user or crew making the change")
	return cmd
}
