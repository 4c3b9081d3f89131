package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the fieldsync configuration",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("configuration already exists at %s; pass --force to overwrite", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit remote.base_url and remote.api_token before starting the daemon.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "data_dir            = %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log_dir             = %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "remote.base_url     = %s\n", cfg.Remote.BaseURL)
			fmt.Fprintf(out, "remote.api_token    = %s\n", maskToken(cfg.Remote.APIToken))
			fmt.Fprintf(out, "sync.poll_interval  = %ds\n", cfg.Sync.PollInterval)
			fmt.Fprintf(out, "sync.debounce       = %dms\n", cfg.Sync.EnqueueDebounceMS)
			fmt.Fprintf(out, "sync.retry_limit    = %d\n", cfg.Sync.RetryLimit)
			fmt.Fprintf(out, "probe.interval      = %ds\n", cfg.Connectivity.ProbeInterval)
			fmt.Fprintf(out, "probe.netlink       = %s\n", yesNo(cfg.Connectivity.Netlink))
			fmt.Fprintf(out, "ntfy.topic          = %s\n", cfg.Notifications.NtfyTopic)
			fmt.Fprintf(out, "logging             = %s/%s\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}
}

func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:2] + "****" + token[len(token)-2:]
}
