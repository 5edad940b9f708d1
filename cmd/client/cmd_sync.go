package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.app.SyncOnce(cmd.Context()); err != nil {
				return err
			}

			status := opts.app.Services.Coordinator.Status()
			for _, c := range status.Conflicts {
				fmt.Fprintf(cmd.OutOrStdout(), "conflict: note %s %s (%s)\n", c.LocalID, c.Reason, c.Resolution)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "synced")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the server and print the sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts.app.Services.Connectivity.Probe(ctx)

			pending, err := opts.app.PendingMutations(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"pending_mutations": pending,
				"sync":              opts.app.Services.Coordinator.Status(),
			})
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the device in sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "syncing, press Ctrl+C to stop")
			return opts.app.Run(ctx)
		},
	}
}
