package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts *options) *cobra.Command {
	var connector string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync Google Analytics and Search Console data now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			out := cmd.OutOrStdout()
			if connector != "" {
				id, parseErr := uuid.Parse(connector)
				if parseErr != nil {
					return fmt.Errorf("invalid --connector id: %w", parseErr)
				}
				result, syncErr := e.components.Syncer.SyncConnector(cmd.Context(), id)
				if syncErr != nil {
					return fmt.Errorf("sync connector %s: %w", id, syncErr)
				}
				fmt.Fprintf(out, "%s %s: %d rows for %s..%s\n",
					result.Type, result.ConnectorID, result.Rows, result.Window.Start, result.Window.End)
				return nil
			}

			summary, err := e.components.Syncer.SyncAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Fprintf(out, "%d connectors: %d succeeded, %d failed, %d rows\n",
				summary.Connectors, summary.Succeeded, summary.Failed, summary.Rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&connector, "connector", "", "sync a single connector by id")
	return cmd
}
