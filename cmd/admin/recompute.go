package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRecomputeCommand(opts *options) *cobra.Command {
	var resume string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute the importance score of every backlink site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resumeID *uuid.UUID
			if resume != "" {
				id, err := uuid.Parse(resume)
				if err != nil {
					return fmt.Errorf("invalid --resume job id: %w", err)
				}
				resumeID = &id
			}

			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			job, err := e.components.Services.Recomputer.RunSync(cmd.Context(), resumeID)
			if err != nil {
				return fmt.Errorf("recompute: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s: %d/%d backlink sites processed\n",
				job.ID, job.Status, job.Processed, job.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "resume a stopped job by id")
	return cmd
}
