package main

import (
	"github.com/spf13/cobra"

	internalWorker "github.com/jwalitptl/clinic-checkin/internal/worker"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale check-in sessions once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			scheduler, err := e.scheduler(ctx)
			if err != nil {
				return err
			}
			expired, err := internalWorker.NewSessionReaper(scheduler, 0, e.logger).Sweep(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("expired %d sessions\n", expired)
			return nil
		},
	}
}
