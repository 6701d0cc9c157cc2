package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	var (
		prefix string
		date   string
		floor  int64
	)
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Raise a day's sequence counter so new ids start above --floor",
		Example: "  checkin-worker seed --prefix APT --date 2024-01-15 --floor 120",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			day := time.Now().In(e.loc)
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, e.loc)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			allocator, err := e.allocator(ctx)
			if err != nil {
				return err
			}
			if err := allocator.Seed(ctx, prefix, day, floor); err != nil {
				return err
			}
			cmd.Printf("%s counter for %s raised to at least %d\n", prefix, day.Format("2006-01-02"), floor)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "APT", "sequence prefix (APT, MR, RX)")
	cmd.Flags().StringVar(&date, "date", "", "day in the clinic timezone, YYYY-MM-DD (default today)")
	cmd.Flags().Int64Var(&floor, "floor", 0, "highest number already issued")
	_ = cmd.MarkFlagRequired("floor")
	return cmd
}
