package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Inspect known vendors",
		Long: `Vendors are learned from confirmed expenses and used to fix
misspelled vendor names in new transcriptions.`,
	}

	cmd.AddCommand(vendorsListCmd())

	return cmd
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known vendors, most used first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vendors, err := eng.Vendors(ctx)
			if err != nil {
				return fmt.Errorf("loading vendors: %w", err)
			}
			if len(vendors) == 0 {
				slog.Info("No vendors yet")
				return nil
			}
			for _, v := range vendors {
				fmt.Println(v)
			}
			return nil
		},
	}
}
