package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category taxonomy",
		Long: `The taxonomy grows as expenses are recorded and confirmed; these
commands inspect it or add categories ahead of time.`,
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := eng.Categories(ctx)
			if err != nil {
				return fmt.Errorf("loading categories: %w", err)
			}
			if len(categories) == 0 {
				slog.Info("No categories yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCREATED")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, c.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := eng.AddCategory(ctx, args[0])
			if err != nil {
				return fmt.Errorf("adding category: %w", err)
			}
			slog.Info("Category added", "name", category.Name)
			return nil
		},
	}
}
