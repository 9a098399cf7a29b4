package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onnwee/collegefit/internal/college"
)

func newSearchCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		catalog string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find colleges in a catalog file by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := college.LoadJSON(catalog)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			recs, err := repo.Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			logger(cmd).Debug("search finished", "query", query, "matches", len(recs))

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				_, err := fmt.Fprintln(out, "no colleges found")
				return err
			}
			for _, r := range recs {
				loc := strings.TrimPrefix(strings.Join([]string{r.City, r.State}, ", "), ", ")
				if _, err := fmt.Fprintf(out, "%-8d %s (%s)\n", r.ID, r.Name, loc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "JSON catalog file (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum matches to print")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}
