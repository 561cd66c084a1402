package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/posting"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the posting catalog",
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Full-text and filtered search over the catalog",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		zlog, _, e := setup(ctx)
		defer e.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		criteria := criteriaFromFlags(cmd, filtering.Criteria{})

		filters := filtering.New(filtering.Steps(criteria), zlog)

		var found *posting.Postings
		if text := strings.Join(args, " "); text != "" {
			items, err := e.catalog.Query(text, limit)
			if err != nil {
				zlog.Fatal("searching the catalog", zap.Error(err))
			}
			if found, err = filters.Run(ctx, posting.New(items...)); err != nil {
				zlog.Fatal("filtering postings", zap.Error(err))
			}
		} else {
			items, err := e.catalog.Search(ctx, criteria)
			if err != nil {
				zlog.Fatal("searching the catalog", zap.Error(err))
			}
			found = posting.New(items...)
		}
		found.Limit(limit)

		for _, status := range filters.Describe() {
			zlog.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
		}

		if report, _ := cmd.Flags().GetBool("report"); report {
			pretty, _ := json.MarshalIndent(found.ReportByCompany(), "", "  ")
			zlog.Info(string(pretty), zap.Int("postings count", found.Len()))
			return
		}

		for _, p := range found.Items {
			zlog.Info(p.Title+" / "+p.Company,
				zap.String(logger.FieldPostingID, p.ID),
				zap.String("location", p.Location),
				zap.Bool("remote", p.Remote),
				zap.String("level", string(p.ExperienceLevel)),
			)
		}
		zlog.Info("search finished", zap.Int("count", found.Len()), zap.Int("catalog size", e.catalog.Len()))
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSearchCmd)

	catalogSearchCmd.Flags().IntP("limit", "l", 20, "maximum number of postings")
	catalogSearchCmd.Flags().Bool("report", false, "group the result by company")
	addFilterFlags(catalogSearchCmd)
}
