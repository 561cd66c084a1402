package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/filtering"
	"github.com/spigell/jobrec/internal/logger"
	"github.com/spigell/jobrec/internal/matching"
	"github.com/spigell/jobrec/internal/posting"
	"github.com/spigell/jobrec/internal/recommend"
	"github.com/spigell/jobrec/internal/resume"
)

const (
	PromptExplain             = "Explain a recommendation"
	PromptReportByCompanies   = "Report by companies"
	PromptDumpToFile          = "Dump recommendations to file"
	PromptAppendToExcludeFile = "Append all recommendations to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank catalog postings against a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("resume", "r", "", "a resume JSON file")
	recommendCmd.Flags().IntP("limit", "l", 0, "maximum number of recommendations")
	recommendCmd.Flags().BoolP("auto-approve", "y", false, "print recommendations and exit without the interactive menu")
	recommendCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")
	addFilterFlags(recommendCmd)

	recommendCmd.MarkFlagRequired("resume")
	viper.BindPFlag("recommend.limit", recommendCmd.Flags().Lookup("limit"))
	viper.BindPFlag("recommend.exclude-file", recommendCmd.Flags().Lookup("exclude-file"))
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("keyword", "k", nil, "keep postings mentioning any of the keywords")
	cmd.Flags().String("location", "", "keep postings in this location or remote ones")
	cmd.Flags().String("level", "", "keep postings of this experience level (entry, mid, senior, lead)")
	cmd.Flags().Float64("salary-min", 0, "keep postings whose salary maximum reaches this value")
	cmd.Flags().Bool("remote", false, "keep only remote postings (--remote=false keeps only on-site ones)")
}

// criteriaFromFlags overlays the filter flags that were set on base.
func criteriaFromFlags(cmd *cobra.Command, base filtering.Criteria) filtering.Criteria {
	flags := cmd.Flags()
	if flags.Changed("keyword") {
		base.Keywords, _ = flags.GetStringSlice("keyword")
	}
	if flags.Changed("location") {
		base.Location, _ = flags.GetString("location")
	}
	if flags.Changed("level") {
		level, _ := flags.GetString("level")
		base.ExperienceLevel = posting.ParseExperienceLevel(level)
	}
	if flags.Changed("salary-min") {
		base.SalaryMin, _ = flags.GetFloat64("salary-min")
	}
	if flags.Changed("remote") {
		remote, _ := flags.GetBool("remote")
		base.Remote = &remote
	}
	return base
}

func setup(ctx context.Context) (*zap.Logger, *Config, *engine) {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting the jobrec", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	e, err := newEngine(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("building the recommendation engine", zap.Error(err))
	}

	return zlog, config, e
}

func runRecommend(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, config, e := setup(ctx)
	defer e.Close()

	resumePath, _ := cmd.Flags().GetString("resume")
	doc, err := resume.Load(resumePath)
	if err != nil {
		zlog.Fatal("loading resume", zap.Error(err))
	}

	criteria := criteriaFromFlags(cmd, config.Recommend.Filters)
	criteria.ExcludeFile = config.Recommend.ExcludeFile
	if config.Recommend.Exclude != nil {
		criteria.ExcludedCompanies = append(criteria.ExcludedCompanies, config.Recommend.Exclude.Companies...)
	}

	recs, err := e.recommend.Recommend(ctx, doc, recommend.Options{Limit: config.Recommend.Limit, Filters: criteria})
	if err != nil {
		zlog.Fatal("recommending postings", zap.Error(err))
	}

	if len(recs) == 0 {
		zlog.Info("exiting", zap.String("reason", "no postings matched"))
		return
	}

	printRecommendations(zlog, recs)

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		return
	}

	menu := promptui.Select{
		Label: "What next?",
		Items: []string{PromptExplain, PromptReportByCompanies, PromptDumpToFile, PromptAppendToExcludeFile, PromptExit},
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			zlog.Fatal("prompt failed", zap.Error(err))
		}

		if err := handleAction(action, zlog, config, e, recs); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			zlog.Fatal("exiting", zap.Error(err))
		}
	}
}

func printRecommendations(zlog *zap.Logger, recs []*matching.Recommendation) {
	for i, rec := range recs {
		zlog.Info(fmt.Sprintf("%d. %s / %s", i+1, rec.Title, rec.Company),
			zap.String(logger.FieldPostingID, rec.JobID),
			zap.Int("match_score", rec.MatchScore),
			zap.Int("growth_potential", rec.GrowthPotential),
			zap.Strings("missing_skills", rec.MissingSkills),
		)
	}
}

func handleAction(action string, zlog *zap.Logger, config *Config, e *engine, recs []*matching.Recommendation) error {
	switch action {
	case PromptExit:
		zlog.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptExplain:
		return explainInteractive(recs)
	case PromptReportByCompanies:
		postings := recommendedPostings(e, recs)
		pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
		zlog.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := recommendedPostings(e, recs).DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		zlog.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := strings.TrimSpace(config.Recommend.ExcludeFile)
		if excludeFile == "" {
			zlog.Warn("exclude file is not configured", zap.String("hint", "set recommend.exclude-file or --exclude-file"))
			return nil
		}

		excluded, err := posting.ExcludedFromFile(excludeFile)
		if err != nil {
			return err
		}
		excluded.Append(recommendedPostings(e, recs).ToExcluded())
		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}

		zlog.Info("appended to exclude file", zap.String("filename", excludeFile))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func explainInteractive(recs []*matching.Recommendation) error {
	items := make([]string, 0, len(recs)+1)
	for _, rec := range recs {
		items = append(items, fmt.Sprintf("%s %s / %s / %d%%", rec.JobID, rec.Title, rec.Company, rec.MatchScore))
	}

	selectPrompt := promptui.Select{
		Label: "Choose a recommendation and press ENTER",
		Items: append(items, PromptBack),
	}

	for {
		i, selected, err := selectPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}
		fmt.Println(recommend.FormatExplanation(recs[i]))
	}
}

func recommendedPostings(e *engine, recs []*matching.Recommendation) *posting.Postings {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.JobID)
	}
	items, _ := e.catalog.Get(context.Background(), ids)
	return posting.New(items...)
}
