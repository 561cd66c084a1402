package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/resume"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain how well a posting fits a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		zlog, _, e := setup(ctx)
		defer e.Close()

		resumePath, _ := cmd.Flags().GetString("resume")
		doc, err := resume.Load(resumePath)
		if err != nil {
			zlog.Fatal("loading resume", zap.Error(err))
		}

		jobID, _ := cmd.Flags().GetString("job")
		text, err := e.recommend.Explain(ctx, jobID, doc, nil)
		if err != nil {
			zlog.Fatal("explaining posting", zap.String("job", jobID), zap.Error(err))
		}

		fmt.Println(text)
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringP("resume", "r", "", "a resume JSON file")
	explainCmd.Flags().String("job", "", "the posting id to explain")
	explainCmd.MarkFlagRequired("resume")
	explainCmd.MarkFlagRequired("job")
}
