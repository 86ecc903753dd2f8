package cmd

import (
	"context"
	"log"

	"github.com/spigell/star-interviewer/internal/jobfit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobfitCmd = &cobra.Command{
	Use:   "jobfit",
	Short: "Score a completed session against a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		if list, _ := cmd.Flags().GetBool("list"); list {
			if err := printJSON(jobfit.DefaultJobs); err != nil {
				log.Fatalf("printing jobs: %s", err)
			}
			return
		}

		logger, svc := prepare(ctx)
		defer svc.Close()

		id, _ := cmd.Flags().GetString("session")
		job, _ := cmd.Flags().GetString("job")
		if id == "" || job == "" {
			logger.Fatal("both --session and --job are required")
		}

		assessment, err := svc.JobFit(ctx, id, job)
		if err != nil {
			logger.Fatal("scoring job fit",
				zap.String("session_id", id),
				zap.String("job", job),
				zap.Error(err),
			)
		}

		if err := printJSON(assessment); err != nil {
			logger.Fatal("printing the assessment", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(jobfitCmd)

	jobfitCmd.Flags().StringP("session", "s", "", "session id")
	jobfitCmd.Flags().StringP("job", "J", "", "a catalog job id (marketing, pm, operations, cs) or a free-form role")
	jobfitCmd.Flags().Bool("list", false, "list the catalog jobs and exit")
}
