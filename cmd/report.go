package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the report of a completed session",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, svc := prepare(ctx)
		defer svc.Close()

		id, _ := cmd.Flags().GetString("session")

		var (
			out any
			err error
		)
		if star, _ := cmd.Flags().GetBool("star"); star {
			out, err = svc.Star(ctx, id)
		} else {
			out, err = svc.Report(ctx, id)
		}
		if err != nil {
			logger.Fatal("getting the report", zap.String("session_id", id), zap.Error(err))
		}

		if err := printJSON(out); err != nil {
			logger.Fatal("printing the report", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session", "s", "", "session id")
	reportCmd.Flags().Bool("star", false, "print the STAR sections of the summary instead of the full report")
	reportCmd.MarkFlagRequired("session")
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}
