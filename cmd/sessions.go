package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions of a user",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, svc := prepare(ctx)
		defer svc.Close()

		user, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(user) == "" {
			user = os.Getenv("USER")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := svc.Sessions(ctx, user, limit)
		if err != nil {
			logger.Fatal("listing sessions", zap.String("user", user), zap.Error(err))
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tUPDATED")
		for _, rec := range records {
			status := "active"
			if rec.Done() {
				status = "completed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.Title, status, rec.UpdatedAt.Format(time.DateTime))
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().StringP("user", "u", "", "owner of the sessions (default is $USER)")
	sessionsCmd.Flags().IntP("limit", "n", 20, "maximum number of sessions")
}
