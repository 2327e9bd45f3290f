package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/BradenHooton/accountdesk/internal/services"
)

var (
	activityLimit  int
	activityFormat string
)

var activityCmd = &cobra.Command{
	Use:   "activity <email>",
	Short: "Show an operator's login count and recent logins",
	Long: `Show the login counter and the most recent audit records for one operator.

Examples:
  accountdesk-admin activity ana.quispe@example.com
  accountdesk-admin activity ana.quispe@example.com --limit 50 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", 20, "Number of audit records to show")
	activityCmd.Flags().StringVar(&activityFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, admin, err := openCredentials(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	activity, err := admin.Activity(cmd.Context(), args[0], activityLimit)
	if err != nil {
		return err
	}
	return printActivity(cmd, activity, activityFormat)
}

func printActivity(cmd *cobra.Command, activity *services.OperatorActivity, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(activity)
	}

	fmt.Fprintf(out, "Operator:    %s\n", activity.Email)
	fmt.Fprintf(out, "Login count: %d\n", activity.LoginCount)
	if activity.LastLoginAt != nil {
		fmt.Fprintf(out, "Last login:  %s\n", activity.LastLoginAt.Format(time.RFC3339))
	}
	if len(activity.Recent) == 0 {
		fmt.Fprintln(out, "\nNo logins recorded.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tIP\tUSER AGENT")
	for _, e := range activity.Recent {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp, e.IPAddress, e.UserAgent)
	}
	return w.Flush()
}
