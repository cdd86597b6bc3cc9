package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func remindCmd(configFile *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder job once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configFile, func(ctx context.Context, a *app) error {
				res, err := a.handler.Reminders.Run(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				fmt.Printf("reminders sent:    %d\n", res.UpcomingReminders)
				fmt.Printf("overdue notices:   %d\n", res.OverdueNotices)
				fmt.Printf("penalties applied: %d\n", res.PenaltiesApplied)
				fmt.Printf("lease notices:     %d\n", res.LeaseNotices)
				fmt.Printf("already reminded:  %d\n", res.RemindersSkipped)
				for _, e := range res.Errors {
					fmt.Printf("error: %s\n", e)
				}
				for _, s := range res.Skipped {
					fmt.Printf("skipped: %s\n", s)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}
