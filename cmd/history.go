package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shirooni/typebot/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished tests from the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		userID, _ := cmd.Flags().GetInt64("user")

		s, err := openEventLog()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.QueryTestEvents(cmd.Context(), store.QueryOpts{Limit: limit, UserID: userID})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No finished tests found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-16s  %-18s  %5s  %5s  %7s  %s\n",
			"ID", "Timestamp", "Player", "Kind", "WPM", "Acc", "Success", "Rank")
		fmt.Println(strings.Repeat("─", 96))

		for _, e := range events {
			fmt.Printf("%-5d  %-19s  %-16s  %-18s  %5.0f  %4.0f%%  %3d/%-3d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.DisplayName, 16),
				e.Kind,
				e.AvgWPM,
				e.AvgAccuracy,
				e.SuccessCount,
				e.Prompts,
				e.Rank,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of tests to show")
	historyCmd.Flags().Int64P("user", "u", 0, "Only show tests of this user id")
}
