package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/attentionhub/internal/adapter/driving/http"
	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

func newInsightsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Compute attention insights once and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				insights, err := a.insights.Get(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(httphandler.NewInsightsResponse(insights))
				}
				printSummary(cmd.OutOrStdout(), application.BuildLeaderboard(insights))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full insights as JSON")
	return cmd
}

// sectionTitles are the human readable section headings.
var sectionTitles = map[model.InsightsSection]string{
	model.SectionReviewerUnassignedPRs:   "PRs without reviewers",
	model.SectionReviewStalledPRs:        "PRs with stalled reviews",
	model.SectionMergeDelayedPRs:         "Approved PRs not merged",
	model.SectionStuckReviewRequests:     "Stuck review requests",
	model.SectionBacklogIssues:           "Backlog issues",
	model.SectionStalledInProgressIssues: "Stalled in-progress issues",
	model.SectionUnansweredMentions:      "Unanswered mentions",
}

// printSummary writes one line per section followed by its top users.
func printSummary(w io.Writer, lb model.Leaderboard) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "Attention insights (%s)\n", lb.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	for _, s := range lb.Sections {
		fmt.Fprintf(w, "  %-28s %s  %s\n", sectionTitles[s.Section], countString(s.Count), daysString(s.TotalDays))
		for _, h := range s.Highlights {
			logins := make([]string, 0, len(h.Entries))
			for _, e := range h.Entries {
				logins = append(logins, fmt.Sprintf("%s (%d)", loginOf(e.User), e.Count))
			}
			fmt.Fprintf(w, "      %-14s %s\n", string(h.Role)+":", strings.Join(logins, ", "))
		}
	}

	if lb.TotalItems == 0 {
		fmt.Fprintln(w, color.GreenString("Nothing is waiting on anyone."))
		return
	}
	fmt.Fprintf(w, "%s items need attention\n", color.YellowString("%d", lb.TotalItems))
}

func countString(n int) string {
	switch {
	case n == 0:
		return color.GreenString("%4d", n)
	case n < 10:
		return color.YellowString("%4d", n)
	default:
		return color.RedString("%4d", n)
	}
}

func daysString(days int) string {
	if days == 0 {
		return ""
	}
	return color.CyanString("%d working days waiting", days)
}

func loginOf(u model.UserReference) string {
	if u.Login != "" {
		return u.Login
	}
	return fmt.Sprintf("user#%d", u.ID)
}
