package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Classify unanswered mentions whose verdict is missing or outdated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				result, err := a.classification.Refresh(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Candidates: %d\n", result.Candidates)
				fmt.Fprintf(out, "Classified: %s\n", color.GreenString("%d", result.Classified))
				fmt.Fprintf(out, "Skipped:    %d\n", result.Skipped)
				if result.Failed > 0 {
					fmt.Fprintf(out, "Failed:     %s\n", color.RedString("%d", result.Failed))
				}
				return nil
			})
		},
	}
}
