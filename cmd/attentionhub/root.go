package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command with all subcommands registered.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "attentionhub",
		Short: "Follow-up and attention insights for an engineering organization",
		Long: `attentionhub reads a snapshot of repository activity and reports the
pull requests, review requests, issues, and @mentions that are waiting on
someone. Thresholds are measured in working days.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInsightsCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newCredentialsCmd())

	return rootCmd
}
