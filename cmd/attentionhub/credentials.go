package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage encrypted service credentials",
		Long: `Manage service credentials stored encrypted in the database.
ATTENTIONHUB_SECRET_KEY must be set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <service>",
		Short: "Store a credential read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				if err := a.credentials.Set(cmd.Context(), args[0], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Credential for %s stored.\n", color.CyanString(args[0]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored credential services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				creds, err := a.credentials.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range creds {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s updated %s\n", c.Service, c.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <service>",
		Short: "Delete a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return a.credentials.Delete(cmd.Context(), args[0])
			})
		},
	})

	return cmd
}

// readSecret reads the first line of r. Secrets are never taken from argv.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read credential: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", errors.New("credential value is empty")
	}
	return value, nil
}
