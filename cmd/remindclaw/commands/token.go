package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/config"
)

// newTokenCmd creates `remindclaw token`, which manages the Discord bot
// token in the OS keyring.
func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Discord bot token in the OS keyring",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Prompt for the token and store it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				token, err := config.ReadSecret("Discord bot token: ")
				if err != nil {
					return err
				}
				if token == "" {
					return errors.New("empty token")
				}
				if err := config.StoreToken(token); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.DeleteToken(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
				return nil
			},
		},
	)
	return cmd
}
