package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var allowCmd = &cobra.Command{
	Use:   "allow",
	Short: "Manage the operator allow-list",
	Long: `Add operators to the allow-list or toggle their access. Disabled operators
keep their audit history and login count.

Examples:
  accountdesk-admin allow add ana.quispe@example.com
  accountdesk-admin allow disable ana.quispe@example.com
  accountdesk-admin allow enable ana.quispe@example.com`,
}

var allowAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add or re-activate an operator",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllowAdd,
}

var allowDisableCmd = &cobra.Command{
	Use:   "disable <email>",
	Short: "Revoke an operator's access",
	Args:  cobra.ExactArgs(1),
	RunE:  setActive(false),
}

var allowEnableCmd = &cobra.Command{
	Use:   "enable <email>",
	Short: "Restore an operator's access",
	Args:  cobra.ExactArgs(1),
	RunE:  setActive(true),
}

func init() {
	allowCmd.AddCommand(allowAddCmd)
	allowCmd.AddCommand(allowDisableCmd)
	allowCmd.AddCommand(allowEnableCmd)
	rootCmd.AddCommand(allowCmd)
}

func runAllowAdd(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, admin, err := openCredentials(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	entry, err := admin.AddMember(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is allowed\n", entry.Email)
	return nil
}

func setActive(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		db, admin, err := openCredentials(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := admin.SetMemberActive(cmd.Context(), args[0], active); err != nil {
			return err
		}

		state := "disabled"
		if active {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", args[0], state)
		return nil
	}
}
