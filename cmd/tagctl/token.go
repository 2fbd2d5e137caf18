package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenHours  int
	accessToken string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and verify temporary access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue [tag-id]",
	Short: "Issue a temporary access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issued, err := client.IssueToken(callerContext(cmd), args[0], tokenHours)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), issued)
	},
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify [tag-id] [token]",
	Short: "Check a temporary access token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		valid, err := client.VerifyToken(callerContext(cmd), args[0], args[1])
		if err != nil {
			return fmt.Errorf("verifying token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "valid: %t\n", valid)
		return nil
	},
}

var accessCmd = &cobra.Command{
	Use:   "access [tag-id]",
	Short: "Evaluate access to a tag, optionally presenting a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decision, err := client.CheckAccess(callerContext(cmd), args[0], accessToken)
		if err != nil {
			return fmt.Errorf("checking access: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), decision)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd, accessCmd)
	tokenCmd.AddCommand(tokenIssueCmd, tokenVerifyCmd)

	tokenIssueCmd.Flags().IntVar(&tokenHours, "hours", 0, "Lifetime in hours (server default when unset)")
	accessCmd.Flags().StringVar(&accessToken, "token", "", "Temporary access token")
}
