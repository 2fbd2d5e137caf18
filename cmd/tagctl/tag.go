package main

import (
	"fmt"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/spf13/cobra"
)

var (
	noQR         bool
	revokeReason string
	listStatus   string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tag (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.CreateTag(callerContext(cmd), !noQR)
		if err != nil {
			return fmt.Errorf("creating tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [tag-id]",
	Short: "Show a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.GetTag(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("reading tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var linkCmd = &cobra.Command{
	Use:   "link [tag-id] [owner-id]",
	Short: "Link a tag to an owner record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.LinkTag(callerContext(cmd), args[0], args[1])
		if err != nil {
			return fmt.Errorf("linking tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink [tag-id]",
	Short: "Remove the owner link from a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.UnlinkTag(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("unlinking tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [tag-id]",
	Short: "Revoke a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.RevokeTag(callerContext(cmd), args[0], revokeReason)
		if err != nil {
			return fmt.Errorf("revoking tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var reactivateCmd = &cobra.Command{
	Use:   "reactivate [tag-id]",
	Short: "Reactivate a revoked or inactive tag (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.ReactivateTag(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("reactivating tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate [tag-id]",
	Short: "Suspend an active tag without revoking it (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.DeactivateTag(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("deactivating tag: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate-qr [tag-id]",
	Short: "Re-render the QR code of a tag (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.RegenerateQR(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("regenerating qr code: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags by status (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := client.ListByStatus(callerContext(cmd), models.TagStatus(listStatus))
		if err != nil {
			return fmt.Errorf("listing tags: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tags)
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner [owner-id]",
	Short: "Show the tag linked to an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := client.FindByOwner(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("finding tag: %w", err)
		}
		if tag == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "no tag linked to %s\n", args[0])
			return nil
		}
		return printJSON(cmd.OutOrStdout(), tag)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [expression]",
	Short: "List tags matching a CEL expression over `tag` (admin)",
	Long: `Search evaluates a CEL predicate against every tag, for example:

  tagctl search 'tag.status == "REVOKED" && tag.linked'
  tagctl search 'tag.token_count > 0'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := client.Search(callerContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("searching tags: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), tags)
	},
}

func init() {
	rootCmd.AddCommand(createCmd, getCmd, linkCmd, unlinkCmd, revokeCmd, reactivateCmd,
		deactivateCmd, regenerateCmd, listCmd, ownerCmd, searchCmd)

	createCmd.Flags().BoolVar(&noQR, "no-qr", false, "Skip QR code generation")
	revokeCmd.Flags().StringVar(&revokeReason, "reason", "", "Why the tag is revoked")
	listCmd.Flags().StringVar(&listStatus, "status", string(models.TagStatusActive), "ACTIVE, INACTIVE or REVOKED")
}
