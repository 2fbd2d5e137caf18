package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lyzr/tagservice/common/clients"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    string
	role      string
	verbose   bool

	client *clients.TagClient
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tagctl",
	Short: "Administer pet ID tags and temporary access tokens",
	Long: `tagctl drives the tag service HTTP API.
Caller identity is sent as X-User-ID / X-User-Role, as the upstream gateway would.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log := logger.NewWithWriter(cmd.ErrOrStderr(), level, "text")

		cfg := clients.LoadClientConfig()
		client = clients.NewTagClient(strings.TrimRight(serverURL, "/"), cfg.Timeout, log)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg := clients.LoadClientConfig()

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", cfg.ServerURL, "Tag service base URL (TAG_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", cfg.UserID, "Caller id sent as X-User-ID (TAG_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&role, "role", cfg.Role, "Caller role sent as X-User-Role (TAG_USER_ROLE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// callerContext carries the caller identity flags into the client
func callerContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if userID != "" {
		ctx = clients.WithUserID(ctx, userID)
	}
	if role != "" {
		ctx = clients.WithUserRole(ctx, role)
	}
	return ctx
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
