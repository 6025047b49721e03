// Package cli provides the command-line interface for chatrelay.
package cli

import (
	"github.com/raphaelgruber/chatrelay-go/internal/client"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string

	// Client shared by all commands, created in PersistentPreRun.
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Chat with a chatrelay server",
	Long: `Chatrelay is a minimal chat-session client. It lists, creates, renames
and deletes chat threads on a running chatrelay server and streams model
replies token by token to the terminal.

The server is resolved from --server, CHATRELAY_SERVER_URL, or
http://localhost:8487 in that order.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = client.New(serverURL)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "chatrelay server URL")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
