package cli

import (
	"fmt"

	"github.com/raphaelgruber/chatrelay-go/internal/store"
	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:   "messages <id>",
	Short: "Print a chat's transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessages,
}

func init() {
	rootCmd.AddCommand(messagesCmd)
}

func runMessages(cmd *cobra.Command, args []string) error {
	msgs, err := apiClient.ListMessages(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	if len(msgs) == 0 {
		fmt.Println(defaultTheme.hintStyle().Render("no messages yet"))
		return nil
	}

	theme := defaultTheme
	for _, m := range msgs {
		label := theme.userStyle().Render("user")
		if m.Role == store.RoleAssistant {
			label = theme.assistantStyle().Render("assistant")
		}
		fmt.Printf("%s %s\n%s\n\n",
			label,
			theme.hintStyle().Render(m.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			m.Content,
		)
	}
	return nil
}
