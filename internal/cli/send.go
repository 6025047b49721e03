package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <id> <text>",
	Short: "Send a message and stream the reply",
	Long: `Send a message to a chat and print the model's reply as it is
generated. Interrupting with Ctrl-C stops the stream; the partial reply is
not saved on the server.

Examples:
  chatrelay send 4f7c… "what did we decide yesterday?"`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	err := apiClient.SendMessage(ctx, args[0], args[1], func(text string) error {
		fmt.Print(text)
		return nil
	})
	if err != nil {
		fmt.Println()
		if ctx.Err() != nil {
			fmt.Println(defaultTheme.hintStyle().Render("stream interrupted"))
			return nil
		}
		return fmt.Errorf("send message: %w", err)
	}

	fmt.Println()
	return nil
}
