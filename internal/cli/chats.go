package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listSearch string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, newest first",
	Long: `List all chats on the server ordered by last activity.

Examples:
  chatrelay list
  chatrelay list --search groceries`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new chat",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCreate,
}

var renameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a chat",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a chat and all its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by title substring")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	chats, err := apiClient.ListChats(cmd.Context(), listSearch)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	if len(chats) == 0 {
		fmt.Println(defaultTheme.hintStyle().Render("no chats"))
		return nil
	}

	theme := defaultTheme
	for _, c := range chats {
		fmt.Printf("%s  %s  %s\n",
			theme.idStyle().Render(c.ID),
			theme.titleStyle().Render(c.Title),
			theme.hintStyle().Render(c.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	title := ""
	if len(args) == 1 {
		title = strings.TrimSpace(args[0])
	}

	created, err := apiClient.CreateChat(cmd.Context(), title)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	fmt.Printf("%s  %s\n",
		defaultTheme.idStyle().Render(created.ID),
		defaultTheme.titleStyle().Render(created.Title),
	)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	if err := apiClient.RenameChat(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}
	fmt.Println("renamed")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := apiClient.DeleteChat(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	fmt.Println("deleted")
	return nil
}
