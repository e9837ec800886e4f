package main

import (
	"CaseComments/internal/client"
	"CaseComments/internal/renderer"
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"os"
	"strings"
)

var threadCmd = &cobra.Command{
	Use:   "thread <case>",
	Short: "Show the discussion on a case",
	Args:  cobra.ExactArgs(1),
	RunE:  runThread,
}

var postCmd = &cobra.Command{
	Use:   "post <case> <content>",
	Short: "Post a comment on a case",
	Args:  cobra.ExactArgs(2),
	RunE:  runPost,
}

var editCmd = &cobra.Command{
	Use:   "edit <case> <comment-id> <new-content>",
	Short: "Edit one of your comments",
	Args:  cobra.ExactArgs(3),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <case> <comment-id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var mentionCmd = &cobra.Command{
	Use:   "mention <text>",
	Short: "Suggest names for the @mention at the end of text",
	Args:  cobra.ExactArgs(1),
	RunE:  runMention,
}

var (
	replyTo   string
	assumeYes bool
)

func init() {
	rootCmd.AddCommand(threadCmd, postCmd, editCmd, deleteCmd, mentionCmd)

	postCmd.Flags().StringVar(&replyTo, "reply-to", "", "comment ID to reply to")
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "delete without asking")
}

func loadThread(ctx context.Context, caseID string) (*renderer.Thread, error) {
	t := renderer.NewThread(client.New(cfg.APIURL, nil), caseID, cfg.Author, cfg.MentionCandidates)
	if err := t.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	return t, nil
}

func runThread(cmd *cobra.Command, args []string) error {
	t, err := loadThread(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return t.Render(cmd.OutOrStdout())
}

func runPost(cmd *cobra.Command, args []string) error {
	t, err := loadThread(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var parent *string
	if replyTo != "" {
		parent = &replyTo
	}
	c, err := t.Post(cmd.Context(), args[1], parent, nil)
	if err != nil {
		return userError(t, err)
	}

	color.Green("Posted to case %s", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Comment ID: %s\n", c.ID)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	t, err := loadThread(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := t.BeginEdit(args[1]); err != nil {
		return err
	}
	if err := t.SaveEdit(cmd.Context(), args[2]); err != nil {
		return userError(t, err)
	}

	color.Green("Comment updated")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	t, err := loadThread(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	id := args[1]
	if err := t.RequestDelete(id); err != nil {
		return err
	}

	if !assumeYes {
		prompt := fmt.Sprintf("Delete comment %s?", id)
		if n := len(t.Replies(id)); n > 0 {
			prompt += fmt.Sprintf(" Its %d replies will be hidden.", n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			t.CancelDelete()
			color.Yellow("Cancelled")
			return nil
		}
	}
	if err := t.ConfirmDelete(cmd.Context(), id); err != nil {
		return userError(t, err)
	}

	color.Green("Comment deleted")
	return nil
}

func runMention(cmd *cobra.Command, args []string) error {
	t := renderer.NewThread(nil, "", cfg.Author, cfg.MentionCandidates)
	names := t.Suggest(args[0], len(args[0]))
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No suggestions.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// userError prefers the message the thread shows the user.
func userError(t *renderer.Thread, err error) error {
	if t.Err != "" {
		return errors.New(t.Err)
	}
	return err
}
