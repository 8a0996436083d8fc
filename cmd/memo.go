package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/records"
)

var (
	memoTodo  bool
	memoPin   bool
	memoGroup string
	memoText  string
)

var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Manage notes and todos",
}

var memoAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a memo",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemoAdd,
}

var memoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memos, pinned first",
	Args:  cobra.NoArgs,
	RunE:  runMemoList,
}

var memoEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a memo's text, group or todo flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoEdit,
}

var memoDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a todo's finished flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoDone,
}

var memoPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Toggle a memo's pin",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoPin,
}

var memoRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a memo",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoRm,
}

var memoGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List memo groups in use",
	Args:  cobra.NoArgs,
	RunE:  runMemoGroups,
}

func init() {
	memoAddCmd.Flags().BoolVar(&memoTodo, "todo", false, "Make the memo a todo")
	memoAddCmd.Flags().BoolVar(&memoPin, "pin", false, "Pin the memo")
	memoAddCmd.Flags().StringVar(&memoGroup, "group", "", "Group name")

	memoListCmd.Flags().StringVar(&memoGroup, "group", "", "Only show this group")

	memoEditCmd.Flags().StringVar(&memoText, "text", "", "New text")
	memoEditCmd.Flags().StringVar(&memoGroup, "group", "", "New group (\"-\" removes the group)")
	memoEditCmd.Flags().BoolVar(&memoTodo, "todo", false, "Set the todo flag")

	memoCmd.AddCommand(memoAddCmd, memoListCmd, memoEditCmd, memoDoneCmd, memoPinCmd, memoRmCmd, memoGroupsCmd)
}

// shortID is the id prefix shown in listings and accepted by lookups.
func shortID(id string) string {
	if id == "" {
		return "--------"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// lookupFailed exits with a precondition error for unknown or ambiguous ids
// and a storage error otherwise.
func lookupFailed(cleanup func(), err error) {
	if errors.Is(err, records.ErrNotFound) || errors.Is(err, records.ErrAmbiguous) {
		refuse(cleanup, err.Error())
	}
	fatal(cleanup, err)
}

func runMemoAdd(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	memo := model.Memo{
		Text:   strings.Join(args, " "),
		IsTodo: memoTodo,
		IsPin:  memoPin,
	}
	if memoGroup != "" {
		g := memoGroup
		memo.Group = &g
	}
	memo, err := a.Records.Memos.Add(context.Background(), memo)
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Added memo %s.\n", shortID(memo.ID))
	return nil
}

func runMemoList(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	list, err := a.Records.Memos.DisplayList(context.Background(), memoGroup)
	if err != nil {
		fatal(cleanup, err)
	}
	printMemos(list)
	return nil
}

func printMemos(list []model.Memo) {
	if len(list) == 0 {
		fmt.Println("No memos found.")
		return
	}
	for _, m := range list {
		mark := " "
		if m.IsPin {
			mark = "*"
		}
		box := ""
		if m.IsTodo {
			box = "[ ] "
			if m.IsTodoFinished {
				box = "[x] "
			}
		}
		group := ""
		if m.Group != nil {
			group = fmt.Sprintf("  #%s", *m.Group)
		}
		fmt.Printf("%s %s  %s%s%s\n", mark, shortID(m.ID), box, m.Text, group)
	}
}

func runMemoEdit(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	memo, err := a.Records.Memos.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	updated, err := applyMemoEdit(ctx, a, cmd, memo)
	if err != nil {
		fatal(cleanup, err)
	}
	fmt.Printf("Updated memo %s.\n", shortID(updated.ID))
	return nil
}

// applyMemoEdit saves the changes the flags describe. memo is the snapshot
// the edit started from.
func applyMemoEdit(ctx context.Context, a *app.App, cmd *cobra.Command, memo model.Memo) (model.Memo, error) {
	updated := memo
	if cmd.Flags().Changed("text") {
		updated.Text = memoText
	}
	if cmd.Flags().Changed("group") {
		if memoGroup == "-" || memoGroup == "" {
			updated.Group = nil
		} else {
			g := memoGroup
			updated.Group = &g
		}
	}
	if cmd.Flags().Changed("todo") {
		updated.IsTodo = memoTodo
		if !memoTodo {
			updated.IsTodoFinished = false
		}
	}
	return a.Records.Memos.Update(ctx, memo, updated)
}

func runMemoDone(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	memo, err := a.Records.Memos.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	if !memo.IsTodo {
		refuse(cleanup, fmt.Sprintf("Memo %s is not a todo.", shortID(memo.ID)))
	}
	memo, err = a.Records.Memos.ToggleTodo(ctx, memo)
	if err != nil {
		fatal(cleanup, err)
	}
	if memo.IsTodoFinished {
		fmt.Printf("Finished %q.\n", memo.Text)
	} else {
		fmt.Printf("Reopened %q.\n", memo.Text)
	}
	return nil
}

func runMemoPin(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	memo, err := a.Records.Memos.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	memo, err = a.Records.Memos.TogglePin(ctx, memo)
	if err != nil {
		fatal(cleanup, err)
	}
	if memo.IsPin {
		fmt.Printf("Pinned %q.\n", memo.Text)
	} else {
		fmt.Printf("Unpinned %q.\n", memo.Text)
	}
	return nil
}

func runMemoRm(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	ctx := context.Background()
	memo, err := a.Records.Memos.Lookup(ctx, args[0])
	if err != nil {
		lookupFailed(cleanup, err)
	}
	if err := a.Records.Memos.Remove(ctx, memo); err != nil {
		lookupFailed(cleanup, err)
	}
	fmt.Printf("Removed memo %s.\n", shortID(memo.ID))
	return nil
}

func runMemoGroups(cmd *cobra.Command, args []string) error {
	a, cleanup := openApp()
	defer cleanup()

	groups, err := a.Records.Memos.Groups(context.Background())
	if err != nil {
		fatal(cleanup, err)
	}
	if len(groups) == 0 {
		fmt.Println("No groups in use.")
		return nil
	}
	for _, g := range groups {
		fmt.Println(g)
	}
	return nil
}
