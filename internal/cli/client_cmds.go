package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"todoboard/internal/adapters/exports"
	"todoboard/internal/client"
	"todoboard/internal/todo"
)

type clientOptions struct {
	server string
}

func (o *clientOptions) client() (*client.Client, error) {
	return client.New(o.server)
}

func newListCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the board",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			board, err := c.Board(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderBoard(cmd.OutOrStdout(), board))
			return nil
		},
	}
}

func newAddCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			created, err := c.Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created #%s %q\n", created.ID, created.Title)
			return nil
		},
	}
}

func newMoveCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a todo to Todo, Doing or Completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			moved, err := c.Move(cmd.Context(), args[0], parseStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved #%s to %s\n", moved.ID, moved.Status)
			return nil
		},
	}
}

func newRemoveCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%s\n", args[0])
			return nil
		},
	}
}

func newExportCmd(opts *clientOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot the board to the server's blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := exports.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			artifact, err := c.Export(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d bytes)\n%s\n", artifact.Name, artifact.Size, artifact.URL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exports.FormatJSON), "export format (json|csv)")
	return cmd
}

// parseStatus accepts any casing and "done" for Completed. Unknown values pass
// through so the server reports them.
func parseStatus(s string) todo.Status {
	if strings.EqualFold(s, "done") {
		return todo.StatusCompleted
	}
	for _, st := range todo.Statuses() {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return todo.Status(s)
}
