package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskflow/internal/client"
	"taskflow/internal/kanban"
	"taskflow/internal/model"
)

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := newClient().Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export TASKFLOW_TOKEN=%s\n", tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board [project-id]",
		Short: "Print a project's kanban board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			board, err := newClient().GetKanban(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return renderBoard(cmd.OutOrStdout(), board)
		},
	}
}

func moveCmd() *cobra.Command {
	var projectArg string
	cmd := &cobra.Command{
		Use:   "move [task-id] [target]",
		Short: "Drop a task on another task or on a column",
		Long: `Drop a task on another task or on a column, as a drag on the board would.

The target is either a task id, which takes that task's place, or one of
TODO, IN_PROGRESS, REVIEW, DONE, which appends to that column.

Examples:
  taskctl move 6f1c... DONE --project 2b9e...
  taskctl move 6f1c... 91d0... --project 2b9e...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(projectArg)
			if err != nil {
				return fmt.Errorf("invalid project id %q", projectArg)
			}
			taskID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			target := normalizeTarget(args[1])

			cl := newClient()
			board, err := cl.GetKanban(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := []kanban.Option{kanban.WithLogger(log.StandardLogger())}
			if verbose {
				opts = append(opts, kanban.WithRender(func(b kanban.Board) {
					_ = renderBoard(out, b)
					fmt.Fprintln(out)
				}))
			}
			r := kanban.NewReconciler(board, cl, opts...)

			if err := r.DragStart(taskID); err != nil {
				return err
			}
			outcome, err := r.DragEnd(cmd.Context(), target)
			if err != nil {
				return err
			}
			if outcome.RolledBack {
				return fmt.Errorf("move rejected, board restored: %w", describeWriteError(outcome.Err))
			}
			if outcome.Moved {
				fmt.Fprintf(out, "moved %s to %s at position %d\n", taskID, outcome.Move.Status, outcome.Move.Order)
			}
			if !verbose {
				return renderBoard(out, r.Board())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectArg, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func addCmd() *cobra.Command {
	var draft client.TaskDraft
	var projectArg, status, priority string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task at the end of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(projectArg)
			if err != nil {
				return fmt.Errorf("invalid project id %q", projectArg)
			}
			draft.ProjectID = projectID
			draft.Title = args[0]
			if status != "" {
				s, err := model.ParseTaskStatus(strings.ToUpper(status))
				if err != nil {
					return err
				}
				draft.Status = string(s)
			}
			if priority != "" {
				p, err := model.ParseTaskPriority(strings.ToUpper(priority))
				if err != nil {
					return err
				}
				draft.Priority = string(p)
			}

			task, err := newClient().CreateTask(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s in %s at position %d\n", task.ID, task.Status, task.Order)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectArg, "project", "", "project id")
	cmd.Flags().StringVarP(&status, "status", "s", "", "initial column (default TODO)")
	cmd.Flags().StringVar(&priority, "priority", "", "LOW, MEDIUM, HIGH or URGENT")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// normalizeTarget upper-cases column names so "done" works; task ids pass
// through unchanged.
func normalizeTarget(arg string) string {
	if s, err := model.ParseTaskStatus(strings.ToUpper(arg)); err == nil {
		return string(s)
	}
	return arg
}

func describeWriteError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s: %s", apiErr.Kind, apiErr.Message)
	}
	return err
}
