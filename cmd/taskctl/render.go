package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"taskflow/internal/kanban"
)

// renderBoard prints one block per column, tasks in display order.
func renderBoard(w io.Writer, board kanban.Board) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, col := range board.Columns {
		fmt.Fprintf(tw, "%s (%d)\n", col.Status, len(col.Tasks))
		for _, t := range col.Tasks {
			assignee := "-"
			if t.Assignee != nil {
				assignee = t.Assignee.Email
			} else if t.AssigneeID != nil {
				assignee = t.AssigneeID.String()[:8]
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", t.Order, t.ID.String()[:8], t.Title, t.Priority, assignee)
		}
	}
	return tw.Flush()
}
