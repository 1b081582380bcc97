// Package kanban holds the board view of a project's tasks: projection of a
// flat task list into status columns, the pure move computation used for
// drag and drop, and the optimistic reconciler that drives it.
package kanban

import (
	"sort"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

// Column is one status lane of a board. Tasks are in display order.
type Column struct {
	Status model.TaskStatus `json:"status"`
	Tasks  []model.Task     `json:"tasks"`
}

// Board is an immutable snapshot of a project's tasks grouped by status. It
// always has one column per status, in model.Statuses order. Operations in
// this package never modify a Board in place.
type Board struct {
	ProjectID uuid.UUID `json:"projectId"`
	Columns   []Column  `json:"columns"`
}

// Project builds a board from a flat task list. Each column is sorted by
// Order ascending; ties keep their input order, which the repository supplies
// as newest first.
func Project(projectID uuid.UUID, tasks []model.Task) Board {
	board := Board{
		ProjectID: projectID,
		Columns:   make([]Column, len(model.Statuses)),
	}
	for i, status := range model.Statuses {
		col := Column{Status: status, Tasks: []model.Task{}}
		for _, t := range tasks {
			if t.Status == status {
				col.Tasks = append(col.Tasks, t)
			}
		}
		sort.SliceStable(col.Tasks, func(a, b int) bool {
			return col.Tasks[a].Order < col.Tasks[b].Order
		})
		board.Columns[i] = col
	}
	return board
}

// Column returns the column for status.
func (b Board) Column(status model.TaskStatus) (Column, bool) {
	for _, col := range b.Columns {
		if col.Status == status {
			return col, true
		}
	}
	return Column{}, false
}

// FindTask locates a task by id and returns it with its column and index.
func (b Board) FindTask(id uuid.UUID) (model.Task, model.TaskStatus, int, bool) {
	for _, col := range b.Columns {
		for i, t := range col.Tasks {
			if t.ID == id {
				return t, col.Status, i, true
			}
		}
	}
	return model.Task{}, "", -1, false
}

// Tasks flattens the board back into a list in display order.
func (b Board) Tasks() []model.Task {
	var out []model.Task
	for _, col := range b.Columns {
		out = append(out, col.Tasks...)
	}
	return out
}

// Clone returns a deep copy of the column slices.
func (b Board) Clone() Board {
	out := Board{ProjectID: b.ProjectID, Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		out.Columns[i] = Column{Status: col.Status, Tasks: append([]model.Task{}, col.Tasks...)}
	}
	return out
}

func (b Board) columnIndex(status model.TaskStatus) int {
	for i, col := range b.Columns {
		if col.Status == status {
			return i
		}
	}
	return -1
}
