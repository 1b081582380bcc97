package kanban

import (
	"errors"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

var (
	ErrTaskNotInBoard    = errors.New("task not on board")
	ErrUnknownDropTarget = errors.New("unknown drop target")
)

// Move is the result of dropping a task: the board to render and the
// position to persist for the dragged task.
type Move struct {
	Board      Board
	TaskID     uuid.UUID
	FromStatus model.TaskStatus
	Status     model.TaskStatus
	Order      int
}

// StatusChanged reports whether the move crosses columns.
func (m Move) StatusChanged() bool {
	return m.FromStatus != m.Status
}

// ComputeMove drops draggedID onto dropTargetID, which is either the id of a
// task on the board or a status name for the empty area of a column.
//
// Dropping on a task takes that task's index in its column, computed after
// the dragged task has been removed from it. Dropping on a column appends.
// Every column whose contents change is renumbered 0..n-1.
func ComputeMove(board Board, draggedID uuid.UUID, dropTargetID string) (Move, error) {
	dragged, fromStatus, fromIndex, ok := board.FindTask(draggedID)
	if !ok {
		return Move{}, ErrTaskNotInBoard
	}

	toStatus, index, err := resolveDropTarget(board, dragged, fromStatus, fromIndex, dropTargetID)
	if err != nil {
		return Move{}, err
	}

	fromCol, _ := board.Column(fromStatus)
	toCol, _ := board.Column(toStatus)

	origin, dest, index := Splice(fromCol.Tasks, toCol.Tasks, dragged, toStatus, index)

	next := Board{ProjectID: board.ProjectID, Columns: make([]Column, len(board.Columns))}
	copy(next.Columns, board.Columns)
	next.Columns[board.columnIndex(fromStatus)] = Column{Status: fromStatus, Tasks: origin}
	next.Columns[board.columnIndex(toStatus)] = Column{Status: toStatus, Tasks: dest}

	return Move{
		Board:      next,
		TaskID:     draggedID,
		FromStatus: fromStatus,
		Status:     toStatus,
		Order:      index,
	}, nil
}

func resolveDropTarget(board Board, dragged model.Task, fromStatus model.TaskStatus, fromIndex int, target string) (model.TaskStatus, int, error) {
	if status, err := model.ParseTaskStatus(target); err == nil {
		col, ok := board.Column(status)
		if !ok {
			return "", 0, ErrUnknownDropTarget
		}
		n := len(col.Tasks)
		if status == fromStatus {
			n--
		}
		return status, n, nil
	}

	targetID, err := uuid.Parse(target)
	if err != nil {
		return "", 0, ErrUnknownDropTarget
	}
	if targetID == dragged.ID {
		return fromStatus, fromIndex, nil
	}

	_, status, _, ok := board.FindTask(targetID)
	if !ok {
		return "", 0, ErrUnknownDropTarget
	}
	col, _ := board.Column(status)
	idx := 0
	for _, t := range col.Tasks {
		if t.ID == dragged.ID {
			continue
		}
		if t.ID == targetID {
			return status, idx, nil
		}
		idx++
	}
	return "", 0, ErrUnknownDropTarget
}

// Splice removes moved from origin and inserts it into dest at index, clamped
// to the destination length after removal. When origin and dest are the same
// partition (same status) the two slices must hold the same tasks. It returns
// fresh renumbered slices and the clamped index; the inputs are not modified.
func Splice(origin, dest []model.Task, moved model.Task, status model.TaskStatus, index int) ([]model.Task, []model.Task, int) {
	sameColumn := moved.Status == status

	remaining := make([]model.Task, 0, len(origin))
	for _, t := range origin {
		if t.ID != moved.ID {
			remaining = append(remaining, t)
		}
	}

	target := remaining
	if !sameColumn {
		target = make([]model.Task, 0, len(dest)+1)
		for _, t := range dest {
			if t.ID != moved.ID {
				target = append(target, t)
			}
		}
	}

	if index < 0 {
		index = 0
	}
	if index > len(target) {
		index = len(target)
	}

	moved.Status = status
	inserted := make([]model.Task, 0, len(target)+1)
	inserted = append(inserted, target[:index]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, target[index:]...)
	inserted = Renumber(inserted)

	if sameColumn {
		return inserted, inserted, index
	}
	return Renumber(remaining), inserted, index
}

// Renumber rewrites Order to each task's position. It modifies and returns
// the slice it is given.
func Renumber(tasks []model.Task) []model.Task {
	for i := range tasks {
		tasks[i].Order = i
	}
	return tasks
}
