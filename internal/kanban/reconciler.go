package kanban

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskflow/internal/model"
)

var (
	ErrDragInProgress = errors.New("another drag is in progress")
	ErrNotDragging    = errors.New("no drag in progress")
)

// Mover persists the dragged task's new status and position.
type Mover interface {
	SetTaskStatusAndOrder(ctx context.Context, taskID uuid.UUID, status model.TaskStatus, order *int) (*model.Task, error)
}

type State int

const (
	Idle State = iota
	Dragging
	Resolving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Outcome describes how a drag gesture ended.
type Outcome struct {
	Moved      bool
	Move       Move
	RolledBack bool
	// Err is the write failure that caused a rollback.
	Err error
}

type Option func(*Reconciler)

// WithRender registers a callback invoked with every board the reconciler
// assigns, before any network write for that board starts.
func WithRender(fn func(Board)) Option {
	return func(r *Reconciler) { r.render = fn }
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// Reconciler owns the board shown to one user and applies drag gestures to
// it optimistically: the new board is assigned and rendered first, then the
// move is written through the Mover. If the write fails the board is reset
// to the snapshot taken when the drag started.
//
// Only one gesture can hold the active task slot. A new gesture may start
// while an earlier write is still in flight; writes are not ordered against
// each other and the server keeps the last one.
type Reconciler struct {
	mu       sync.Mutex
	board    Board
	version  uint64
	active   *model.Task
	snapshot Board
	inflight int

	mover  Mover
	render func(Board)
	logger *log.Logger
}

func NewReconciler(initial Board, mover Mover, opts ...Option) *Reconciler {
	r := &Reconciler{
		board:  initial,
		mover:  mover,
		logger: log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Board returns the board currently shown.
func (r *Reconciler) Board() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// Version increases every time the shown board is replaced.
func (r *Reconciler) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.active != nil:
		return Dragging
	case r.inflight > 0:
		return Resolving
	default:
		return Idle
	}
}

// ActiveTask returns the task being dragged, if any.
func (r *Reconciler) ActiveTask() (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return model.Task{}, false
	}
	return *r.active, true
}

// Reset replaces the board, e.g. after a full reload from the server.
func (r *Reconciler) Reset(board Board) {
	r.mu.Lock()
	r.assign(board)
	r.mu.Unlock()
	r.emit(board)
}

func (r *Reconciler) DragStart(taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrDragInProgress
	}
	task, _, _, ok := r.board.FindTask(taskID)
	if !ok {
		return ErrTaskNotInBoard
	}
	r.active = &task
	r.snapshot = r.board
	return nil
}

// DragCancel abandons the active gesture without changing the board.
func (r *Reconciler) DragCancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
}

// DragEnd drops the active task on dropTargetID, a task id or a status name.
// An empty target means the task was released outside any column.
func (r *Reconciler) DragEnd(ctx context.Context, dropTargetID string) (Outcome, error) {
	r.mu.Lock()
	if r.active == nil {
		r.mu.Unlock()
		return Outcome{}, ErrNotDragging
	}
	taskID := r.active.ID
	snapshot := r.snapshot
	r.active = nil

	if dropTargetID == "" {
		r.mu.Unlock()
		return Outcome{}, nil
	}

	move, err := ComputeMove(r.board, taskID, dropTargetID)
	if err != nil {
		r.mu.Unlock()
		return Outcome{}, err
	}
	r.assign(move.Board)
	r.inflight++
	r.mu.Unlock()

	r.emit(move.Board)

	order := move.Order
	_, werr := r.mover.SetTaskStatusAndOrder(ctx, move.TaskID, move.Status, &order)

	r.mu.Lock()
	r.inflight--
	if werr == nil {
		r.mu.Unlock()
		return Outcome{Moved: true, Move: move}, nil
	}
	r.assign(snapshot)
	r.mu.Unlock()

	r.logger.WithFields(log.Fields{
		"task_id":     move.TaskID.String(),
		"from_status": move.FromStatus,
		"to_status":   move.Status,
		"order":       move.Order,
		"error":       werr.Error(),
	}).Error("kanban.move.rollback")

	r.emit(snapshot)
	return Outcome{Moved: false, Move: move, RolledBack: true, Err: werr}, nil
}

// assign is the single place the shown board changes. Callers hold mu.
func (r *Reconciler) assign(board Board) {
	r.board = board
	r.version++
}

func (r *Reconciler) emit(board Board) {
	if r.render != nil {
		r.render(board)
	}
}
