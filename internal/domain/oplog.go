package domain

import "time"

// OperationLog is the ordered drawing history of a room with an undo cursor.
// Operations past the cursor are redo-pending; appending discards them.
//
// OperationLog is not safe for concurrent use. Room serializes access.
type OperationLog struct {
	ops        []*Operation
	activeUpTo int
	now        func() time.Time
}

func NewOperationLog(now func() time.Time) *OperationLog {
	if now == nil {
		now = time.Now
	}
	return &OperationLog{
		ops:        make([]*Operation, 0),
		activeUpTo: -1,
		now:        now,
	}
}

// Append drops the redo branch, stamps CreatedAt when missing and stores op.
// The returned operation is the stored one.
func (l *OperationLog) Append(op *Operation) *Operation {
	stored := *op
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = l.now().UTC()
	}

	if l.activeUpTo < len(l.ops)-1 {
		for i := l.activeUpTo + 1; i < len(l.ops); i++ {
			l.ops[i] = nil
		}
		l.ops = l.ops[:l.activeUpTo+1]
	}

	l.ops = append(l.ops, &stored)
	l.activeUpTo = len(l.ops) - 1
	return &stored
}

// Undo hides the last visible operation and returns it, or nil when
// nothing is visible.
func (l *OperationLog) Undo() *Operation {
	if l.activeUpTo < 0 {
		return nil
	}
	op := l.ops[l.activeUpTo]
	l.activeUpTo--
	return op
}

// Redo reveals the next redo-pending operation and returns it, or nil when
// the cursor is already at the end.
func (l *OperationLog) Redo() *Operation {
	if l.activeUpTo >= len(l.ops)-1 {
		return nil
	}
	l.activeUpTo++
	return l.ops[l.activeUpTo]
}

// Clear empties the log. It cannot be undone.
func (l *OperationLog) Clear() {
	l.ops = make([]*Operation, 0)
	l.activeUpTo = -1
}

// Visible returns the operations a client replays from a blank canvas.
func (l *OperationLog) Visible() []*Operation {
	out := make([]*Operation, l.activeUpTo+1)
	copy(out, l.ops[:l.activeUpTo+1])
	return out
}

func (l *OperationLog) ActiveUpTo() int { return l.activeUpTo }

func (l *OperationLog) Len() int { return len(l.ops) }
