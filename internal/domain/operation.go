package domain

import (
	"time"

	"github.com/google/uuid"
)

type OperationKind string

const (
	OperationDraw  OperationKind = "draw"
	OperationErase OperationKind = "erase"
)

const DefaultStrokeWidth = 2.0

type Point struct {
	X float64
	Y float64
}

// Operation is one completed stroke or erase gesture. It is never mutated
// after it has been appended to an OperationLog.
type Operation struct {
	ID          string
	AuthorID    string
	Kind        OperationKind
	Points      []Point
	Color       string
	StrokeWidth float64
	CreatedAt   time.Time
}

// NewOperation fills the fields a client is allowed to omit. Unknown kinds
// fall back to draw and non-positive widths to DefaultStrokeWidth.
func NewOperation(id, authorID string, kind OperationKind, points []Point, color string, width float64) *Operation {
	if id == "" {
		id = uuid.NewString()
	}
	if kind != OperationErase {
		kind = OperationDraw
	}
	if kind == OperationErase {
		color = ""
	}
	if width <= 0 {
		width = DefaultStrokeWidth
	}
	pts := make([]Point, len(points))
	copy(pts, points)

	return &Operation{
		ID:          id,
		AuthorID:    authorID,
		Kind:        kind,
		Points:      pts,
		Color:       color,
		StrokeWidth: width,
	}
}

// Visible reports whether the operation has enough points to render a stroke.
func (o *Operation) Visible() bool {
	return o != nil && len(o.Points) >= 2
}
