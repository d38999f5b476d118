package protocol

import (
	"time"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
)

// ToOperation maps an inbound draw event onto a log operation. The author
// falls back to the bound participant and a client timestamp, when present,
// becomes CreatedAt.
func (d DrawEvent) ToOperation(boundUserID string) *domain.Operation {
	author := d.UserID
	if author == "" {
		author = boundUserID
	}

	points := make([]domain.Point, len(d.Event.Points))
	for i, p := range d.Event.Points {
		points[i] = domain.Point{X: p.X, Y: p.Y}
	}

	op := domain.NewOperation(d.ID, author, domain.OperationKind(d.Event.Type), points, d.Event.Color, d.Event.Width)

	switch {
	case d.Timestamp != nil && *d.Timestamp > 0:
		op.CreatedAt = time.UnixMilli(*d.Timestamp).UTC()
	case d.Event.Timestamp != nil && *d.Event.Timestamp > 0:
		op.CreatedAt = time.UnixMilli(*d.Event.Timestamp).UTC()
	}
	return op
}

func FromOperation(op *domain.Operation) DrawEvent {
	points := make([]Point, len(op.Points))
	for i, p := range op.Points {
		points[i] = Point{X: p.X, Y: p.Y}
	}
	ts := op.CreatedAt.UnixMilli()

	return DrawEvent{
		ID:     op.ID,
		UserID: op.AuthorID,
		Event: Stroke{
			Type:      string(op.Kind),
			Points:    points,
			Color:     op.Color,
			Width:     op.StrokeWidth,
			Timestamp: &ts,
		},
		Timestamp: &ts,
	}
}

func FromOperations(ops []*domain.Operation) []DrawEvent {
	out := make([]DrawEvent, 0, len(ops))
	for _, op := range ops {
		out = append(out, FromOperation(op))
	}
	return out
}

func FromParticipant(p domain.Participant) User {
	return User{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		Online:   p.Online,
		JoinedAt: p.JoinedAt.UnixMilli(),
	}
}

func FromParticipants(ps []domain.Participant) []User {
	out := make([]User, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromParticipant(p))
	}
	return out
}
