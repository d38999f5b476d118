package domain

import (
	"sync"
	"time"
)

const DefaultRoomID = "default"

// Sink is the room-side handle of one live connection.
type Sink interface {
	ID() string
	// Enqueue queues an encoded frame without blocking. It reports false
	// when the connection cannot take more frames.
	Enqueue(frame []byte) bool
	Close()
}

// Binding ties a connection to the participant it speaks for.
type Binding struct {
	Sink          Sink
	ParticipantID string
}

// Room is an isolated canvas with its own log and membership. Every field
// below Mutex is guarded by it; holders must keep it for the whole
// mutate-then-broadcast sequence so observers see one total order.
type Room struct {
	Mutex     sync.Mutex
	ID        string
	Log       *OperationLog
	Members   *Membership
	Bindings  map[string]*Binding
	CreatedAt time.Time

	closed bool
}

func NewRoom(id string, now func() time.Time) *Room {
	if now == nil {
		now = time.Now
	}
	return &Room{
		ID:        id,
		Log:       NewOperationLog(now),
		Members:   NewMembership(),
		Bindings:  make(map[string]*Binding),
		CreatedAt: now().UTC(),
	}
}

// Bind attaches a connection and registers (or refreshes) its participant.
func (r *Room) Bind(sink Sink, p *Participant) *Participant {
	r.Bindings[sink.ID()] = &Binding{Sink: sink, ParticipantID: p.ID}
	return r.Members.Add(p, sink.ID())
}

// Unbind detaches a connection. When the connection owned its participant
// and no other connection speaks for the same id, the participant is removed
// and returned; otherwise ownership moves and nil is returned.
func (r *Room) Unbind(sessionID string) *Participant {
	b, ok := r.Bindings[sessionID]
	if !ok {
		return nil
	}
	delete(r.Bindings, sessionID)

	p, ok := r.Members.Get(b.ParticipantID)
	if !ok || p.owner != sessionID {
		return nil
	}
	for sid, other := range r.Bindings {
		if other.ParticipantID == b.ParticipantID {
			r.Members.transfer(b.ParticipantID, sid)
			return nil
		}
	}
	return r.Members.Remove(b.ParticipantID)
}

// Sinks returns the bound connections, skipping exclude when non-empty.
func (r *Room) Sinks(exclude string) []Sink {
	out := make([]Sink, 0, len(r.Bindings))
	for sid, b := range r.Bindings {
		if sid == exclude {
			continue
		}
		out = append(out, b.Sink)
	}
	return out
}

func (r *Room) Empty() bool {
	return len(r.Bindings) == 0 && r.Members.Len() == 0
}

// Closed reports whether the registry already dropped this room. A closed
// room must not be bound to again.
func (r *Room) Closed() bool { return r.closed }

func (r *Room) MarkClosed() { r.closed = true }
