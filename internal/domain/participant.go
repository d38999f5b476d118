package domain

import (
	"hash/fnv"
	"time"
)

var palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231",
	"#911eb4", "#42d4f4", "#f032e6", "#bfef45",
	"#469990", "#9a6324", "#800000", "#000075",
}

// Participant is a logical user inside a room. Its ID is chosen by the client
// and is independent from the connection that currently carries it.
type Participant struct {
	ID       string
	Name     string
	Color    string
	Online   bool
	JoinedAt time.Time

	// owner is the session whose departure removes this participant.
	owner string
}

func NewParticipant(id, name, color string, joinedAt time.Time) *Participant {
	if color == "" {
		color = ColorFor(id)
	}
	if name == "" {
		name = id
	}
	return &Participant{
		ID:       id,
		Name:     name,
		Color:    color,
		Online:   true,
		JoinedAt: joinedAt.UTC(),
	}
}

func (p *Participant) Owner() string { return p.owner }

// ColorFor picks a stable palette color for a participant id.
func ColorFor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Membership is the participant set of a room in insertion order.
// It is not safe for concurrent use.
type Membership struct {
	order   []string
	members map[string]*Participant
}

func NewMembership() *Membership {
	return &Membership{
		order:   make([]string, 0),
		members: make(map[string]*Participant),
	}
}

// Add inserts p or overwrites the metadata of an existing participant with
// the same id, keeping its original position and JoinedAt.
func (m *Membership) Add(p *Participant, owner string) *Participant {
	if existing, ok := m.members[p.ID]; ok {
		existing.Name = p.Name
		existing.Color = p.Color
		existing.Online = true
		existing.owner = owner
		return existing
	}

	stored := *p
	stored.owner = owner
	m.members[p.ID] = &stored
	m.order = append(m.order, p.ID)
	return &stored
}

// Remove deletes the participant and returns it, or nil if absent.
func (m *Membership) Remove(id string) *Participant {
	p, ok := m.members[id]
	if !ok {
		return nil
	}
	delete(m.members, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	p.Online = false
	return p
}

func (m *Membership) Get(id string) (*Participant, bool) {
	p, ok := m.members[id]
	return p, ok
}

// All returns copies of every participant.
func (m *Membership) All() []Participant {
	out := make([]Participant, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.members[id])
	}
	return out
}

func (m *Membership) Len() int { return len(m.members) }

func (m *Membership) transfer(id, owner string) {
	if p, ok := m.members[id]; ok {
		p.owner = owner
	}
}
