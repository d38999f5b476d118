package service

import (
	"github.com/immxrtalbeast/canvas_sync/internal/domain"
	"golang.org/x/time/rate"
)

type SessionState string

const (
	SessionUnbound SessionState = "unbound"
	SessionBound   SessionState = "bound"
	SessionClosed  SessionState = "closed"
)

// Session is the binding of one connection to at most one room and one
// participant. It only references registry-owned state by id.
//
// A Session is driven by the single goroutine reading its connection.
type Session struct {
	sink          domain.Sink
	state         SessionState
	roomID        string
	participantID string

	drawLimiter   *rate.Limiter
	cursorLimiter *rate.Limiter
}

func (s *Session) ID() string { return s.sink.ID() }

func (s *Session) State() SessionState { return s.state }

func (s *Session) RoomID() string { return s.roomID }

func (s *Session) ParticipantID() string { return s.participantID }

func (s *Session) bind(roomID, participantID string) {
	s.roomID = roomID
	s.participantID = participantID
	s.state = SessionBound
}

func (s *Session) unbind() {
	s.roomID = ""
	s.participantID = ""
	if s.state != SessionClosed {
		s.state = SessionUnbound
	}
}
