package service

import (
	"log/slog"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
	"github.com/immxrtalbeast/canvas_sync/internal/protocol"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
)

// Audience selects who receives an outbound event.
type Audience int

const (
	AudienceSender Audience = iota
	AudienceOthers
	AudienceRoom
)

func (a Audience) String() string {
	switch a {
	case AudienceSender:
		return "sender"
	case AudienceOthers:
		return "others"
	case AudienceRoom:
		return "room"
	default:
		return "unknown"
	}
}

var audiences = map[string]Audience{
	protocol.EventRoomState:     AudienceSender,
	protocol.EventPong:          AudienceSender,
	protocol.EventError:         AudienceSender,
	protocol.EventUserJoined:    AudienceOthers,
	protocol.EventUserLeft:      AudienceOthers,
	protocol.EventDraw:          AudienceOthers,
	protocol.EventCursorMove:    AudienceOthers,
	protocol.EventUsersUpdate:   AudienceRoom,
	protocol.EventOperationUndo: AudienceRoom,
	protocol.EventOperationRedo: AudienceRoom,
	protocol.EventCanvasClear:   AudienceRoom,
}

// AudienceFor reports the fan-out of a server event. Unknown events only go
// back to the sender.
func AudienceFor(event string) Audience {
	if a, ok := audiences[event]; ok {
		return a
	}
	return AudienceSender
}

// droppable events may be lost under backpressure without breaking the
// room's consistency.
func droppable(event string) bool {
	return event == protocol.EventCursorMove
}

// publish encodes payload once and fans it out according to AudienceFor.
// The caller holds room.Mutex when room is non-nil, so fan-out order matches
// log order for every connection.
func (s *RoomService) publish(room *domain.Room, sender domain.Sink, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		s.log.Error("failed to encode event", slog.String("event", event), sl.Err(err))
		return
	}

	var sinks []domain.Sink
	switch AudienceFor(event) {
	case AudienceSender:
		sinks = []domain.Sink{sender}
	case AudienceOthers:
		if room != nil {
			sinks = room.Sinks(sender.ID())
		}
	case AudienceRoom:
		if room != nil {
			sinks = room.Sinks("")
		}
	}

	s.deliver(sinks, event, frame)
}

func (s *RoomService) deliver(sinks []domain.Sink, event string, frame []byte) {
	for _, sink := range sinks {
		if sink.Enqueue(frame) {
			continue
		}
		if droppable(event) {
			s.log.Debug("dropping event", slog.String("session", sink.ID()), slog.String("type", event))
			continue
		}
		// A connection that misses a state event would diverge from the log;
		// cut it so the client rejoins and receives a fresh snapshot.
		s.log.Warn("outbound queue full, closing session",
			slog.String("session", sink.ID()),
			slog.String("type", event),
		)
		sink.Close()
	}
}

// sendTo delivers an event to one connection regardless of its audience.
func (s *RoomService) sendTo(sink domain.Sink, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		s.log.Error("failed to encode event", slog.String("event", event), sl.Err(err))
		return
	}
	s.deliver([]domain.Sink{sink}, event, frame)
}
