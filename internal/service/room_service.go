package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
	"github.com/immxrtalbeast/canvas_sync/internal/protocol"
	"github.com/immxrtalbeast/canvas_sync/internal/repository"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
)

var (
	ErrNotJoined     = errors.New("connection has not joined a room")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrRateLimited   = errors.New("rate limited")
	ErrSessionClosed = errors.New("session closed")
)

type Options struct {
	DefaultRoom string
	DrawRate    rate.Limit
	DrawBurst   int
	CursorRate  rate.Limit
	CursorBurst int
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DefaultRoom: domain.DefaultRoomID,
		DrawRate:    100,
		DrawBurst:   200,
		CursorRate:  60,
		CursorBurst: 30,
		Now:         time.Now,
	}
}

// RoomService coordinates sessions: it routes inbound events to the room
// registry and fans the results out. Every mutation of a room and the
// broadcast it causes happen under that room's lock, so all connections of
// a room observe the same order. Distinct rooms proceed in parallel.
type RoomService struct {
	rooms repository.RoomRegistry
	opts  Options
	log   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRoomService(rooms repository.RoomRegistry, opts Options, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = domain.DefaultRoomID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RoomService{
		rooms:    rooms,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func newLimiter(limit rate.Limit, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// Open registers a new connection in the Unbound state.
func (s *RoomService) Open(sink domain.Sink) *Session {
	sess := &Session{
		sink:          sink,
		state:         SessionUnbound,
		drawLimiter:   newLimiter(s.opts.DrawRate, s.opts.DrawBurst),
		cursorLimiter: newLimiter(s.opts.CursorRate, s.opts.CursorBurst),
	}

	s.mu.Lock()
	s.sessions[sink.ID()] = sess
	s.mu.Unlock()

	s.log.Debug("session opened", slog.String("session", sink.ID()))
	return sess
}

// HandleFrame decodes one inbound frame and runs it to completion. Failures
// are reported to the sender only and never affect other sessions.
func (s *RoomService) HandleFrame(ctx context.Context, sess *Session, frame []byte) {
	const op = "service.room.handleFrame"
	log := s.log.With(slog.String("op", op), slog.String("session", sess.ID()))

	if sess.state == SessionClosed {
		return
	}

	env, err := protocol.Decode(frame)
	if err != nil {
		log.Debug("malformed frame", sl.Err(err))
		s.reject(sess, "", err)
		return
	}

	if err := s.dispatch(ctx, sess, env); err != nil {
		log.Debug("event rejected", slog.String("type", env.Type), sl.Err(err))
		s.reject(sess, env.Type, err)
	}
}

func (s *RoomService) dispatch(ctx context.Context, sess *Session, env *protocol.Envelope) error {
	switch env.Type {
	case protocol.EventRoomJoin:
		var req protocol.JoinRequest
		if err := env.DecodePayload(&req); err != nil {
			return err
		}
		var name, color string
		if req.UserData != nil {
			name, color = req.UserData.Name, req.UserData.Color
		}
		return s.Join(ctx, sess, req.RoomID, req.UserID, name, color)
	case protocol.EventDraw:
		var ev protocol.DrawEvent
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		return s.Draw(ctx, sess, ev)
	case protocol.EventCursorMove:
		return s.MoveCursor(ctx, sess, env.Payload)
	case protocol.EventOperationUndo:
		return s.Undo(ctx, sess)
	case protocol.EventOperationRedo:
		return s.Redo(ctx, sess)
	case protocol.EventCanvasClear:
		return s.Clear(ctx, sess)
	case protocol.EventRoomResync:
		return s.Resync(ctx, sess)
	case protocol.EventPing:
		s.Ping(sess, env.Payload)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, env.Type)
	}
}

func (s *RoomService) reject(sess *Session, event string, err error) {
	code := protocol.CodeBadFrame
	switch {
	case errors.Is(err, ErrNotJoined):
		code = protocol.CodeNotJoined
	case errors.Is(err, ErrUnknownEvent):
		code = protocol.CodeUnknownEvent
	case errors.Is(err, ErrRateLimited):
		code = protocol.CodeRateLimited
	case errors.Is(err, ErrSessionClosed):
		return
	}
	s.sendTo(sess.sink, protocol.EventError, protocol.Error{
		Code:    code,
		Message: err.Error(),
		Event:   event,
	})
}

// Join binds the session to roomID as userID, leaving any previous room.
// Empty ids fall back to the default room and the connection id.
func (s *RoomService) Join(ctx context.Context, sess *Session, roomID, userID, name, color string) error {
	const op = "service.room.join"

	if sess.state == SessionClosed {
		return ErrSessionClosed
	}
	if roomID == "" {
		roomID = s.opts.DefaultRoom
	}
	if userID == "" {
		userID = sess.ID()
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("session", sess.ID()),
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
	)

	if sess.state == SessionBound && sess.roomID != roomID {
		if err := s.leave(ctx, sess); err != nil {
			log.Warn("failed to leave previous room", sl.Err(err))
		}
	}

	room, err := s.rooms.Acquire(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer room.Mutex.Unlock()

	if sess.state == SessionBound && sess.participantID != userID {
		if left := room.Unbind(sess.ID()); left != nil {
			s.publish(room, sess.sink, protocol.EventUserLeft, protocol.FromParticipant(*left))
		}
	}

	p := room.Bind(sess.sink, domain.NewParticipant(userID, name, color, s.opts.Now()))
	sess.bind(room.ID, p.ID)

	s.publish(room, sess.sink, protocol.EventRoomState, roomState(room))
	s.publish(room, sess.sink, protocol.EventUserJoined, protocol.FromParticipant(*p))
	s.publish(room, sess.sink, protocol.EventUsersUpdate, protocol.FromParticipants(room.Members.All()))

	log.Info("participant joined",
		slog.Int("participants", room.Members.Len()),
		slog.Int("operations", room.Log.Len()),
	)
	return nil
}

// Draw appends a stroke to the bound room and forwards the stored operation
// to everyone else. A sender that left the id to the server also gets the
// stored copy so it learns the id undo/redo will refer to.
func (s *RoomService) Draw(ctx context.Context, sess *Session, ev protocol.DrawEvent) error {
	if sess.state != SessionBound {
		return ErrNotJoined
	}
	if !sess.drawLimiter.Allow() {
		// The sender already rendered the dropped stroke.
		if err := s.Resync(ctx, sess); err != nil {
			return err
		}
		return ErrRateLimited
	}

	op := ev.ToOperation(sess.participantID)

	room, err := s.lockBound(ctx, sess)
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	stored := protocol.FromOperation(room.Log.Append(op))
	s.publish(room, sess.sink, protocol.EventDraw, stored)
	if ev.ID == "" {
		s.sendTo(sess.sink, protocol.EventDraw, stored)
	}
	return nil
}

// MoveCursor forwards a pointer payload as sent, adding userId when absent.
// Moves beyond the cursor rate are dropped silently.
func (s *RoomService) MoveCursor(ctx context.Context, sess *Session, payload json.RawMessage) error {
	if sess.state != SessionBound {
		return ErrNotJoined
	}
	if !sess.cursorLimiter.Allow() {
		return nil
	}
	move := protocol.WithUserID(payload, sess.participantID)

	room, err := s.lockBound(ctx, sess)
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	s.publish(room, sess.sink, protocol.EventCursorMove, move)
	return nil
}

func (s *RoomService) Undo(ctx context.Context, sess *Session) error {
	return s.moveCursor(ctx, sess, protocol.EventOperationUndo, (*domain.OperationLog).Undo)
}

func (s *RoomService) Redo(ctx context.Context, sess *Session) error {
	return s.moveCursor(ctx, sess, protocol.EventOperationRedo, (*domain.OperationLog).Redo)
}

func (s *RoomService) moveCursor(ctx context.Context, sess *Session, event string, step func(*domain.OperationLog) *domain.Operation) error {
	room, err := s.lockBound(ctx, sess)
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	op := step(room.Log)
	if op == nil {
		return nil
	}

	s.publish(room, sess.sink, event, protocol.HistoryDelta{
		OperationID:  op.ID,
		CurrentIndex: room.Log.ActiveUpTo(),
	})
	return nil
}

func (s *RoomService) Clear(ctx context.Context, sess *Session) error {
	room, err := s.lockBound(ctx, sess)
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	room.Log.Clear()
	s.publish(room, sess.sink, protocol.EventCanvasClear, nil)

	s.log.Info("canvas cleared",
		slog.String("room_id", room.ID),
		slog.String("user_id", sess.participantID),
	)
	return nil
}

// Resync sends the bound room's current snapshot to the requester only.
func (s *RoomService) Resync(ctx context.Context, sess *Session) error {
	room, err := s.lockBound(ctx, sess)
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	s.publish(room, sess.sink, protocol.EventRoomState, roomState(room))
	return nil
}

// Ping echoes the token back. It needs no room binding.
func (s *RoomService) Ping(sess *Session, token json.RawMessage) {
	frame, err := protocol.EncodeRaw(protocol.EventPong, token)
	if err != nil {
		s.log.Error("failed to encode pong", sl.Err(err))
		return
	}
	s.deliver([]domain.Sink{sess.sink}, protocol.EventPong, frame)
}

// Close moves the session to Closed, removing it from its room.
func (s *RoomService) Close(ctx context.Context, sess *Session) {
	const op = "service.room.close"

	if sess.state == SessionClosed {
		return
	}
	if err := s.leave(ctx, sess); err != nil {
		s.log.Error("failed to leave room",
			slog.String("op", op),
			slog.String("session", sess.ID()),
			sl.Err(err),
		)
	}
	sess.state = SessionClosed

	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()

	s.log.Debug("session closed", slog.String("session", sess.ID()))
}

func (s *RoomService) leave(ctx context.Context, sess *Session) error {
	const op = "service.room.leave"

	roomID := sess.roomID
	room, err := s.lockBound(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrNotJoined) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	left := room.Unbind(sess.ID())
	if left != nil {
		s.publish(room, sess.sink, protocol.EventUserLeft, protocol.FromParticipant(*left))
		s.publish(room, sess.sink, protocol.EventUsersUpdate, protocol.FromParticipants(room.Members.All()))
	}
	remaining := room.Members.Len()
	room.Mutex.Unlock()
	sess.unbind()

	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID))
	if left != nil {
		log.Info("participant left", slog.String("user_id", left.ID), slog.Int("remaining", remaining))
	}

	deleted, err := s.rooms.DeleteIfEmpty(ctx, roomID)
	if err != nil && !errors.Is(err, repository.ErrRoomNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if deleted {
		log.Info("room closed (empty)")
	}
	return nil
}

// lockBound returns the session's room with its lock held.
func (s *RoomService) lockBound(ctx context.Context, sess *Session) (*domain.Room, error) {
	if sess.state != SessionBound {
		return nil, ErrNotJoined
	}

	room, err := s.rooms.GetByID(ctx, sess.roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			sess.unbind()
			return nil, ErrNotJoined
		}
		return nil, err
	}

	room.Mutex.Lock()
	if room.Closed() {
		room.Mutex.Unlock()
		sess.unbind()
		return nil, ErrNotJoined
	}
	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context) ([]repository.RoomInfo, error) {
	return s.rooms.List(ctx)
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*RoomSnapshot, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if room.Closed() {
		return nil, repository.ErrRoomNotFound
	}
	return &RoomSnapshot{
		Info: repository.RoomInfo{
			ID:               room.ID,
			ParticipantCount: room.Members.Len(),
			OperationCount:   room.Log.Len(),
			ActiveUpTo:       room.Log.ActiveUpTo(),
			CreatedAt:        room.CreatedAt,
		},
		Participants: room.Members.All(),
	}, nil
}

func (s *RoomService) Stats() Stats {
	s.mu.RLock()
	connections := len(s.sessions)
	s.mu.RUnlock()

	return Stats{
		Rooms:       s.rooms.Count(),
		Connections: connections,
	}
}

// Shutdown closes every open connection. Each connection's reader then runs
// Close, which releases its room.
func (s *RoomService) Shutdown() {
	s.mu.RLock()
	sinks := make([]domain.Sink, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sinks = append(sinks, sess.sink)
	}
	s.mu.RUnlock()

	for _, sink := range sinks {
		sink.Close()
	}
	s.log.Info("sessions closed", slog.Int("count", len(sinks)))
}

func roomState(room *domain.Room) protocol.RoomState {
	return protocol.RoomState{
		RoomID:       room.ID,
		Operations:   protocol.FromOperations(room.Log.Visible()),
		Users:        protocol.FromParticipants(room.Members.All()),
		CurrentIndex: room.Log.ActiveUpTo(),
	}
}
