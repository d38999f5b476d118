package service

import (
	"context"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
	"github.com/immxrtalbeast/canvas_sync/internal/repository"
)

type RoomInteractor interface {
	Open(sink domain.Sink) *Session
	HandleFrame(ctx context.Context, sess *Session, frame []byte)
	Join(ctx context.Context, sess *Session, roomID, userID string, name, color string) error
	Close(ctx context.Context, sess *Session)
	ListRooms(ctx context.Context) ([]repository.RoomInfo, error)
	GetRoom(ctx context.Context, id string) (*RoomSnapshot, error)
	Stats() Stats
	Shutdown()
}

// RoomSnapshot is a consistent read of one room taken under its lock.
type RoomSnapshot struct {
	Info         repository.RoomInfo
	Participants []domain.Participant
}

type Stats struct {
	Rooms       int
	Connections int
}
