package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomInfo is a read-only snapshot of one room for the side channel.
type RoomInfo struct {
	ID               string
	ParticipantCount int
	OperationCount   int
	ActiveUpTo       int
	CreatedAt        time.Time
}

type RoomRegistry interface {
	// Acquire returns the live room for id, creating it when absent, with
	// its Mutex held. The caller must unlock it.
	Acquire(ctx context.Context, id string) (*domain.Room, error)
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	// DeleteIfEmpty removes the room only when it has no bindings left.
	DeleteIfEmpty(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]RoomInfo, error)
	Count() int
}
