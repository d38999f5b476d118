package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
)

// InMemoryRoomRegistry owns every live room. Its own lock only guards the
// id -> room map; in-room work is serialized by each Room's Mutex.
//
// Lock order is registry, then room. Nothing holding a room lock may call
// back into the registry.
type InMemoryRoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	now   func() time.Time
}

func NewInMemoryRoomRegistry(now func() time.Time) *InMemoryRoomRegistry {
	if now == nil {
		now = time.Now
	}
	return &InMemoryRoomRegistry{
		rooms: make(map[string]*domain.Room),
		now:   now,
	}
}

func (r *InMemoryRoomRegistry) Acquire(ctx context.Context, id string) (*domain.Room, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		room := r.getOrCreate(id)
		room.Mutex.Lock()
		if !room.Closed() {
			return room, nil
		}
		// Deleted between lookup and lock; the next lookup creates a fresh room.
		room.Mutex.Unlock()
	}
}

func (r *InMemoryRoomRegistry) getOrCreate(id string) *domain.Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room
	}
	room = domain.NewRoom(id, r.now)
	r.rooms[id] = room
	return room
}

func (r *InMemoryRoomRegistry) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (r *InMemoryRoomRegistry) DeleteIfEmpty(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return false, ErrRoomNotFound
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if !room.Empty() {
		return false, nil
	}
	room.MarkClosed()
	delete(r.rooms, id)
	return true, nil
}

func (r *InMemoryRoomRegistry) List(ctx context.Context) ([]RoomInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rooms := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	result := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.Mutex.Lock()
		if !room.Closed() {
			result = append(result, RoomInfo{
				ID:               room.ID,
				ParticipantCount: room.Members.Len(),
				OperationCount:   room.Log.Len(),
				ActiveUpTo:       room.Log.ActiveUpTo(),
				CreatedAt:        room.CreatedAt,
			})
		}
		room.Mutex.Unlock()
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryRoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
