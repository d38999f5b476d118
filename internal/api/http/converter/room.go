package converter

import (
	"time"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
	"github.com/immxrtalbeast/canvas_sync/internal/repository"
	"github.com/immxrtalbeast/canvas_sync/internal/service"
)

type RoomResponse struct {
	ID               string                `json:"roomId"`
	ParticipantCount int                   `json:"participantCount"`
	OperationCount   int                   `json:"operationCount"`
	ActiveUpTo       int                   `json:"activeUpTo"`
	CreatedAt        time.Time             `json:"createdAt"`
	Participants     []ParticipantResponse `json:"participants,omitempty"`
}

type ParticipantResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"joinedAt"`
}

func RoomInfoToApi(info repository.RoomInfo) RoomResponse {
	return RoomResponse{
		ID:               info.ID,
		ParticipantCount: info.ParticipantCount,
		OperationCount:   info.OperationCount,
		ActiveUpTo:       info.ActiveUpTo,
		CreatedAt:        info.CreatedAt,
	}
}

func RoomListToApi(infos []repository.RoomInfo) []RoomResponse {
	rooms := make([]RoomResponse, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, RoomInfoToApi(info))
	}
	return rooms
}

func RoomSnapshotToApi(s *service.RoomSnapshot) RoomResponse {
	room := RoomInfoToApi(s.Info)
	room.Participants = make([]ParticipantResponse, 0, len(s.Participants))
	for _, p := range s.Participants {
		room.Participants = append(room.Participants, ParticipantToApi(p))
	}
	return room
}

func ParticipantToApi(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		Online:   p.Online,
		JoinedAt: p.JoinedAt,
	}
}
