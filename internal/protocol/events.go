// Package protocol defines the canvas event protocol spoken over a
// connection: event names, typed payloads and the frame envelope.
package protocol

// Client → server.
const (
	EventRoomJoin      = "room:join"
	EventRoomResync    = "room:resync"
	EventDraw          = "draw:event"
	EventCursorMove    = "cursor:move"
	EventOperationUndo = "operation:undo"
	EventOperationRedo = "operation:redo"
	EventCanvasClear   = "canvas:clear"
	EventPing          = "ping"
)

// Server → client. draw:event, cursor:move, operation:undo, operation:redo
// and canvas:clear reuse the client names.
const (
	EventRoomState   = "room:state"
	EventUserJoined  = "user:joined"
	EventUserLeft    = "user:left"
	EventUsersUpdate = "users:update"
	EventPong        = "pong"
	EventError       = "error"
)

// Error codes carried by EventError.
const (
	CodeNotJoined    = "not_joined"
	CodeBadFrame     = "bad_frame"
	CodeUnknownEvent = "unknown_event"
	CodeRateLimited  = "rate_limited"
)

type UserData struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

type JoinRequest struct {
	RoomID   string    `json:"roomId,omitempty"`
	UserID   string    `json:"userId,omitempty"`
	UserData *UserData `json:"userData,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	Type      string  `json:"type"`
	Points    []Point `json:"points"`
	Color     string  `json:"color,omitempty"`
	Width     float64 `json:"width"`
	Timestamp *int64  `json:"timestamp,omitempty"`
}

// DrawEvent is both the inbound draw:event payload and the stored operation
// sent back out, so every client renders the same bytes the log holds.
type DrawEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Event     Stroke `json:"event"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type CursorMove struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Online   bool   `json:"online"`
	JoinedAt int64  `json:"joinedAt"`
}

type RoomState struct {
	RoomID       string      `json:"roomId"`
	Operations   []DrawEvent `json:"operations"`
	Users        []User      `json:"users"`
	CurrentIndex int         `json:"currentIndex"`
}

type HistoryDelta struct {
	OperationID  string `json:"operationId"`
	CurrentIndex int    `json:"currentIndex"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
