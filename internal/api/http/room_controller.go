package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/immxrtalbeast/canvas_sync/internal/api/http/converter"
	"github.com/immxrtalbeast/canvas_sync/internal/config"
	"github.com/immxrtalbeast/canvas_sync/internal/repository"
	"github.com/immxrtalbeast/canvas_sync/internal/service"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
)

type RoomController struct {
	rooms     service.RoomInteractor
	ws        config.WSConfig
	log       *slog.Logger
	upgrader  websocket.Upgrader
	startedAt time.Time
}

func NewRoomController(rooms service.RoomInteractor, ws config.WSConfig, log *slog.Logger) *RoomController {
	if log == nil {
		log = slog.Default()
	}
	return &RoomController{
		rooms: rooms,
		ws:    ws,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  ws.ReadBufferSize,
			WriteBufferSize: ws.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		startedAt: time.Now(),
	}
}

// Connect upgrades the request and serves the connection until it closes.
// Optional room and user query parameters perform an implicit room:join.
func (c *RoomController) Connect(ctx *gin.Context) {
	const op = "api.http.room.connect"

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}

	sink := newWSSink(uuid.NewString(), conn, c.ws.SendBuffer)
	sess := c.rooms.Open(sink)
	log := c.log.With(slog.String("op", op), slog.String("session", sink.ID()))
	log.Info("connection opened", slog.String("remote", conn.RemoteAddr().String()))

	go sink.writePump(c.ws, log)

	roomID, userID := ctx.Query("room"), ctx.Query("user")
	if roomID != "" || userID != "" {
		if err := c.rooms.Join(context.Background(), sess, roomID, userID, ctx.Query("name"), ctx.Query("color")); err != nil {
			log.Warn("implicit join failed", sl.Err(err))
		}
	}

	c.readPump(conn, sink, sess, log)
}

func (c *RoomController) readPump(conn *websocket.Conn, sink *wsSink, sess *service.Session, log *slog.Logger) {
	defer func() {
		c.rooms.Close(context.Background(), sess)
		sink.Close()
		log.Info("connection closed")
	}()

	conn.SetReadLimit(c.ws.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.ws.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.ws.PongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("websocket error", sl.Err(err))
			}
			return
		}

		c.rooms.HandleFrame(context.Background(), sess, frame)
	}
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	rooms, err := c.rooms.ListRooms(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.RoomListToApi(rooms)})
}

func (c *RoomController) GetRoom(ctx *gin.Context) {
	room, err := c.rooms.GetRoom(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomSnapshotToApi(room)})
}

func (c *RoomController) Health(ctx *gin.Context) {
	stats := c.rooms.Stats()
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(c.startedAt).Round(time.Second).String(),
		"rooms":       stats.Rooms,
		"connections": stats.Connections,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *RoomController) Stats(ctx *gin.Context) {
	stats := c.rooms.Stats()
	ctx.JSON(http.StatusOK, gin.H{
		"active_rooms":       stats.Rooms,
		"active_connections": stats.Connections,
		"uptime_seconds":     int64(time.Since(c.startedAt).Seconds()),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}
