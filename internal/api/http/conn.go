package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/immxrtalbeast/canvas_sync/internal/config"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
)

// wsSink is the outbound side of one WebSocket connection. Frames are
// queued on send and written by writePump, the connection's only writer.
type wsSink struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSSink(id string, conn *websocket.Conn, buffer int) *wsSink {
	return &wsSink{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *wsSink) ID() string { return c.id }

// Enqueue never blocks. Frames offered to a closing connection are discarded.
func (c *wsSink) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *wsSink) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *wsSink) writePump(cfg config.WSConfig, log *slog.Logger) {
	ticker := time.NewTicker(cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("write failed", slog.String("session", c.id), sl.Err(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			_ = c.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		}
	}
}
