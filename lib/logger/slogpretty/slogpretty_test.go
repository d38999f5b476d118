package slogpretty

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
)

func TestPrettyHandlerWritesAttrs(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	h := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}.NewPrettyHandler(&buf)

	log := slog.New(h).With(slog.String("room_id", "r1"))
	log.Info("participant joined", slog.Int("participants", 2), sl.Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "participant joined")
	assert.Contains(t, out, `"room_id": "r1"`)
	assert.Contains(t, out, `"participants": 2`)
	assert.Contains(t, out, `"error": "boom"`)
}
