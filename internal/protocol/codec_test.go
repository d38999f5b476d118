package protocol

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/canvas_sync/internal/domain"
)

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = Decode([]byte("   "))
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.Error(t, err)
}

func TestDecodePayloadToleratesMissingPayload(t *testing.T) {
	for _, frame := range []string{
		`{"type":"room:join"}`,
		`{"type":"room:join","payload":null}`,
		`{"type":"room:join","payload":{}}`,
	} {
		env, err := Decode([]byte(frame))
		require.NoError(t, err, frame)

		var req JoinRequest
		require.NoError(t, env.DecodePayload(&req), frame)
		assert.Empty(t, req.RoomID)
		assert.Empty(t, req.UserID)
		assert.Nil(t, req.UserData)
	}
}

func TestDecodeJoinIgnoresUnknownFields(t *testing.T) {
	env, err := Decode([]byte(`{"type":"room:join","payload":{"roomId":"r1","userId":"u1","userData":{"name":"Ann","color":"#fff"},"extra":true}}`))
	require.NoError(t, err)

	var req JoinRequest
	require.NoError(t, env.DecodePayload(&req))
	assert.Equal(t, "r1", req.RoomID)
	assert.Equal(t, "u1", req.UserID)
	require.NotNil(t, req.UserData)
	assert.Equal(t, "Ann", req.UserData.Name)
	assert.Equal(t, "#fff", req.UserData.Color)
}

func TestEncodeOmitsNilPayload(t *testing.T) {
	frame, err := Encode(EventCanvasClear, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"canvas:clear"}`, string(frame))

	frame, err = EncodeRaw(EventPong, json.RawMessage(`"tok-1"`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong","payload":"tok-1"}`, string(frame))
}

func TestDrawEventToOperation(t *testing.T) {
	var ev DrawEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "s1",
		"event": {"type": "erase", "points": [{"x":1,"y":2},{"x":3,"y":4}], "color": "#ff0000", "width": 12}
	}`), &ev))

	op := ev.ToOperation("bound-user")
	assert.Equal(t, "s1", op.ID)
	assert.Equal(t, "bound-user", op.AuthorID)
	assert.Equal(t, domain.OperationErase, op.Kind)
	assert.Equal(t, []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, op.Points)
	assert.Empty(t, op.Color)
	assert.Equal(t, 12.0, op.StrokeWidth)
	assert.True(t, op.CreatedAt.IsZero(), "missing timestamps are left for the log to stamp")
}

func TestDrawEventTimestamps(t *testing.T) {
	outer, inner := int64(1700000000000), int64(1600000000000)

	ev := DrawEvent{UserID: "u", Event: Stroke{Timestamp: &inner}}
	assert.Equal(t, time.UnixMilli(inner).UTC(), ev.ToOperation("").CreatedAt)

	ev.Timestamp = &outer
	assert.Equal(t, time.UnixMilli(outer).UTC(), ev.ToOperation("").CreatedAt)
}

func TestFromOperationRoundTripsShape(t *testing.T) {
	created := time.UnixMilli(1700000000123).UTC()
	op := domain.NewOperation("s1", "alice", domain.OperationDraw, []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, "#00ff00", 3)
	op.CreatedAt = created

	ev := FromOperation(op)
	require.NotNil(t, ev.Timestamp)
	require.NotNil(t, ev.Event.Timestamp)
	assert.Equal(t, created.UnixMilli(), *ev.Timestamp)
	assert.Equal(t, "draw", ev.Event.Type)

	back := ev.ToOperation("")
	assert.Equal(t, op.ID, back.ID)
	assert.Equal(t, op.AuthorID, back.AuthorID)
	assert.Equal(t, op.Points, back.Points)
	assert.Equal(t, op.Color, back.Color)
	assert.Equal(t, created, back.CreatedAt)
}

func TestDrawEventDefaultsMistypedFields(t *testing.T) {
	var ev DrawEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 17,
		"userId": {"nested": true},
		"timestamp": 1700000000000.9,
		"event": {"type": 3, "points": "none", "width": "3", "timestamp": -5}
	}`), &ev))

	assert.Equal(t, "17", ev.ID)
	assert.Empty(t, ev.UserID)
	require.NotNil(t, ev.Timestamp)
	assert.Equal(t, int64(1700000000000), *ev.Timestamp)
	assert.Nil(t, ev.Event.Timestamp)
	assert.Empty(t, ev.Event.Points)

	op := ev.ToOperation("bound")
	assert.Equal(t, "bound", op.AuthorID)
	assert.Equal(t, domain.OperationDraw, op.Kind)
	assert.Equal(t, domain.DefaultStrokeWidth, op.StrokeWidth)
}

func TestJoinRequestDefaultsMistypedFields(t *testing.T) {
	env, err := Decode([]byte(`{"type":"room:join","payload":{"roomId":42,"userId":false,"userData":{"name":7,"color":null}}}`))
	require.NoError(t, err)

	var req JoinRequest
	require.NoError(t, env.DecodePayload(&req))
	assert.Equal(t, "42", req.RoomID)
	assert.Empty(t, req.UserID)
	require.NotNil(t, req.UserData)
	assert.Equal(t, "7", req.UserData.Name)
	assert.Empty(t, req.UserData.Color)

	env, err = Decode([]byte(`{"type":"room:join","payload":[1,2]}`))
	require.NoError(t, err)
	require.NoError(t, env.DecodePayload(&req))
	assert.Equal(t, JoinRequest{}, req)
}

func TestWithUserID(t *testing.T) {
	assert.JSONEq(t, `{"userId":"u1"}`, string(WithUserID(nil, "u1")))
	assert.JSONEq(t, `{"userId":"u1","x":1,"extra":[1]}`, string(WithUserID(json.RawMessage(`{"x":1,"extra":[1]}`), "u1")))
	assert.JSONEq(t, `{"userId":"u1","x":1}`, string(WithUserID(json.RawMessage(`{"userId":"","x":1}`), "u1")))
	assert.JSONEq(t, `{"userId":"other"}`, string(WithUserID(json.RawMessage(`{"userId":"other"}`), "u1")))
	assert.Equal(t, `[1,2]`, string(WithUserID(json.RawMessage(`[1,2]`), "u1")))
}
