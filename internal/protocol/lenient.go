package protocol

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Inbound payloads are decoded field by field. A field of the wrong type is
// treated as absent so the event still runs with that field defaulted.

type object map[string]json.RawMessage

// asObject returns nil when raw is not a JSON object.
func asObject(raw []byte) object {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

// str accepts strings and numbers; numbers keep their literal text.
func (o object) str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return string(bytes.TrimSpace(raw))
	}
	return ""
}

func (o object) num(key string) float64 {
	raw, ok := o[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return f
}

// millis reads a Unix millisecond timestamp. Fractions are truncated and
// non-positive values count as missing.
func (o object) millis(key string) *int64 {
	f := o.num(key)
	if f < 1 {
		return nil
	}
	ms := int64(f)
	return &ms
}

func (u *UserData) UnmarshalJSON(data []byte) error {
	obj := asObject(data)
	*u = UserData{Name: obj.str("name"), Color: obj.str("color")}
	return nil
}

func (r *JoinRequest) UnmarshalJSON(data []byte) error {
	obj := asObject(data)
	*r = JoinRequest{RoomID: obj.str("roomId"), UserID: obj.str("userId")}
	if raw, ok := obj["userData"]; ok {
		if ud := asObject(raw); ud != nil {
			r.UserData = &UserData{Name: ud.str("name"), Color: ud.str("color")}
		}
	}
	return nil
}

func (p *Point) UnmarshalJSON(data []byte) error {
	obj := asObject(data)
	*p = Point{X: obj.num("x"), Y: obj.num("y")}
	return nil
}

func (s *Stroke) UnmarshalJSON(data []byte) error {
	obj := asObject(data)
	*s = Stroke{
		Type:      obj.str("type"),
		Color:     obj.str("color"),
		Width:     obj.num("width"),
		Timestamp: obj.millis("timestamp"),
	}

	var items []json.RawMessage
	if err := json.Unmarshal(obj["points"], &items); err != nil {
		return nil
	}
	s.Points = make([]Point, 0, len(items))
	for _, item := range items {
		if asObject(item) == nil {
			continue
		}
		var p Point
		_ = p.UnmarshalJSON(item)
		s.Points = append(s.Points, p)
	}
	return nil
}

func (d *DrawEvent) UnmarshalJSON(data []byte) error {
	obj := asObject(data)
	*d = DrawEvent{
		ID:        obj.str("id"),
		UserID:    obj.str("userId"),
		Timestamp: obj.millis("timestamp"),
	}
	if raw, ok := obj["event"]; ok {
		_ = d.Event.UnmarshalJSON(raw)
	}
	return nil
}

// WithUserID returns a cursor payload carrying userID when the client left it
// out. Every other field is passed through untouched.
func WithUserID(payload json.RawMessage, userID string) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		out, _ := json.Marshal(map[string]string{"userId": userID})
		return out
	}

	obj := asObject(trimmed)
	if obj == nil || obj.str("userId") != "" {
		return payload
	}
	id, err := json.Marshal(userID)
	if err != nil {
		return payload
	}
	obj["userId"] = id
	out, err := json.Marshal(obj)
	if err != nil {
		return payload
	}
	return out
}
