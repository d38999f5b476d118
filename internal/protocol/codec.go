package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var ErrEmptyFrame = errors.New("empty frame")

// Envelope is the frame every event travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode builds a frame. A nil payload produces an envelope without one.
func Encode(eventType string, payload any) ([]byte, error) {
	env := Envelope{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", eventType, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// EncodeRaw builds a frame around an already encoded payload.
func EncodeRaw(eventType string, payload json.RawMessage) ([]byte, error) {
	return json.Marshal(Envelope{Type: eventType, Payload: payload})
}

func Decode(frame []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(frame)) == 0 {
		return nil, ErrEmptyFrame
	}
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("decode frame: missing type")
	}
	return &env, nil
}

// DecodePayload fills v from the envelope payload. A missing or null
// payload leaves v untouched; callers substitute defaults afterwards.
func (e *Envelope) DecodePayload(v any) error {
	raw := bytes.TrimSpace(e.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
