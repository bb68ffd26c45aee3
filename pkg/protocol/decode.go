package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeError describes a malformed inbound message. It is safe to echo back
// to the sender.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "malformed message: " + e.Reason
	}
	return fmt.Sprintf("malformed message: field %q %s", e.Field, e.Reason)
}

// Inbound is a validated user message.
type Inbound struct {
	MessageID string
	SessionID string
	Text      string
}

// inboundWire mirrors the envelope for strict decoding. Timestamp is accepted
// but ignored; the server clock is authoritative.
type inboundWire struct {
	MessageID string         `mapstructure:"message_id"`
	SessionID string         `mapstructure:"session_id"`
	Timestamp string         `mapstructure:"timestamp"`
	Type      string         `mapstructure:"type"`
	Payload   map[string]any `mapstructure:"payload"`
}

// Decode parses and validates one inbound frame. Only chat_message is
// accepted from clients; every other kind is server-to-client.
func Decode(data []byte) (*Inbound, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Reason: "not valid JSON"}
	}

	var wire inboundWire
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &wire,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, &DecodeError{Reason: "unexpected structure: " + err.Error()}
	}

	if wire.SessionID == "" {
		return nil, &DecodeError{Field: "session_id", Reason: "is required"}
	}
	if Kind(wire.Type) != KindChatMessage {
		return nil, &DecodeError{Field: "type", Reason: fmt.Sprintf("must be %q, got %q", KindChatMessage, wire.Type)}
	}

	var payload ChatPayload
	pdec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &payload,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := pdec.Decode(wire.Payload); err != nil {
		return nil, &DecodeError{Field: "payload", Reason: "unexpected structure: " + err.Error()}
	}
	if strings.TrimSpace(payload.Text) == "" {
		return nil, &DecodeError{Field: "payload.text", Reason: "is required"}
	}

	id := wire.MessageID
	if id == "" {
		id = NewMessageID()
	}
	return &Inbound{MessageID: id, SessionID: wire.SessionID, Text: payload.Text}, nil
}
