// Package protocol defines the wire envelope exchanged with frontends and the
// codec between turn results and outbound messages. Every message shares one
// envelope shape; the payload varies by kind.
package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates envelope payloads.
type Kind string

const (
	// KindChatMessage carries conversational text. The only kind accepted
	// inbound; also used outbound for questions and confirmations.
	KindChatMessage Kind = "chat_message"
	// KindActionRequest asks the user to pick from explicit options.
	KindActionRequest Kind = "action_request"
	// KindSlideUpdate carries a full or partial outline.
	KindSlideUpdate Kind = "slide_update"
	// KindStatusUpdate signals progress and non-recoverable failures.
	KindStatusUpdate Kind = "status_update"
	// KindErrorResponse reports a recoverable turn error with guidance.
	KindErrorResponse Kind = "error_response"
)

// Envelope is the common frame around every payload.
type Envelope struct {
	MessageID string    `json:"message_id" mapstructure:"message_id"`
	SessionID string    `json:"session_id" mapstructure:"session_id"`
	Timestamp time.Time `json:"timestamp" mapstructure:"-"`
	Type      Kind      `json:"type" mapstructure:"type"`
	Payload   any       `json:"payload" mapstructure:"payload"`
}

// ChatPayload is the body of a chat_message.
type ChatPayload struct {
	Text      string   `json:"text" mapstructure:"text"`
	SubTitle  string   `json:"sub_title,omitempty" mapstructure:"sub_title"`
	ListItems []string `json:"list_items,omitempty" mapstructure:"list_items"`
	Format    string   `json:"format,omitempty" mapstructure:"format"`
}

// Action is one option inside an action_request.
type Action struct {
	Label         string `json:"label"`
	Value         string `json:"value"`
	Primary       bool   `json:"primary,omitempty"`
	RequiresInput bool   `json:"requires_input,omitempty"`
}

// ActionPayload is the body of an action_request.
type ActionPayload struct {
	PromptText string   `json:"prompt_text"`
	Actions    []Action `json:"actions"`
}

// Slide update operation types.
const (
	OpFullUpdate    = "full_update"
	OpPartialUpdate = "partial_update"
)

// OutlineMetadata is the presentation-level header of a slide_update.
type OutlineMetadata struct {
	MainTitle            string `json:"main_title"`
	OverallTheme         string `json:"overall_theme,omitempty"`
	DesignSuggestions    string `json:"design_suggestions,omitempty"`
	TargetAudience       string `json:"target_audience,omitempty"`
	PresentationDuration int    `json:"presentation_duration,omitempty"`
}

// SlidePayload is the body of a slide_update. AffectedSlideIDs is set only
// for partial updates and names the slides a frontend needs to re-render.
type SlidePayload struct {
	OperationType    string          `json:"operation"`
	Metadata         OutlineMetadata `json:"metadata"`
	Slides           any             `json:"slides"`
	AffectedSlideIDs []string        `json:"affected_slides,omitempty"`
}

// Status levels for status_update payloads.
const (
	StatusIdle       = "idle"
	StatusThinking   = "thinking"
	StatusGenerating = "generating"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// StatusPayload is the body of a status_update. Progress is a 0-100
// percentage and EstimatedTime a rough remaining-seconds hint; both are
// optional and only set by transports that stream interim statuses.
type StatusPayload struct {
	Status        string `json:"status"`
	Text          string `json:"text,omitempty"`
	Progress      int    `json:"progress,omitempty"`
	EstimatedTime int    `json:"estimated_time,omitempty"`
}

// ErrorPayload is the body of an error_response.
type ErrorPayload struct {
	ErrorCode    string   `json:"error_code"`
	ErrorMessage string   `json:"error_message"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// NewMessageID mints a wire message id ("msg_" + 8 hex chars).
func NewMessageID() string {
	return "msg_" + uuid.NewString()[:8]
}

func newEnvelope(sessionID string, kind Kind, payload any) Envelope {
	return Envelope{
		MessageID: NewMessageID(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Type:      kind,
		Payload:   payload,
	}
}

// Status builds a standalone status_update envelope. Transports emit a
// thinking status as soon as a turn is accepted, before processing starts.
func Status(sessionID, status, text string) Envelope {
	return newEnvelope(sessionID, KindStatusUpdate, StatusPayload{Status: status, Text: text})
}

// ErrorResponse builds a standalone error_response envelope.
func ErrorResponse(sessionID, code, message string, suggestions []string) Envelope {
	return newEnvelope(sessionID, KindErrorResponse, ErrorPayload{
		ErrorCode:    code,
		ErrorMessage: message,
		Suggestions:  suggestions,
	})
}
