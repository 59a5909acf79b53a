package websocket

import (
	"encoding/json"
	"time"

	"estatechat/pkg/errors"
)

// Client commands.
const (
	MessageTypePing               = "ping"
	MessageTypeSetFilter          = "set_filter"
	MessageTypeSelectConversation = "select_conversation"
	MessageTypeOpenListingChat    = "open_listing_chat"
	MessageTypeCloseConversation  = "close_conversation"
	MessageTypeSetDraft           = "set_draft"
	MessageTypePickQuickReply     = "pick_quick_reply"
	MessageTypeSendMessage        = "send_message"
	MessageTypeSetLayout          = "set_layout"
)

// Server frames.
const (
	MessageTypePong  = "pong"
	MessageTypeState = "state"
	MessageTypeError = "error"
)

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type SetFilterData struct {
	Filter string `json:"filter"`
}

type SelectConversationData struct {
	ConversationID string `json:"conversation_id"`
}

type OpenListingChatData struct {
	ListingID string `json:"listing_id"`
}

type SetDraftData struct {
	Draft string `json:"draft"`
}

type PickQuickReplyData struct {
	Index int `json:"index"`
}

// SendMessageData optionally carries the text to send; when empty the
// current draft is sent.
type SendMessageData struct {
	Message string `json:"message,omitempty"`
}

type SetLayoutData struct {
	Wide bool `json:"wide"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// Decode parses an inbound frame envelope.
func Decode(frame []byte) (WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return msg, errors.BadRequest("Invalid message format", err)
	}
	if msg.Type == "" {
		return msg, errors.BadRequest("Message type is required", nil)
	}
	return msg, nil
}

// DecodeData unmarshals the payload of msg into v. A missing payload leaves
// v untouched.
func DecodeData(msg WSMessage, v interface{}) error {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return errors.BadRequest("Invalid "+msg.Type+" payload", err)
	}
	return nil
}

// Encode builds an outbound frame.
func Encode(messageType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// EncodeError renders err as an error frame for command.
func EncodeError(command string, err error) []byte {
	data := ErrorData{Code: errors.CodeInternal, Message: "Internal server error", Command: command}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		data.Code = appErr.Code
		data.Message = appErr.Message
	}
	frame, _ := Encode(MessageTypeError, data)
	return frame
}
