package irisfast

import "strings"

// WebSocketState is the connection lifecycle reported to state callbacks.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

// Message is one inbound chat event pushed by Iris over the WebSocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON is the raw KakaoTalk chat log row attached to a Message.
type MessageJSON struct {
	ID        string `json:"_id,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UserID returns the stable author id, falling back to the sender name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	if m.Sender != nil {
		return strings.TrimSpace(*m.Sender)
	}
	return ""
}

// SenderName returns the display name Iris attached to the message.
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sender)
}

type Config struct {
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}
