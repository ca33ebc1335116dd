package models

type EventType string

// Inbound event types.
const (
	EventUserConnected         EventType = "user_connected"
	EventJoinRoom              EventType = "join_room"
	EventSendMessage           EventType = "send_message"
	EventShareFile             EventType = "share_file"
	EventTyping                EventType = "typing"
	EventFriendRequestSent     EventType = "friend_request_sent"
	EventFriendRequestAccepted EventType = "friend_request_accepted"
	EventFriendRequestRejected EventType = "friend_request_rejected"
)

// Outbound event types. EventTyping and EventFriendRequestAccepted appear in
// both directions.
const (
	EventReceiveMessage        EventType = "receive_message"
	EventFileShared            EventType = "file_shared"
	EventOnlineUsers           EventType = "online_users"
	EventFriendRequestReceived EventType = "friend_request_received"
	EventError                 EventType = "error"
)

// ClientEvent is the envelope for everything a connected client sends.
type ClientEvent struct {
	Type     EventType `json:"type"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Text     string    `json:"text,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	FileURL  string    `json:"file_url,omitempty"`
	Typing   bool      `json:"typing,omitempty"`
}

// ServerEvent is the envelope for everything fanned out to clients.
type ServerEvent struct {
	Type    EventType `json:"type"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Typing  bool      `json:"typing"`
	Message *Message  `json:"message,omitempty"`
	Users   []string  `json:"users,omitempty"`
	Error   string    `json:"error,omitempty"`
}
