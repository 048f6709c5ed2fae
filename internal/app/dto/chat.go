package dto

import "time"

// ChatMessage is a single message payload.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	ProductID  string    `json:"product_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// ChatMessageList is a chronological message collection.
type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
}

// PartnerProfile describes the other participant of a conversation.
type PartnerProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Conversation is one inbox entry.
type Conversation struct {
	Partner     PartnerProfile `json:"partner"`
	LastMessage ChatMessage    `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
}

// ConversationList is the ranked inbox.
type ConversationList struct {
	Items []Conversation `json:"items"`
}

// NotificationPreferences mirrors the stored opt-in flags.
type NotificationPreferences struct {
	PushChatMessages bool `json:"push_chat_messages"`
	PushCartUpdates  bool `json:"push_cart_updates"`
}
