package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	appchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/app/chat"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/app/dto"
	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

// ChatHTTP exposes chat endpoints.
type ChatHTTP interface {
	SendMessage(c *gin.Context)
	History(c *gin.Context)
	MarkRead(c *gin.Context)
	ListConversations(c *gin.Context)
	UnreadCount(c *gin.Context)
}

// ChatHandler bridges HTTP with the message store and aggregator.
type ChatHandler struct {
	Service    *appchat.Service
	Aggregator *appchat.Aggregator
	Logger     *slog.Logger
}

// SendMessage stores a message addressed to another user. The sender
// always comes from the principal, never from the payload.
func (h ChatHandler) SendMessage(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiver_id"`
		Body       string `json:"body"`
		ProductID  string `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg, err := h.Service.Send(c.Request.Context(), domainchat.NewMessageParams{
		SenderID:   p.ID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		ProductID:  req.ProductID,
	})
	if err != nil {
		h.respondChatError(c, err, "send message", "user_id", p.ID)
		return
	}
	c.JSON(http.StatusCreated, toMessageDTO(*msg))
}

// History returns the full exchange with one partner, oldest first.
func (h ChatHandler) History(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	partnerID := strings.TrimSpace(c.Param("partner"))
	if partnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner id is required"})
		return
	}
	productID := strings.TrimSpace(c.Query("product_id"))

	messages, err := h.Service.History(c.Request.Context(), p.ID, partnerID, productID)
	if err != nil {
		h.respondChatError(c, err, "load history", "user_id", p.ID, "partner_id", partnerID)
		return
	}
	collection := dto.ChatMessageList{Items: make([]dto.ChatMessage, 0, len(messages))}
	for _, msg := range messages {
		collection.Items = append(collection.Items, toMessageDTO(msg))
	}
	c.JSON(http.StatusOK, collection)
}

// MarkRead flips unread messages from the partner to read.
func (h ChatHandler) MarkRead(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	partnerID := strings.TrimSpace(c.Param("partner"))
	if partnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner id is required"})
		return
	}
	marked, err := h.Service.MarkRead(c.Request.Context(), p.ID, partnerID)
	if err != nil {
		h.respondChatError(c, err, "mark read", "user_id", p.ID, "partner_id", partnerID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// ListConversations returns the ranked inbox for the current user.
func (h ChatHandler) ListConversations(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	conversations, err := h.Aggregator.ListConversations(c.Request.Context(), p.ID)
	if err != nil {
		h.respondChatError(c, err, "list conversations", "user_id", p.ID)
		return
	}
	collection := dto.ConversationList{Items: make([]dto.Conversation, 0, len(conversations))}
	for _, conv := range conversations {
		collection.Items = append(collection.Items, dto.Conversation{
			Partner: dto.PartnerProfile{
				ID:          conv.Partner.ID,
				DisplayName: conv.Partner.DisplayName,
				AvatarURL:   conv.Partner.AvatarURL,
			},
			LastMessage: toMessageDTO(conv.LastMessage),
			UnreadCount: conv.UnreadCount,
		})
	}
	c.JSON(http.StatusOK, collection)
}

// UnreadCount returns the total unread badge for the current user.
func (h ChatHandler) UnreadCount(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(c.Request.Context(), p.ID)
	if err != nil {
		h.respondChatError(c, err, "count unread", "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h ChatHandler) respondChatError(c *gin.Context, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, domainchat.ErrEmptyBody),
		errors.Is(err, domainchat.ErrSelfMessage),
		errors.Is(err, domainchat.ErrSenderRequired),
		errors.Is(err, domainchat.ErrReceiverRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Logger != nil {
		h.Logger.Error("chat call failed", append([]any{"action", action, "error", err}, attrs...)...)
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "message store unavailable"})
}

func toMessageDTO(msg domainchat.Message) dto.ChatMessage {
	return dto.ChatMessage{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		ProductID:  msg.ProductID,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
	}
}

var _ ChatHTTP = (*ChatHandler)(nil)
