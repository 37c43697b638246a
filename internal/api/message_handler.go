package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler serves direct messages. Clients poll these endpoints.
type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	To   string `json:"to" binding:"required,objectid"`
	Text string `json:"text"`
}

// SendMessage godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body SendMessageRequest true "Recipient and text"
// @Success 201 {object} domain.Message
// @Failure 404 {object} gin.H "Recipient not found"
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	fromID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	toID, _ := primitive.ObjectIDFromHex(req.To)

	msg, err := h.messageService.Send(c.Request.Context(), fromID, toID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Unread godoc
// @Summary Unread message counts
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UnreadResponse
// @Router /messages/unread [get]
func (h *MessageHandler) Unread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	summary, err := h.messageService.UnreadSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUnread(summary))
}

// Conversations godoc
// @Summary My conversations, newest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ConversationResponse
// @Router /messages/conversations [get]
func (h *MessageHandler) Conversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	views, err := h.messageService.Conversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapConversations(userID, views))
}

// Thread godoc
// @Summary Messages exchanged with a user, oldest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Partner ID"
// @Success 200 {array} domain.Message
// @Router /messages/{userId} [get]
func (h *MessageHandler) Thread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	partnerID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}
	msgs, err := h.messageService.Thread(c.Request.Context(), userID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(msgs))
}

// MarkRead godoc
// @Summary Mark a conversation as read
// @Description Also marks the matching message notifications as read.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param senderId path string true "Sender ID"
// @Success 200 {object} gin.H
// @Router /messages/read/{senderId} [put]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	senderID, ok := pathObjectID(c, "senderId")
	if !ok {
		return
	}
	n, err := h.messageService.MarkRead(c.Request.Context(), userID, senderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// DeleteConversation godoc
// @Summary Hide a conversation from my view
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param partnerId path string true "Partner ID"
// @Success 200 {object} gin.H
// @Router /messages/conversation/{partnerId} [delete]
func (h *MessageHandler) DeleteConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	partnerID, ok := pathObjectID(c, "partnerId")
	if !ok {
		return
	}
	n, err := h.messageService.DeleteConversation(c.Request.Context(), userID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted", "hidden": n})
}
