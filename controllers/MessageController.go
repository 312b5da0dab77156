package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-chat/middlewares"
	"clinic-chat/services"
	"clinic-chat/utils"
)

// SendMessage 发送私聊消息，响应即已持久化的消息本身
func (h *Handler) SendMessage(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}

	receiverID := c.Param("receiver_id")

	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.Dispatcher.Send(c.Request.Context(), user.ID, receiverID, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyBody), errors.Is(err, services.ErrSelfMessage):
			utils.RespondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrRecipientNotFound):
			utils.RespondError(c, http.StatusNotFound, err.Error())
		default:
			utils.RespondError(c, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}
	utils.RespondSuccess(c, message, nil)
}

// GetMessagesByConversationID 获取会话的全部消息，按时间顺序
func (h *Handler) GetMessagesByConversationID(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}

	conversationID := c.Param("conversation_id")

	messages, err := h.Dispatcher.History(c.Request.Context(), conversationID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			utils.RespondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrNotParticipant):
			utils.RespondError(c, http.StatusForbidden, "You are not part of this conversation")
		default:
			utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch messages")
		}
		return
	}
	utils.RespondSuccess(c, messages, nil)
}
