package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-chat/middlewares"
	"clinic-chat/models"
	"clinic-chat/utils"
)

// GetConversations 返回当前用户参与的所有会话，按最近活跃排序，
// 每条只带对方的公开信息
func (h *Handler) GetConversations(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}

	conversations, err := h.Dispatcher.ConversationsFor(c.Request.Context(), user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}

	formatted := make([]map[string]interface{}, 0, len(conversations))
	for _, conv := range conversations {
		var other *models.User
		if conv.ParticipantA == user.ID {
			other = &conv.ParticipantBUser
		} else {
			other = &conv.ParticipantAUser
		}
		formatted = append(formatted, map[string]interface{}{
			"conversation_id": conv.ConversationID,
			"last_message_at": conv.LastMessageAt,
			"participant": map[string]interface{}{
				"id":         other.ID,
				"name":       other.Name,
				"avatar_url": other.AvatarURL,
				"role":       other.Role,
			},
		})
	}
	utils.RespondSuccess(c, formatted, nil)
}
