package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-chat/models"
	"clinic-chat/services"
	"clinic-chat/utils"
)

// SaveChatHistory 保存学生与助手的完整会话，整体覆盖旧记录
func (h *Handler) SaveChatHistory(c *gin.Context) {
	var input struct {
		StudentID   string                  `json:"student_id"`
		StudentName string                  `json:"student_name"`
		Messages    []models.SessionMessage `json:"messages"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.StudentID == "" || input.StudentName == "" {
		utils.RespondError(c, http.StatusBadRequest, "Missing required fields: student_id or student_name")
		return
	}

	session, err := h.Sessions.Save(c.Request.Context(), input.StudentID, input.StudentName, input.Messages)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Error saving chat history")
		return
	}
	utils.RespondSuccess(c, session, nil)
}

// GetChatHistory 取学生的助手会话记录
func (h *Handler) GetChatHistory(c *gin.Context) {
	studentID := c.Param("student_id")

	session, messages, err := h.Sessions.Get(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.RespondError(c, http.StatusNotFound, "No chat history found")
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}

	utils.RespondSuccess(c, gin.H{
		"student_id":           session.StudentID,
		"student_name":         session.StudentName,
		"messages":             messages,
		"last_message_time":    session.LastMessageTime,
		"last_message_sender":  session.LastMessageSender,
		"last_message_content": session.LastMessageContent,
	}, nil)
}
