package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"clinic-chat/models"
)

// ChatSessionService 学生与自动助手的会话存档。
// 保存是整体覆盖（last-write-wins），调用方每次提交完整的消息列表；
// 两个标签页并发保存时后写的一方静默覆盖前者，这是沿用的既有行为。
type ChatSessionService struct {
	db *gorm.DB
}

func NewChatSessionService(db *gorm.DB) *ChatSessionService {
	return &ChatSessionService{db: db}
}

// Save 替换该学生的全部会话消息，并从末尾元素重算最后消息字段；
// 空列表时最后消息字段清回默认值
func (s *ChatSessionService) Save(ctx context.Context, studentID, studentName string, messages []models.SessionMessage) (*models.ChatSession, error) {
	if messages == nil {
		messages = []models.SessionMessage{}
	}
	encoded, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	var session models.ChatSession
	err = s.db.WithContext(ctx).Where("student_id = ?", studentID).First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		session = models.ChatSession{StudentID: studentID}
	}

	session.StudentName = studentName
	session.Messages = string(encoded)

	if len(messages) > 0 {
		last := messages[len(messages)-1]
		ts := last.Timestamp
		session.LastMessageTime = &ts
		session.LastMessageSender = last.Sender
		session.LastMessageContent = last.Content
	} else {
		session.LastMessageTime = nil
		session.LastMessageSender = ""
		session.LastMessageContent = ""
	}

	if err := s.db.WithContext(ctx).Save(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Get 返回学生的会话存档和解码后的消息列表
func (s *ChatSessionService) Get(ctx context.Context, studentID string) (*models.ChatSession, []models.SessionMessage, error) {
	var session models.ChatSession
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	messages := []models.SessionMessage{}
	if session.Messages != "" {
		if err := json.Unmarshal([]byte(session.Messages), &messages); err != nil {
			return nil, nil, err
		}
	}
	return &session, messages, nil
}
