package models

import "time"

// SessionMessage 助手会话里的一条消息
type SessionMessage struct {
	Sender    string    `json:"sender"` // "student" 或 "bot"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession 学生与自动助手的完整会话记录，每次保存整体覆盖
type ChatSession struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID   string `gorm:"type:varchar(36);uniqueIndex;not null" json:"student_id"`
	StudentName string `json:"student_name"`
	Messages    string `gorm:"type:text" json:"-"` // JSON 序列化的完整消息列表

	// 冗余的最后一条消息字段，列表页直接读
	LastMessageTime    *time.Time `json:"last_message_time"`
	LastMessageSender  string     `json:"last_message_sender"`
	LastMessageContent string     `json:"last_message_content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
