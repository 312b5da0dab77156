package models

import "time"

// Message 单条消息，写入后不可修改、不可删除
type Message struct {
	MessageID      string    `gorm:"primaryKey;type:varchar(26)" json:"message_id"` // ULID，按时间可排序
	ConversationID string    `gorm:"type:varchar(36);index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"type:varchar(36);index;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
