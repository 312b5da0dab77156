package models

import (
	"fmt"
	"sort"
	"time"
)

// Conversation 私聊会话，参与者创建后不可变
type Conversation struct {
	ConversationID string    `gorm:"primaryKey;type:varchar(36)" json:"conversation_id"`
	PairKey        string    `gorm:"type:varchar(80);uniqueIndex" json:"-"` // 排序后的参与者对，唯一索引防止重复建会话
	ParticipantA   string    `gorm:"type:varchar(36);index" json:"participant_a"`
	ParticipantB   string    `gorm:"type:varchar(36);index" json:"participant_b"`
	LastMessageAt  time.Time `json:"last_message_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	// 关联用户A和用户B
	ParticipantAUser User `gorm:"foreignKey:ParticipantA;references:ID" json:"-"`
	ParticipantBUser User `gorm:"foreignKey:ParticipantB;references:ID" json:"-"`
}

// PairKey 生成会话的参与者对键，两个方向得到同一个键
func PairKey(userID1, userID2 string) string {
	userIDs := []string{userID1, userID2}
	sort.Strings(userIDs)
	return fmt.Sprintf("%s_%s", userIDs[0], userIDs[1])
}

// HasParticipant 判断用户是否属于该会话
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}
