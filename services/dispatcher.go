package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"clinic-chat/config"
	"clinic-chat/models"
)

// OutboundEvent 推送给接收方连接的事件
type OutboundEvent struct {
	Type    string          `json:"type"` // 目前只有 "message"
	Message *models.Message `json:"message"`
}

// Dispatcher 先落库再尽力推送。持久化和推送是顺序关系，不在一个事务里：
// 两步之间崩溃会留下已存储但未推送的消息，接收方下次拉历史时能看到。
type Dispatcher struct {
	db       *gorm.DB
	presence *PresenceRegistry
}

func NewDispatcher(db *gorm.DB, presence *PresenceRegistry) *Dispatcher {
	return &Dispatcher{db: db, presence: presence}
}

// NewMessageID 生成消息ID，ULID 按生成时间可排序
func NewMessageID() string {
	return ulid.Make().String()
}

// Send 发送一条私聊消息：校验 -> 取或建会话 -> 落库 -> 在线则推送。
// 无论接收方是否在线都同步返回已持久化的消息，发送方界面直接渲染。
func (d *Dispatcher) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyBody
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	// 校验必须发生在任何持久化之前
	exists, err := d.recipientExists(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecipientNotFound
	}

	conversation, err := d.GetOrCreateConversation(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		MessageID:      NewMessageID(),
		ConversationID: conversation.ConversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := d.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	// 更新会话列表排序
	if err := d.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("conversation_id = ?", conversation.ConversationID).
		Update("last_message_at", message.CreatedAt).Error; err != nil {
		log.Println("Failed to update last_message_at:", err)
	}

	d.push(receiverID, &message)
	return &message, nil
}

// GetOrCreateConversation 按无序参与者对取或建会话，两个方向命中同一条记录。
// pair_key 上的唯一索引兜住并发下的重复创建：插入撞索引的一方重查即可。
func (d *Dispatcher) GetOrCreateConversation(ctx context.Context, userID1, userID2 string) (*models.Conversation, error) {
	pairKey := models.PairKey(userID1, userID2)

	var conversation models.Conversation
	err := d.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation = models.Conversation{
		ConversationID: uuid.New().String(),
		PairKey:        pairKey,
		ParticipantA:   userID1,
		ParticipantB:   userID2,
		LastMessageAt:  time.Now(),
	}
	if createErr := d.db.WithContext(ctx).Create(&conversation).Error; createErr != nil {
		var existing models.Conversation
		if err := d.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&existing).Error; err == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conversation, nil
}

// History 返回会话的全部消息，按插入顺序。请求者必须是会话参与者。
func (d *Dispatcher) History(ctx context.Context, conversationID, requesterID string) ([]models.Message, error) {
	var conversation models.Conversation
	if err := d.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if !conversation.HasParticipant(requesterID) {
		return nil, ErrNotParticipant
	}

	var messages []models.Message
	if err := d.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("message_id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// ConversationsFor 返回用户参与的所有会话，按最近活跃排序
func (d *Dispatcher) ConversationsFor(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := d.db.WithContext(ctx).
		Preload("ParticipantAUser").
		Preload("ParticipantBUser").
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// recipientExists 校验接收方存在，Redis 可用时作为存在性缓存
func (d *Dispatcher) recipientExists(ctx context.Context, userID string) (bool, error) {
	cacheKey := "chat:user:" + userID
	if config.Redis != nil {
		if v, err := config.Redis.Get(ctx, cacheKey).Result(); err == nil {
			return v == "1", nil
		}
	}

	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}

	if config.Redis != nil && count > 0 {
		if err := config.Redis.Set(ctx, cacheKey, "1", 10*time.Minute).Err(); err != nil {
			log.Println("Failed to cache user existence:", err)
		}
	}
	return count > 0, nil
}

// push 把已持久化的消息塞进接收方每个连接的出站队列。
// 队列满就丢，不重试不排队，离线方靠下次拉历史补齐。
func (d *Dispatcher) push(receiverID string, message *models.Message) {
	clients := d.presence.ClientsFor(receiverID)
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(OutboundEvent{Type: "message", Message: message})
	if err != nil {
		log.Println("Failed to marshal outbound event:", err)
		return
	}

	for _, client := range clients {
		if !client.TrySend(payload) {
			log.Printf("dropping push: user=%s conn=%s", client.UserID, client.ConnID)
		}
	}
}
