package controllers

import (
	"gorm.io/gorm"

	"clinic-chat/services"
)

// Handler 聚合所有 HTTP 依赖，服务启动时构造一次
type Handler struct {
	DB         *gorm.DB
	Presence   *services.PresenceRegistry
	Dispatcher *services.Dispatcher
	Sessions   *services.ChatSessionService
	Gateway    *services.WSGateway
}

func NewHandler(db *gorm.DB, presence *services.PresenceRegistry) *Handler {
	dispatcher := services.NewDispatcher(db, presence)
	return &Handler{
		DB:         db,
		Presence:   presence,
		Dispatcher: dispatcher,
		Sessions:   services.NewChatSessionService(db),
		Gateway:    services.NewWSGateway(presence, dispatcher),
	}
}
