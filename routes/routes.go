package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clinic-chat/controllers"
	"clinic-chat/middlewares"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(h *controllers.Handler) *gin.Engine {
	r := gin.Default()

	// 配置跨域中间件
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	r.Use(cors.New(corsConfig))

	r.GET("/ws", h.WSController)

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	protected := api.Group("/")
	protected.Use(middlewares.TokenAuthMiddleware())
	{
		protected.GET("/userinfo", h.GetUserInfo)
		protected.GET("/chat/users", h.GetChatUsers)
		protected.GET("/chat/doctors", h.GetChatDoctors)
		protected.GET("/conversations", h.GetConversations)
		protected.POST("/messages/send/:receiver_id", h.SendMessage)
		protected.GET("/messages/:conversation_id", h.GetMessagesByConversationID)
		protected.POST("/chatbot/history", h.SaveChatHistory)
		protected.GET("/chatbot/history/:student_id", h.GetChatHistory)
	}

	return r
}
