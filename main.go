package main

import (
	"log"

	"clinic-chat/config"
	"clinic-chat/controllers"
	"clinic-chat/models"
	"clinic-chat/routes"
	"clinic-chat/services"
)

func main() {
	config.Load()
	// 初始化数据库
	config.InitDB()
	// 自动迁移
	models.Migrate()
	// Redis 可选，连不上则不启用缓存
	config.InitRedis()

	// 在线注册表随服务创建，进程退出即清空
	presence := services.NewPresenceRegistry()
	defer presence.Shutdown()

	h := controllers.NewHandler(config.DB, presence)
	r := routes.RegisterRoutes(h)

	// 启动服务
	if err := r.Run(":" + config.App.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
