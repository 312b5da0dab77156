package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Redis 为可选缓存，连不上时保持 nil，使用方需要判空
var Redis *redis.Client

// InitDB 初始化数据库连接
func InitDB() {
	db, err := gorm.Open(mysql.Open(App.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = db
}

// InitRedis 初始化 Redis，失败只降级不退出
func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:     App.RedisAddr,
		Password: App.RedisPassword,
		DB:       App.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis: %v", err)
		log.Println("Continuing without Redis caching")
		return
	}
	Redis = client
}
