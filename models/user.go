package models

import "time"

const (
	RoleUser    = "user"
	RoleStudent = "student"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User 用户模型，聊天模块只读不写
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role" gorm:"type:varchar(10);index;default:'user'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
