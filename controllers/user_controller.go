package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clinic-chat/middlewares"
	"clinic-chat/models"
	"clinic-chat/services"
	"clinic-chat/utils"
)

type UserInfoResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

// 用户注册
func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if len(input.Password) < 8 {
		utils.RespondError(c, http.StatusBadRequest, "Please enter a strong password")
		return
	}

	// 检查邮箱是否已注册
	var existing models.User
	if err := h.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	role := input.Role
	switch role {
	case models.RoleStudent, models.RoleDoctor:
	default:
		role = models.RoleUser
	}

	user := models.User{
		ID:       uuid.New().String(),
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := services.GenerateToken(user)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.RespondSuccess(c, gin.H{"token": token, "user": toUserInfo(&user)}, nil)
}

// 用户登录
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := services.GenerateToken(user)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.RespondSuccess(c, gin.H{"token": token, "user": toUserInfo(&user)}, nil)
}

func (h *Handler) GetUserInfo(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondSuccess(c, toUserInfo(user), nil)
}

// GetChatUsers 聊天侧边栏：除自己之外的患者/学生
func (h *Handler) GetChatUsers(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}

	var users []models.User
	if err := h.DB.
		Where("id <> ? AND role IN ?", user.ID, []string{models.RoleUser, models.RoleStudent}).
		Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	utils.RespondSuccess(c, toUserInfos(users), nil)
}

// GetChatDoctors 聊天侧边栏：除自己之外的医生
func (h *Handler) GetChatDoctors(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return
	}

	var doctors []models.User
	if err := h.DB.
		Where("id <> ? AND role = ?", user.ID, models.RoleDoctor).
		Find(&doctors).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch doctors")
		return
	}
	utils.RespondSuccess(c, toUserInfos(doctors), nil)
}

func toUserInfo(u *models.User) UserInfoResponse {
	return UserInfoResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

func toUserInfos(users []models.User) []UserInfoResponse {
	out := make([]UserInfoResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserInfo(&users[i]))
	}
	return out
}
