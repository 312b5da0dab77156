package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clinic-chat/config"
	"clinic-chat/controllers"
	"clinic-chat/models"
	"clinic-chat/routes"
	"clinic-chat/services"
)

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.App.JWTSecret = "test-secret"

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.ChatSession{}))

	// 中间件走全局 DB
	config.DB = db

	presence := services.NewPresenceRegistry()
	h := controllers.NewHandler(db, presence)
	return routes.RegisterRoutes(h), db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) (*models.User, string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		Password: string(hashed),
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := services.GenerateToken(user)
	require.NoError(t, err)
	return &user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSendAndFetchMessagesOverHTTP(t *testing.T) {
	r, db := setupRouter(t)

	patient, patientToken := createUser(t, db, "alice", models.RoleUser)
	doctor, doctorToken := createUser(t, db, "dr-bob", models.RoleDoctor)
	_ = patient

	w, env := doJSON(t, r, http.MethodPost, "/api/messages/send/"+doctor.ID, patientToken,
		gin.H{"content": "I have a headache"})
	require.Equal(t, http.StatusOK, w.Code)

	var sent models.Message
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	require.NotEmpty(t, sent.MessageID)
	require.Equal(t, "I have a headache", sent.Content)

	// 医生按会话ID取历史
	w, env = doJSON(t, r, http.MethodGet, "/api/messages/"+sent.ConversationID, doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	require.Equal(t, sent.MessageID, history[0].MessageID)
}

func TestHistoryForbiddenForOutsider(t *testing.T) {
	r, db := setupRouter(t)

	_, patientToken := createUser(t, db, "alice", models.RoleUser)
	doctor, _ := createUser(t, db, "dr-bob", models.RoleDoctor)
	_, outsiderToken := createUser(t, db, "eve", models.RoleUser)

	_, env := doJSON(t, r, http.MethodPost, "/api/messages/send/"+doctor.ID, patientToken,
		gin.H{"content": "confidential"})
	var sent models.Message
	require.NoError(t, json.Unmarshal(env.Data, &sent))

	w, env := doJSON(t, r, http.MethodGet, "/api/messages/"+sent.ConversationID, outsiderToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, env.Data)
}

func TestSendRejectsEmptyBodyAndUnknownRecipient(t *testing.T) {
	r, db := setupRouter(t)

	_, patientToken := createUser(t, db, "alice", models.RoleUser)
	doctor, _ := createUser(t, db, "dr-bob", models.RoleDoctor)

	w, _ := doJSON(t, r, http.MethodPost, "/api/messages/send/"+doctor.ID, patientToken,
		gin.H{"content": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/messages/send/no-such-user", patientToken,
		gin.H{"content": "hello"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatbotHistorySaveAndFetch(t *testing.T) {
	r, db := setupRouter(t)

	student, studentToken := createUser(t, db, "student-a", models.RoleStudent)

	msgs := []gin.H{
		{"sender": "student", "content": "what should I eat?", "timestamp": "2025-03-01T09:00:00Z"},
		{"sender": "bot", "content": "more vegetables", "timestamp": "2025-03-01T09:01:00Z"},
	}
	w, _ := doJSON(t, r, http.MethodPost, "/api/chatbot/history", studentToken,
		gin.H{"student_id": student.ID, "student_name": student.Name, "messages": msgs})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/chatbot/history/"+student.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		StudentID          string                  `json:"student_id"`
		Messages           []models.SessionMessage `json:"messages"`
		LastMessageSender  string                  `json:"last_message_sender"`
		LastMessageContent string                  `json:"last_message_content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, student.ID, got.StudentID)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "bot", got.LastMessageSender)
	require.Equal(t, "more vegetables", got.LastMessageContent)

	// 未保存过的学生返回 404
	w, _ = doJSON(t, r, http.MethodGet, "/api/chatbot/history/nobody", studentToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterLoginAndContacts(t *testing.T) {
	r, db := setupRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/register", "",
		gin.H{"name": "alice", "email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	var reg struct {
		Token string                       `json:"token"`
		User  controllers.UserInfoResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	require.NotEmpty(t, reg.Token)
	require.Equal(t, models.RoleUser, reg.User.Role)

	createUser(t, db, "dr-bob", models.RoleDoctor)

	w, env = doJSON(t, r, http.MethodGet, "/api/chat/doctors", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doctors []controllers.UserInfoResponse
	require.NoError(t, json.Unmarshal(env.Data, &doctors))
	require.Len(t, doctors, 1)
	require.Equal(t, "dr-bob", doctors[0].Name)

	w, env = doJSON(t, r, http.MethodPost, "/api/login", "",
		gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
}
