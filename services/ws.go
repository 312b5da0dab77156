package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval  = 10 * time.Second // 发送 ping 的间隔
	pongTimeout   = 15 * time.Second // 超过 15 秒未收到 pong 断开连接
	sendQueueSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// InboundFrame 客户端经 WebSocket 发来的帧
type InboundFrame struct {
	Type    string `json:"type"` // "private"
	To      string `json:"to"`
	Content string `json:"content"`
}

// ErrorEvent 推回给发送方连接的错误提示
type ErrorEvent struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

// WSGateway 实时连接的传输层：升级连接、登记在线状态、
// 读协程把入站帧交给 Dispatcher，写协程独占 socket 排空出站队列
type WSGateway struct {
	presence   *PresenceRegistry
	dispatcher *Dispatcher
}

func NewWSGateway(presence *PresenceRegistry, dispatcher *Dispatcher) *WSGateway {
	return &WSGateway{presence: presence, dispatcher: dispatcher}
}

// HandleWebSocket 处理 /ws 升级请求，token 放在查询参数里
func (g *WSGateway) HandleWebSocket(ctx *gin.Context) {
	claims, err := ParseToken(ctx.Query("token"))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &Client{
		Conn:     conn,
		Send:     make(chan []byte, sendQueueSize),
		UserID:   claims.UserID,
		ConnID:   uuid.New().String(),
		LastPong: time.Now(),
	}

	g.presence.Register(client)

	go g.readPump(client)
	go g.writePump(client)
	go g.heartbeat(client)
}

// readPump 读取入站帧。返回即代表连接结束，注销在线状态。
func (g *WSGateway) readPump(client *Client) {
	defer func() {
		g.presence.Unregister(client)
		client.Conn.Close()
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		if string(raw) == "pong" {
			client.mu.Lock()
			client.LastPong = time.Now()
			client.mu.Unlock()
			continue
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Println("Invalid frame:", string(raw))
			continue
		}

		if frame.Type != "private" {
			continue
		}

		if _, err := g.dispatcher.Send(context.Background(), client.UserID, frame.To, frame.Content); err != nil {
			log.Printf("ws send failed: user=%s err=%v", client.UserID, err)
			if payload, merr := json.Marshal(ErrorEvent{Type: "error", Error: err.Error()}); merr == nil {
				client.TrySend(payload)
			}
		}
	}
}

// writePump 排空出站队列。队列被关闭后退出并关掉 socket。
func (g *WSGateway) writePump(client *Client) {
	defer client.Conn.Close()

	for payload := range client.Send {
		client.mu.Lock()
		err := client.Conn.WriteMessage(websocket.TextMessage, payload)
		client.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// heartbeat 周期性发 ping，pong 超时就断开，读协程随之注销连接
func (g *WSGateway) heartbeat(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			return
		}
		err := client.Conn.WriteMessage(websocket.TextMessage, []byte("ping"))
		lastPong := client.LastPong
		client.mu.Unlock()

		if err != nil || time.Since(lastPong) > pongTimeout {
			log.Printf("client timeout, closing connection: user=%s conn=%s", client.UserID, client.ConnID)
			client.Conn.Close()
			return
		}
	}
}
