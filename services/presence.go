package services

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client 代表一个 WebSocket 客户端连接
type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte // 出站队列，由写协程独占 socket
	UserID   string
	ConnID   string
	LastPong time.Time

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// TrySend 非阻塞入队，队列已满或已关闭时返回 false
func (c *Client) TrySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// CloseSend 关闭出站队列，保证只关一次
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.Send)
	})
}

// PresenceRegistry 记录当前在线的用户连接。
// 同一用户允许多个连接（多标签页/多设备），至少存在一个连接即视为在线。
// 进程内存态，重启即清空，所有客户端需重连重新注册。
type PresenceRegistry struct {
	mu      sync.Mutex
	clients map[string][]*Client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		clients: make(map[string][]*Client),
	}
}

// Register 登记一个连接
func (r *PresenceRegistry) Register(client *Client) {
	r.mu.Lock()
	r.clients[client.UserID] = append(r.clients[client.UserID], client)
	r.mu.Unlock()
	log.Printf("client registered: user=%s conn=%s", client.UserID, client.ConnID)
}

// Unregister 移除指定连接，该用户最后一个连接断开后视为离线
func (r *PresenceRegistry) Unregister(client *Client) {
	r.mu.Lock()
	clients, ok := r.clients[client.UserID]
	if ok {
		for i, c := range clients {
			if c == client {
				r.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(r.clients[client.UserID]) == 0 {
			delete(r.clients, client.UserID)
		}
	}
	r.mu.Unlock()

	if ok {
		client.CloseSend()
		log.Printf("client unregistered: user=%s conn=%s", client.UserID, client.ConnID)
	}
}

// IsOnline 纯查询，无副作用
func (r *PresenceRegistry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients[userID]) > 0
}

// ListOnline 返回所有在线用户ID
func (r *PresenceRegistry) ListOnline() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	online := make([]string, 0, len(r.clients))
	for userID := range r.clients {
		online = append(online, userID)
	}
	return online
}

// ClientsFor 返回某用户当前所有连接的副本
func (r *PresenceRegistry) ClientsFor(userID string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Client(nil), r.clients[userID]...)
}

// Shutdown 服务停止时关闭所有连接
func (r *PresenceRegistry) Shutdown() {
	r.mu.Lock()
	all := make([]*Client, 0)
	for _, clients := range r.clients {
		all = append(all, clients...)
	}
	r.clients = make(map[string][]*Client)
	r.mu.Unlock()

	for _, client := range all {
		client.CloseSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}
