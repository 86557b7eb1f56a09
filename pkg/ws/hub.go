package ws

import (
	"encoding/json"
	"sync"
	"time"

	"CareLink/pkg/zlog"

	"github.com/gorilla/websocket"
)

// 分组键约定：dept_<科室>、chat_<会话id>，以及下面两个固定分组。
// 广播按调用时刻的成员集合进行，进组/退组都是显式操作。
const (
	AgentsGroup = "agents"
	AdminsGroup = "admins"
)

func DeptGroup(department string) string {
	return "dept_" + department
}

func ChatGroup(chatID string) string {
	return "chat_" + chatID
}

// Event 统一的推送信封
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	joined map[*Client]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		joined: make(map[*Client]map[string]struct{}),
	}
}

func (h *Hub) Join(group string, c *Client) {
	if c == nil || group == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.groups[group]
	if set == nil {
		set = make(map[*Client]struct{})
		h.groups[group] = set
	}
	set[c] = struct{}{}

	gs := h.joined[c]
	if gs == nil {
		gs = make(map[string]struct{})
		h.joined[c] = gs
	}
	gs[group] = struct{}{}
}

func (h *Hub) Leave(group string, c *Client) {
	if c == nil || group == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, c)
}

func (h *Hub) leaveLocked(group string, c *Client) {
	if set := h.groups[group]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.groups, group)
		}
	}
	if gs := h.joined[c]; gs != nil {
		delete(gs, group)
		if len(gs) == 0 {
			delete(h.joined, c)
		}
	}
}

// RemoveClient 把连接移出所有分组并关闭，连接断开时调用
func (h *Hub) RemoveClient(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	for group := range h.joined[c] {
		h.leaveLocked(group, c)
	}
	h.mu.Unlock()
	c.Close()
}

// Count 返回分组当前连接数
func (h *Hub) Count(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) Broadcast(group string, payload []byte) bool {
	if group == "" || len(payload) == 0 {
		return false
	}

	h.mu.RLock()
	set := h.groups[group]
	members := make([]*Client, 0, len(set))
	for c := range set {
		members = append(members, c)
	}
	h.mu.RUnlock()

	ok := false
	for _, c := range members {
		select {
		case <-c.done:
			// 快照之后被移除的连接,跳过
		case c.send <- payload:
			ok = true
		default:
			// 发送缓冲满说明对端已经停滞，移除连接
			h.RemoveClient(c)
		}
	}
	return ok
}

// BroadcastEvent 向分组推送一个事件信封
func (h *Hub) BroadcastEvent(group string, event string, data interface{}) error {
	b, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return err
	}
	h.Broadcast(group, b)
	return nil
}

// Client 的 send 通道永不 close，关闭统一通过 done 广播，
// 避免广播方快照到已移除的连接后向已关闭通道发送。
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Closed 连接是否已经关闭
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// SendEvent 向单个连接推送事件
func (c *Client) SendEvent(event string, data interface{}) error {
	b, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	case c.send <- b:
		return nil
	default:
		return nil // 缓冲满时丢弃，由下一次广播自纠
	}
}

func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zlog.Error(err.Error())
				return
			}
		}
	}
}
