package hub

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/domain"
)

// ClientTable 维护连接 ID 到活跃客户端的映射，并作为会话层的
// Emitter 实现：路由器只知道连接 ID，网络写入由这里完成。
type ClientTable struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewClientTable 创建空的 ClientTable。
func NewClientTable() *ClientTable {
	return &ClientTable{clients: make(map[string]*Client)}
}

func (t *ClientTable) add(c *Client) {
	t.mu.Lock()
	t.clients[c.ConnID()] = c
	t.mu.Unlock()
}

func (t *ClientTable) remove(c *Client) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.clients[c.ConnID()]; !ok {
		return false
	}
	delete(t.clients, c.ConnID())
	return true
}

// Count 返回当前活跃连接数。
func (t *ClientTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// Emit 将一个出站事件编码为信封并放入目标客户端的发送队列。
// 发送是非阻塞的：队列已满（慢消费者）时丢弃该帧并记录警告，
// 绝不反压到事件处理循环。连接已消失时静默忽略。
func (t *ClientTable) Emit(connID string, event string, payload any) {
	t.mu.RLock()
	client, ok := t.clients[connID]
	t.mu.RUnlock()
	if !ok {
		return
	}

	env := domain.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logrus.WithFields(logrus.Fields{"conn_id": connID, "event": event}).
				WithError(err).Error("Failed to marshal outbound payload")
			return
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		logrus.WithFields(logrus.Fields{"conn_id": connID, "event": event}).
			WithError(err).Error("Failed to marshal outbound envelope")
		return
	}

	select {
	case client.send <- frame:
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": connID,
			"event":   event,
			"size":    len(frame),
		}).Warn("Client send channel full, dropping frame")
	}
}
