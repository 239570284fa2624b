package store

import "sync"

// Session 记录一个连接当前的会话信息：所在房间、展示名、颜色。
// 从加入到断开连接期间存在，一个连接同一时刻至多属于一个房间。
type Session struct {
	RoomID   string
	Username string
	Color    string
}

// UserRegistry 是以连接 ID 为键的独立索引，用于断开连接和聊天时的
// 快速反查。必须与房间成员表保持一致：每个表项的 RoomID 指向的房间
// 都应包含该连接（断开连接的清理过程中允许短暂不一致）。
type UserRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewUserRegistry 创建空的 UserRegistry。
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{sessions: make(map[string]Session)}
}

// Register 写入或覆盖连接的会话信息（重新加入时 upsert）。
func (r *UserRegistry) Register(connID, roomID, username, color string) {
	r.mu.Lock()
	r.sessions[connID] = Session{RoomID: roomID, Username: username, Color: color}
	r.mu.Unlock()
}

// Lookup 返回连接的会话信息和是否存在的标记。
func (r *UserRegistry) Lookup(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connID]
	return sess, ok
}

// Remove 删除连接的会话信息。连接不存在时为 no-op。
func (r *UserRegistry) Remove(connID string) {
	r.mu.Lock()
	delete(r.sessions, connID)
	r.mu.Unlock()
}

// Count 返回当前已注册的连接数。
func (r *UserRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot 返回全部会话的拷贝，供后台审计任务遍历。
func (r *UserRegistry) Snapshot() map[string]Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]Session, len(r.sessions))
	for id, sess := range r.sessions {
		snapshot[id] = sess
	}
	return snapshot
}
