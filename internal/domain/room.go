package domain

import "sync"

// Room 是一个隔离的广播域，独占持有自己的绘图日志、聊天记录和成员表。
// 所有修改都经过内部读写锁：正常路径下事件由单一处理循环串行执行，
// 锁的存在是为了让统计接口和后台审计任务可以安全地并发读取。
type Room struct {
	ID string

	mu       sync.RWMutex
	drawings []Drawing
	chat     []ChatMessage
	members  map[string]*Member
}

// NewRoom 创建一个空房间（空绘图日志、空聊天记录、空成员表）。
func NewRoom(id string) *Room {
	return &Room{
		ID:       id,
		drawings: make([]Drawing, 0),
		chat:     make([]ChatMessage, 0),
		members:  make(map[string]*Member),
	}
}

// AddMember 将成员加入房间。同一连接重复加入时覆盖旧记录。
func (r *Room) AddMember(m *Member) {
	r.mu.Lock()
	r.members[m.ID] = m
	r.mu.Unlock()
}

// RemoveMember 将成员移出房间。返回该连接此前是否在房间内。
func (r *Room) RemoveMember(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[connID]; !ok {
		return false
	}
	delete(r.members, connID)
	return true
}

// HasMember 报告该连接是否是房间成员。
func (r *Room) HasMember(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[connID]
	return ok
}

// SetCursor 原地更新成员的光标位置。成员不存在时返回 false。
func (r *Room) SetCursor(connID string, c Cursor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[connID]
	if !ok {
		return false
	}
	m.Cursor = c
	return true
}

// MemberCount 返回当前成员数。
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// MemberIDs 返回成员连接 ID 的快照，迭代顺序不保证。
func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

// MemberList 返回成员记录的值拷贝快照，迭代顺序不保证。
func (r *Room) MemberList() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		list = append(list, *m)
	}
	return list
}

// AppendDrawing 将一条绘图追加到日志末尾。日志只增不改，
// 仅 undo（弹出末尾）和 clear（清空）两个操作例外。
func (r *Room) AppendDrawing(d Drawing) {
	r.mu.Lock()
	r.drawings = append(r.drawings, d)
	r.mu.Unlock()
}

// UndoLastDrawing 移除最近追加的一条绘图（整房单一撤销栈，非按用户）。
// 日志为空时返回 false，不做任何修改。
func (r *Room) UndoLastDrawing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.drawings) == 0 {
		return false
	}
	r.drawings = r.drawings[:len(r.drawings)-1]
	return true
}

// ClearDrawings 将绘图日志截断为空。不影响聊天和成员。
func (r *Room) ClearDrawings() {
	r.mu.Lock()
	r.drawings = r.drawings[:0]
	r.mu.Unlock()
}

// DrawingList 返回绘图日志的拷贝，保持追加顺序。
func (r *Room) DrawingList() []Drawing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Drawing, len(r.drawings))
	copy(list, r.drawings)
	return list
}

// DrawingCount 返回绘图日志长度。
func (r *Room) DrawingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drawings)
}

// AppendChat 将一条聊天消息追加到记录末尾。记录不设上限。
func (r *Room) AppendChat(msg ChatMessage) {
	r.mu.Lock()
	r.chat = append(r.chat, msg)
	r.mu.Unlock()
}

// ChatTail 返回最近 n 条聊天消息的拷贝。
func (r *Room) ChatTail(n int) []ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := len(r.chat) - n
	if start < 0 {
		start = 0
	}
	tail := make([]ChatMessage, len(r.chat)-start)
	copy(tail, r.chat[start:])
	return tail
}

// ChatCount 返回聊天记录长度。
func (r *Room) ChatCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chat)
}
