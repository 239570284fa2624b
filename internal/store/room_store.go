package store

import (
	"sync"

	"collaborative-whiteboard/internal/domain"
)

// RoomStore 独占持有所有 Room，按房间 ID 索引。
// 映射表的读写经过内部互斥锁串行化；房间不存在对调用方而言
// 不是错误，而是防御性的 no-op（房间可能在两次查找之间被删除）。
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

// NewRoomStore 创建空的 RoomStore。
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*domain.Room)}
}

// GetOrCreate 返回已存在的房间，不存在则创建空房间并注册。
// 对已存在房间幂等，无错误条件。
func (s *RoomStore) GetOrCreate(roomID string) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[roomID]; ok {
		return room
	}
	room := domain.NewRoom(roomID)
	s.rooms[roomID] = room
	return room
}

// Get 返回房间和是否存在的标记。
func (s *RoomStore) Get(roomID string) (*domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// DeleteIfEmpty 仅在房间成员数为零时删除房间，返回是否删除。
// 每次移除成员后都必须调用，保证空房间立即回收。
func (s *RoomStore) DeleteIfEmpty(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.MemberCount() > 0 {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Count 返回当前房间数。
func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Snapshot 返回房间 ID 到成员数的快照，供统计接口使用。
func (s *RoomStore) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]int, len(s.rooms))
	for id, room := range s.rooms {
		snapshot[id] = room.MemberCount()
	}
	return snapshot
}
