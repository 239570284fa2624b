package session

import "errors"

// 会话层的错误分类刻意保持最小化：这三类错误都以静默 no-op 处理，
// 不向客户端回传。返回值仅用于日志记录和测试断言。
var (
	ErrRoomNotFound   = errors.New("session: room not found")
	ErrNotRegistered  = errors.New("session: connection not registered")
	ErrEmptyUndoStack = errors.New("session: undo stack is empty")
)
