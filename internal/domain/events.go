package domain

import "encoding/json"

// 入站事件名（客户端到服务端的线上契约）。
const (
	EventJoinRoom    = "join-room"
	EventDraw        = "draw"
	EventClearCanvas = "clear-canvas"
	EventUndo        = "undo"
	EventCursorMove  = "cursor-move"
	EventSendMessage = "send-message"
)

// 出站事件名。
const (
	EventRoomData      = "room-data"
	EventUserJoined    = "user-joined"
	EventUsersUpdated  = "users-updated"
	EventDrawing       = "drawing"
	EventCanvasCleared = "canvas-cleared"
	// EventUndone 不携带任何负载：客户端各自丢弃本地最后一条绘图，
	// 依赖客户端与服务端日志顺序一致。已知在丢包/重连场景下可能漂移，
	// 按原设计保留，不引入额外的对账协议。
	EventUndone        = "undone"
	EventCursorUpdated = "cursor-updated"
	EventNewMessage    = "new-message"
	EventUserLeft      = "user-left"
)

// Envelope 是双向通用的消息信封：{"event": "...", "data": ...}。
// 无负载的事件（canvas-cleared、undone）省略 data 字段。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload 对应 join-room 事件。username 和 color 可省略。
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
	Color    string `json:"color,omitempty"`
}

// DrawPayload 对应 draw 事件。可选字段的默认值见 DrawDefaults。
type DrawPayload struct {
	RoomID    string    `json:"roomId"`
	Points    PointList `json:"points"`
	Color     string    `json:"color,omitempty"`
	BrushSize int       `json:"brushSize,omitempty"`
	Tool      string    `json:"tool,omitempty"`
}

// CursorMovePayload 对应 cursor-move 事件。
type CursorMovePayload struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ChatPayload 对应 send-message 事件。
type ChatPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// RoomData 是加入房间时单播给新成员的完整房间快照。
// Chat 只包含最近 50 条。
type RoomData struct {
	Drawings []Drawing     `json:"drawings"`
	Users    []Member      `json:"users"`
	Chat     []ChatMessage `json:"chat"`
}

// CursorUpdate 是 cursor-updated 事件的负载。
type CursorUpdate struct {
	UserID string `json:"userId"`
	Cursor Cursor `json:"cursor"`
}
