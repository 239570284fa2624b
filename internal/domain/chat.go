package domain

import "time"

// ChatMessage 表示房间内的一条聊天消息。
// Username 和 Color 是发送时刻从用户注册表取的快照，之后不再回查。
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Color     string    `json:"color"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
