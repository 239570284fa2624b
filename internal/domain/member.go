package domain

import "time"

// Cursor 表示成员在画布上的实时光标位置。
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Member 表示一个连接在某房间内的在场记录。
// ID 即连接 ID；JoinedAt 在加入时由服务端填充。
type Member struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
	Cursor   Cursor    `json:"cursor"`
}
