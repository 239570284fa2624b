package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Point 是画布上的一个二维坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointList 兼容客户端发送单个点对象或点数组两种格式，
// 反序列化时统一归一化为切片。
type PointList []Point

func (p *PointList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Point
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*p = PointList{single}
		return nil
	}
	var many []Point
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*p = PointList(many)
	return nil
}

// Drawing 表示一次笔画/图形操作，按追加顺序可重放。
// ID 与 Timestamp 由服务端分配，客户端以服务端值为准。
type Drawing struct {
	ID        string    `json:"id"`
	Points    PointList `json:"points"`
	Color     string    `json:"color"`
	BrushSize int       `json:"brushSize"`
	Tool      string    `json:"tool"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
