package domain

// DrawDefaults 集中定义 draw 事件可选字段的默认值，
// 替代散落在各处的内联回退逻辑。
type DrawDefaults struct {
	Color     string
	BrushSize int
	Tool      string
}

// MemberDefaults 定义加入房间时未提供展示名/颜色的默认值。
type MemberDefaults struct {
	Color          string
	UsernamePrefix string
}

var (
	// DefaultDraw 与原线上契约保持一致：黑色、5 号笔刷、pencil 工具。
	DefaultDraw = DrawDefaults{Color: "#000000", BrushSize: 5, Tool: "pencil"}

	// DefaultMember 未命名成员显示为 "User" + 连接 ID 前缀。
	DefaultMember = MemberDefaults{Color: "#007AFF", UsernamePrefix: "User"}
)

// UsernameFor 从连接 ID 派生默认展示名。
func (d MemberDefaults) UsernameFor(connID string) string {
	suffix := connID
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return d.UsernamePrefix + suffix
}
