package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collaborative-whiteboard/internal/store"
)

// StatsHandler 暴露只读的运行时统计：活跃房间、连接数和各房间成员数。
// 只做快照读取，不触碰事件处理路径。
type StatsHandler struct {
	rooms    *store.RoomStore
	registry *store.UserRegistry
}

// NewStatsHandler 创建 StatsHandler 实例。
func NewStatsHandler(rooms *store.RoomStore, registry *store.UserRegistry) *StatsHandler {
	if rooms == nil || registry == nil {
		panic("stores cannot be nil for StatsHandler")
	}
	return &StatsHandler{rooms: rooms, registry: registry}
}

// GetStats 处理 GET /api/stats。
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms":       h.rooms.Count(),
		"connections": h.registry.Count(),
		"members":     h.rooms.Snapshot(),
	})
}
