package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/hub"
)

// eventConnected 是传输层握手事件：升级完成后把服务端分配的连接 ID
// 告知客户端（socket.io 原生提供 socket.id，裸 WebSocket 需要自报）。
// 它不属于会话层的事件集合。
const eventConnected = "connected"

// Handler 负责处理 WebSocket 升级请求和客户端注册。
type Handler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	idGen    domain.IDGenerator
}

// NewHandler 创建 Handler 实例。allowedOrigin 为空时放行所有来源。
func NewHandler(h *hub.Hub, idGen domain.IDGenerator, allowedOrigin string) *Handler {
	if h == nil {
		panic("Hub cannot be nil for websocket Handler")
	}
	if idGen == nil {
		panic("IDGenerator cannot be nil for websocket Handler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	return &Handler{
		upgrader: upgrader,
		hub:      h,
		idGen:    idGen,
	}
}

// HandleConnection 处理 GET /ws 的升级请求：分配连接 ID、注册到 Hub、
// 启动读写泵。升级之后客户端处于"未加入"状态，直到它发送 join-room。
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时已自动回写 HTTP 错误，这里只记日志
		logrus.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	connID := h.idGen.NextID()
	logCtx := logrus.WithField("conn_id", connID)
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, connID)
	if !h.hub.QueueRegister(client) {
		logCtx.Error("WS Handler: Hub message channel full, closing connection")
		client.CloseConn()
		return
	}

	// 握手帧在泵启动前入队，WritePump 启动后最先发出
	if frame, err := json.Marshal(domain.Envelope{
		Event: eventConnected,
		Data:  json.RawMessage(`"` + connID + `"`),
	}); err == nil {
		client.Enqueue(frame)
	}

	client.Run()
	logCtx.Debug("WS Handler: Client read/write pumps started")
}
