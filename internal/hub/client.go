package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocket 读写参数，hub 包内共用。
const (
	// 向对端写一条消息允许的最长时间
	writeWait = 10 * time.Second

	// 等待下一个 pong 的最长时间
	pongWait = 60 * time.Second

	// ping 发送周期，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 单条入站消息的大小上限。绘图事件可能携带大量坐标点，
	// 上限放宽到 64KB。
	maxMessageSize = 64 * 1024
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	connID string
	send   chan []byte
}

// NewClient 创建 Client 实例。connID 由传输层在升级时分配。
func NewClient(hub *Hub, conn *websocket.Conn, connID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		connID: connID,
		send:   make(chan []byte, 256),
	}
}

// ConnID 返回该客户端的连接 ID。
func (c *Client) ConnID() string { return c.connID }

// CloseConn 直接关闭底层连接（注册失败时使用）。
func (c *Client) CloseConn() { c.conn.Close() }

// Run 启动客户端的读写 goroutine。
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 将消息从 WebSocket 连接泵入 Hub 的事件通道。
// 在自己的 goroutine 中运行；连接断开时请求 Hub 注销该客户端。
func (c *Client) ReadPump() {
	defer func() {
		// 阻塞发送：注销必须送达，且每个连接只会走到这里一次
		c.hub.messageChan <- hubMessage{kind: "unregister", client: c}
		c.conn.Close()
		logrus.WithField("conn_id", c.connID).Info("ReadPump exited, unregister requested")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithField("conn_id", c.connID)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			logrus.WithField("conn_id", c.connID).Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		// 阻塞发送到 Hub：保证该连接的事件按到达顺序进入处理循环，
		// 队列满时反压只作用在这一个连接的读取上
		c.hub.messageChan <- hubMessage{kind: "inbound", client: c, raw: message}
	}
}

// WritePump 将消息从发送队列泵出到 WebSocket 连接，并周期性发送
// ping 保活。在自己的 goroutine 中运行。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("conn_id", c.connID).Info("WritePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭（注销时），向对端发关闭帧
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("conn_id", c.connID).WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("conn_id", c.connID).WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

// Enqueue 在读写泵启动前向发送队列塞入一帧（如连接握手通知）。
// 仅允许在 Run 之前调用。
func (c *Client) Enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}
