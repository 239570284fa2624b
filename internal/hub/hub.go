package hub

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Dispatcher 处理已经被串行化的入站事件。由 session.Router 实现。
type Dispatcher interface {
	// Dispatch 解码并处理一条原始入站消息。
	Dispatch(connID string, raw []byte)
	// Disconnect 处理连接断开。重复断开必须是安全的 no-op。
	Disconnect(connID string) error
}

// hubMessage 是 Hub 内部通道传递的消息。
type hubMessage struct {
	kind   string // "register" / "unregister" / "inbound"
	client *Client
	raw    []byte // 仅 inbound 使用
}

// Hub 持有所有活跃客户端，并通过单一事件循环串行处理全部入站事件。
// 所有房间/成员/绘图状态的修改都发生在这一条顺序路径上，因此同一
// 房间的事件严格按到达顺序被处理与广播（每房间 FIFO）。跨房间的
// 顺序未定义，房间是相互独立的聚合。
type Hub struct {
	messageChan chan hubMessage
	table       *ClientTable
	dispatcher  Dispatcher
	log         *logrus.Entry
	stopOnce    sync.Once
}

// NewHub 创建 Hub 实例。
func NewHub(table *ClientTable, dispatcher Dispatcher) *Hub {
	if table == nil {
		panic("ClientTable cannot be nil for Hub")
	}
	if dispatcher == nil {
		panic("Dispatcher cannot be nil for Hub")
	}
	return &Hub{
		// 带缓冲通道，大小可根据预期负载调整
		messageChan: make(chan hubMessage, 512),
		table:       table,
		dispatcher:  dispatcher,
		log:         logrus.WithField("component", "hub"),
	}
}

// Run 启动 Hub 的主事件处理循环，应在单独的 goroutine 中运行。
// 入站事件在循环内同步处理：不为单个事件另起 goroutine，否则会
// 破坏每房间 FIFO 的顺序保证。处理函数不做外部 IO，出站发送是
// 非阻塞的，所以循环不会被慢客户端拖住。
func (h *Hub) Run() {
	h.log.Info("Hub is running...")
	for msg := range h.messageChan {
		switch msg.kind {
		case "register":
			h.registerClient(msg.client)
		case "unregister":
			h.unregisterClient(msg.client)
		case "inbound":
			h.dispatcher.Dispatch(msg.client.ConnID(), msg.raw)
		default:
			h.log.Warnf("Received unknown hub message kind: %s", msg.kind)
		}
	}
	h.log.Info("Hub is shutting down...")
}

// Stop 关闭 Hub 的事件通道，使 Run 退出。重复调用是安全的。
// 只能在所有生产者停止后调用：不仅要求 HTTP 服务器已关闭、不再有
// 新连接，还要求所有客户端的 ReadPump 都已退出。每个 ReadPump 在
// 退出时会向事件通道阻塞投递一条注销消息，通道关闭后这个投递会
// panic。进程的正常关闭路径不调用 Stop（见 bootstrap.App.Shutdown），
// 它只服务于能控制全部生产者生命周期的测试。
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.messageChan)
	})
}

// QueueRegister 将客户端注册请求放入处理队列（非阻塞）。
// 返回 false 表示队列已满，调用方应关闭连接。
func (h *Hub) QueueRegister(client *Client) bool {
	select {
	case h.messageChan <- hubMessage{kind: "register", client: client}:
		return true
	default:
		h.log.WithField("conn_id", client.ConnID()).Warn("Hub message channel full, rejecting registration")
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		h.log.Error("Attempted to register a nil client")
		return
	}
	h.table.add(client)
	h.log.WithFields(logrus.Fields{
		"conn_id": client.ConnID(),
		"clients": h.table.Count(),
	}).Info("Client registered to Hub")
}

// unregisterClient 从连接表移除客户端并触发会话层的断开处理。
// 会话层的 Disconnect 对重复断开是幂等的，这里忽略其返回值。
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		h.log.Error("Attempted to unregister a nil client")
		return
	}
	if !h.table.remove(client) {
		// 传输层投递了重复断开，连接表早已清理
		h.log.WithField("conn_id", client.ConnID()).Debug("Client already unregistered")
		return
	}
	_ = h.dispatcher.Disconnect(client.ConnID())
	close(client.send)
	h.log.WithFields(logrus.Fields{
		"conn_id": client.ConnID(),
		"clients": h.table.Count(),
	}).Info("Client unregistered from Hub")
}
