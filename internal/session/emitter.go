package session

// Emitter 是路由器向传输层发送出站事件的唯一通道。
// 实现方负责实际的网络写入；对路由器而言发送是 fire-and-forget，
// 不会阻塞，也没有取消/超时语义。payload 为 nil 表示无负载事件。
type Emitter interface {
	Emit(connID string, event string, payload any)
}
