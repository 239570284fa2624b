package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/store"
)

// chatHistoryLimit 加入房间时随快照下发的聊天消息条数上限。
// 完整记录仍保留在内存中，只是不在 room-data 中全量下发。
const chatHistoryLimit = 50

// Router 是事件/状态机：校验入站事件的前置条件，修改房间会话状态，
// 并计算广播接收者集合。每个处理函数都是运行到完成的非阻塞状态迁移；
// 前置条件不满足（房间/用户不存在）时静默忽略，而不是抛出错误。
//
// 单个连接的状态流转：未加入 → 已加入(roomID) → 已断开（终态）。
// 已加入的连接再次 join 其他房间时，会先隐式离开此前的房间
// （不支持多房间成员资格）。
type Router struct {
	rooms    *store.RoomStore
	registry *store.UserRegistry
	emitter  Emitter
	idGen    domain.IDGenerator

	drawDefaults   domain.DrawDefaults
	memberDefaults domain.MemberDefaults

	log *logrus.Entry
}

// NewRouter 创建 Router 实例。
func NewRouter(rooms *store.RoomStore, registry *store.UserRegistry, emitter Emitter, idGen domain.IDGenerator) *Router {
	if rooms == nil || registry == nil {
		panic("stores cannot be nil for Router")
	}
	if emitter == nil {
		panic("Emitter cannot be nil for Router")
	}
	if idGen == nil {
		panic("IDGenerator cannot be nil for Router")
	}
	return &Router{
		rooms:          rooms,
		registry:       registry,
		emitter:        emitter,
		idGen:          idGen,
		drawDefaults:   domain.DefaultDraw,
		memberDefaults: domain.DefaultMember,
		log:            logrus.WithField("component", "router"),
	}
}

// Dispatch 将一条原始入站消息解码为封闭的事件集合并分发到对应的
// 处理函数。未知事件和畸形负载只记录日志后跳过：单个连接的坏消息
// 不能影响其他房间和连接，更不能终止进程。
func (r *Router) Dispatch(connID string, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.WithFields(logrus.Fields{"conn_id": connID, "size": len(raw)}).
			WithError(err).Warn("Dropping malformed inbound frame")
		return
	}
	logCtx := r.log.WithFields(logrus.Fields{"conn_id": connID, "event": env.Event})

	var err error
	switch env.Event {
	case domain.EventJoinRoom:
		var p domain.JoinPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = r.Join(connID, p)
		}
	case domain.EventDraw:
		var p domain.DrawPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = r.Draw(connID, p)
		}
	case domain.EventClearCanvas:
		// clear-canvas 和 undo 的负载是裸的房间 ID 字符串
		var roomID string
		if err = json.Unmarshal(env.Data, &roomID); err == nil {
			err = r.ClearCanvas(connID, roomID)
		}
	case domain.EventUndo:
		var roomID string
		if err = json.Unmarshal(env.Data, &roomID); err == nil {
			err = r.Undo(connID, roomID)
		}
	case domain.EventCursorMove:
		var p domain.CursorMovePayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = r.CursorMove(connID, p)
		}
	case domain.EventSendMessage:
		var p domain.ChatPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = r.SendMessage(connID, p)
		}
	default:
		logCtx.Warn("Unknown inbound event, ignoring")
		return
	}

	if err != nil {
		// 防御性 no-op：记录后继续，不向客户端回传错误
		logCtx.WithError(err).Debug("Event ignored")
	}
}

// Join 处理 join-room：先离开此前加入的房间，再把连接注册进目标房间。
// 副作用按固定顺序执行：
//
//	(a) 仅向加入者单播完整房间快照（绘图、成员、最近 50 条聊天）；
//	(b) 向房间内其他成员广播 user-joined 增量通知；
//	(c) 向包括加入者在内的全体成员广播权威成员列表，
//	    用于消除 (a) 与 (b) 之间可能的竞态。
func (r *Router) Join(connID string, p domain.JoinPayload) error {
	// 一个连接同一时刻只属于一个房间：加入前强制离开旧房间。
	// 重复加入当前房间时跳过离开：唯一成员的离开会把房间连同绘图
	// 和聊天记录一起回收，AddMember/Register 本身就是 upsert。
	if sess, ok := r.registry.Lookup(connID); ok && sess.RoomID != p.RoomID {
		r.departRoom(connID, sess.RoomID)
	}

	room := r.rooms.GetOrCreate(p.RoomID)

	member := &domain.Member{
		ID:       connID,
		Username: p.Username,
		Color:    p.Color,
		JoinedAt: time.Now().UTC(),
	}
	if member.Username == "" {
		member.Username = r.memberDefaults.UsernameFor(connID)
	}
	if member.Color == "" {
		member.Color = r.memberDefaults.Color
	}

	room.AddMember(member)
	r.registry.Register(connID, p.RoomID, member.Username, member.Color)

	r.emitter.Emit(connID, domain.EventRoomData, domain.RoomData{
		Drawings: room.DrawingList(),
		Users:    room.MemberList(),
		Chat:     room.ChatTail(chatHistoryLimit),
	})
	r.relay(room, connID, domain.EventUserJoined, *member)
	r.broadcast(room, domain.EventUsersUpdated, room.MemberList())

	r.log.WithFields(logrus.Fields{
		"conn_id":  connID,
		"room_id":  p.RoomID,
		"username": member.Username,
		"members":  room.MemberCount(),
	}).Info("Member joined room")
	return nil
}

// Draw 处理 draw：构造服务端权威的 Drawing（分配 ID 和时间戳，补齐
// 默认字段）并追加到房间日志，然后整房广播。发送者也包含在内，
// 因为它需要服务端分配的 id/timestamp，而不是本地回显。
func (r *Router) Draw(connID string, p domain.DrawPayload) error {
	room, ok := r.rooms.Get(p.RoomID)
	if !ok {
		return ErrRoomNotFound
	}

	drawing := domain.Drawing{
		ID:        r.idGen.NextID(),
		Points:    p.Points,
		Color:     p.Color,
		BrushSize: p.BrushSize,
		Tool:      p.Tool,
		UserID:    connID,
		Timestamp: time.Now().UTC(),
	}
	if drawing.Points == nil {
		drawing.Points = domain.PointList{}
	}
	if drawing.Color == "" {
		drawing.Color = r.drawDefaults.Color
	}
	if drawing.BrushSize == 0 {
		drawing.BrushSize = r.drawDefaults.BrushSize
	}
	if drawing.Tool == "" {
		drawing.Tool = r.drawDefaults.Tool
	}

	room.AppendDrawing(drawing)
	r.broadcast(room, domain.EventDrawing, drawing)
	return nil
}

// ClearCanvas 处理 clear-canvas：清空绘图日志并整房广播。
// 聊天记录和成员表不受影响。
func (r *Router) ClearCanvas(connID string, roomID string) error {
	room, ok := r.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.ClearDrawings()
	r.broadcast(room, domain.EventCanvasCleared, nil)
	r.log.WithFields(logrus.Fields{"conn_id": connID, "room_id": roomID}).Info("Canvas cleared")
	return nil
}

// Undo 处理 undo：弹出最近追加的一条绘图并整房广播 undone。
// undone 事件不携带负载（见 domain.EventUndone 的说明）。
func (r *Router) Undo(connID string, roomID string) error {
	room, ok := r.rooms.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if !room.UndoLastDrawing() {
		return ErrEmptyUndoStack
	}
	r.broadcast(room, domain.EventUndone, nil)
	return nil
}

// CursorMove 处理 cursor-move：原地更新成员光标并向其他成员转发。
// 发送者不需要自己光标的回显。
func (r *Router) CursorMove(connID string, p domain.CursorMovePayload) error {
	room, ok := r.rooms.Get(p.RoomID)
	if !ok {
		return ErrRoomNotFound
	}
	cursor := domain.Cursor{X: p.X, Y: p.Y}
	if !room.SetCursor(connID, cursor) {
		return ErrNotRegistered
	}
	r.relay(room, connID, domain.EventCursorUpdated, domain.CursorUpdate{
		UserID: connID,
		Cursor: cursor,
	})
	return nil
}

// SendMessage 处理 send-message。聊天要求已加入的会话（与 draw/clear
// 不同，后者只要求房间存在）：没有注册表项的连接直接忽略。
//
// 发送者身份（展示名/颜色）取自用户注册表在发送时刻的快照，而不是
// 房间成员表。若未来支持会话中改名，这两个来源可能分叉；此处按
// 设计以注册表为准，不做静默统一。
func (r *Router) SendMessage(connID string, p domain.ChatPayload) error {
	sess, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotRegistered
	}
	room, ok := r.rooms.Get(p.RoomID)
	if !ok {
		return ErrRoomNotFound
	}

	msg := domain.ChatMessage{
		ID:        r.idGen.NextID(),
		UserID:    connID,
		Username:  sess.Username,
		Color:     sess.Color,
		Message:   p.Message,
		Timestamp: time.Now().UTC(),
	}
	room.AppendChat(msg)
	r.broadcast(room, domain.EventNewMessage, msg)
	return nil
}

// Disconnect 处理连接断开。重复断开是安全的：注册表项不存在时整个
// 流程是 no-op，不会重复扣减成员数或重复删除房间。
//
// 即使房间已经不存在，注册表项也必须移除，避免为已消失的房间
// 泄漏注册表条目。
func (r *Router) Disconnect(connID string) error {
	sess, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotRegistered
	}
	r.departRoom(connID, sess.RoomID)
	r.registry.Remove(connID)
	r.log.WithFields(logrus.Fields{"conn_id": connID, "room_id": sess.RoomID}).Info("Member disconnected")
	return nil
}

// departRoom 将连接移出房间：通知其他成员、广播权威成员列表、
// 回收空房间。房间不存在时为 no-op。
func (r *Router) departRoom(connID, roomID string) {
	room, ok := r.rooms.Get(roomID)
	if !ok {
		return
	}
	if !room.RemoveMember(connID) {
		return
	}
	r.relay(room, connID, domain.EventUserLeft, connID)
	r.broadcast(room, domain.EventUsersUpdated, room.MemberList())
	if r.rooms.DeleteIfEmpty(roomID) {
		r.log.WithField("room_id", roomID).Info("Room deleted (no members)")
	}
}

// broadcast 向房间当前所有成员发送事件（包含触发者）。
func (r *Router) broadcast(room *domain.Room, event string, payload any) {
	for _, id := range room.MemberIDs() {
		r.emitter.Emit(id, event, payload)
	}
}

// relay 向除触发者以外的所有成员发送事件。
func (r *Router) relay(room *domain.Room, senderID, event string, payload any) {
	for _, id := range room.MemberIDs() {
		if id == senderID {
			continue
		}
		r.emitter.Emit(id, event, payload)
	}
}

// Audit 校验注册表与房间成员表之间的一致性约束：每个注册表项引用的
// 房间必须存在且包含该连接。孤儿表项记录日志后移除，返回移除数量。
// 由后台任务周期性调用。
func (r *Router) Audit(ctx context.Context) int {
	removed := 0
	for connID, sess := range r.registry.Snapshot() {
		select {
		case <-ctx.Done():
			return removed
		default:
		}
		if room, ok := r.rooms.Get(sess.RoomID); ok && room.HasMember(connID) {
			continue
		}
		r.log.WithFields(logrus.Fields{
			"conn_id": connID,
			"room_id": sess.RoomID,
		}).Warn("Audit: removing orphaned session entry")
		r.registry.Remove(connID)
		removed++
	}
	return removed
}
