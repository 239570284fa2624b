package session_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/session"
	"collaborative-whiteboard/internal/store"
)

// emission 记录一次出站发送，供断言接收者集合和负载。
type emission struct {
	ConnID  string
	Event   string
	Payload any
}

// recordingEmitter 是 Emitter 的测试替身，按顺序记录全部发送。
type recordingEmitter struct {
	emissions []emission
}

func (e *recordingEmitter) Emit(connID string, event string, payload any) {
	e.emissions = append(e.emissions, emission{ConnID: connID, Event: event, Payload: payload})
}

// byEvent 返回指定事件的全部发送记录。
func (e *recordingEmitter) byEvent(event string) []emission {
	var out []emission
	for _, em := range e.emissions {
		if em.Event == event {
			out = append(out, em)
		}
	}
	return out
}

// recipients 返回指定事件的接收连接 ID 集合。
func (e *recordingEmitter) recipients(event string) map[string]int {
	out := make(map[string]int)
	for _, em := range e.byEvent(event) {
		out[em.ConnID]++
	}
	return out
}

func (e *recordingEmitter) reset() { e.emissions = nil }

// seqIDGen 是确定性的 ID 生成器，生成 id-1, id-2, ...
type seqIDGen struct{ n int }

func (g *seqIDGen) NextID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// newTestRouter 组装被测路由器和它的依赖。
func newTestRouter() (*session.Router, *store.RoomStore, *store.UserRegistry, *recordingEmitter) {
	rooms := store.NewRoomStore()
	registry := store.NewUserRegistry()
	emitter := &recordingEmitter{}
	router := session.NewRouter(rooms, registry, emitter, &seqIDGen{})
	return router, rooms, registry, emitter
}

// --- join / disconnect ---

func TestRouter_Join_CreatesRoomAndRegistersMember(t *testing.T) {
	// Arrange
	router, rooms, registry, _ := newTestRouter()

	// Act
	err := router.Join("conn-a", domain.JoinPayload{RoomID: "R1", Username: "alice", Color: "#FF0000"})

	// Assert
	require.NoError(t, err)
	room, ok := rooms.Get("R1")
	require.True(t, ok, "加入后房间应存在")
	assert.Equal(t, 1, room.MemberCount())
	assert.True(t, room.HasMember("conn-a"))

	sess, ok := registry.Lookup("conn-a")
	require.True(t, ok, "加入后注册表应有该连接")
	assert.Equal(t, "R1", sess.RoomID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "#FF0000", sess.Color)
}

func TestRouter_Join_AppliesMemberDefaults(t *testing.T) {
	// Arrange: username 和 color 都缺省
	router, rooms, _, _ := newTestRouter()

	// Act
	require.NoError(t, router.Join("conn-abcdef", domain.JoinPayload{RoomID: "R1"}))

	// Assert: 展示名派生自连接 ID 前缀，颜色用默认值
	room, _ := rooms.Get("R1")
	members := room.MemberList()
	require.Len(t, members, 1)
	assert.Equal(t, "Userconn", members[0].Username)
	assert.Equal(t, "#007AFF", members[0].Color)
	assert.False(t, members[0].JoinedAt.IsZero(), "加入时间应被填充")
	assert.Equal(t, domain.Cursor{}, members[0].Cursor, "初始光标应为原点")
}

func TestRouter_Join_SecondMemberEventSequence(t *testing.T) {
	// Arrange: A 先加入 R1
	router, _, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1", Username: "alice"}))
	emitter.reset()

	// Act: B 加入
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1", Username: "bob"}))

	// Assert: B 收到且仅 B 收到 room-data（单播），成员列表为 [alice]+bob 之前的状态
	roomData := emitter.byEvent(domain.EventRoomData)
	require.Len(t, roomData, 1, "room-data 应只单播一次")
	assert.Equal(t, "conn-b", roomData[0].ConnID)
	snapshot, ok := roomData[0].Payload.(domain.RoomData)
	require.True(t, ok)
	assert.Empty(t, snapshot.Drawings)
	assert.Empty(t, snapshot.Chat)
	userIDs := make([]string, 0, len(snapshot.Users))
	for _, u := range snapshot.Users {
		userIDs = append(userIDs, u.ID)
	}
	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, userIDs, "快照在 B 插入之后生成")

	// Assert: user-joined 只转发给 A（排除发送者）
	joined := emitter.byEvent(domain.EventUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "conn-a", joined[0].ConnID)
	joinedMember, ok := joined[0].Payload.(domain.Member)
	require.True(t, ok)
	assert.Equal(t, "conn-b", joinedMember.ID)
	assert.Equal(t, "bob", joinedMember.Username)

	// Assert: users-updated 广播给包括 B 在内的所有成员
	assert.Equal(t, map[string]int{"conn-a": 1, "conn-b": 1}, emitter.recipients(domain.EventUsersUpdated))

	// Assert: 事件顺序 room-data → user-joined → users-updated
	var order []string
	for _, em := range emitter.emissions {
		order = append(order, em.Event)
	}
	assert.Equal(t, []string{
		domain.EventRoomData,
		domain.EventUserJoined,
		domain.EventUsersUpdated,
		domain.EventUsersUpdated,
	}, order)
}

func TestRouter_Join_SnapshotContainsLast50Chat(t *testing.T) {
	// Arrange: A 加入后发 60 条消息
	router, _, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	for i := 0; i < 60; i++ {
		require.NoError(t, router.SendMessage("conn-a", domain.ChatPayload{RoomID: "R1", Message: fmt.Sprintf("msg-%d", i)}))
	}
	emitter.reset()

	// Act: B 加入
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))

	// Assert: 快照里只有最近 50 条，完整记录仍在内存中
	roomData := emitter.byEvent(domain.EventRoomData)
	require.Len(t, roomData, 1)
	snapshot := roomData[0].Payload.(domain.RoomData)
	require.Len(t, snapshot.Chat, 50)
	assert.Equal(t, "msg-10", snapshot.Chat[0].Message)
	assert.Equal(t, "msg-59", snapshot.Chat[49].Message)
}

func TestRouter_Join_SwitchingRoomsLeavesPreviousRoom(t *testing.T) {
	// Arrange: A 和 B 在 R1
	router, rooms, registry, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act: A 改加入 R2
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R2"}))

	// Assert: A 已从 R1 移除，B 收到 user-left
	r1, ok := rooms.Get("R1")
	require.True(t, ok, "R1 还有 B，不应被删除")
	assert.False(t, r1.HasMember("conn-a"))
	left := emitter.byEvent(domain.EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "conn-b", left[0].ConnID)
	assert.Equal(t, "conn-a", left[0].Payload)

	// Assert: 注册表指向新房间
	sess, _ := registry.Lookup("conn-a")
	assert.Equal(t, "R2", sess.RoomID)
	r2, ok := rooms.Get("R2")
	require.True(t, ok)
	assert.True(t, r2.HasMember("conn-a"))
}

func TestRouter_Join_SameRoomRejoinKeepsState(t *testing.T) {
	// Arrange: 唯一成员画了一笔、发了一条消息后重发 join-room
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1", Username: "alice"}))
	require.NoError(t, router.Draw("conn-a", domain.DrawPayload{RoomID: "R1", Points: domain.PointList{{X: 1, Y: 1}}}))
	require.NoError(t, router.SendMessage("conn-a", domain.ChatPayload{RoomID: "R1", Message: "hi"}))
	emitter.reset()

	// Act
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1", Username: "alice"}))

	// Assert: 房间不被回收，绘图和聊天原样保留
	room, ok := rooms.Get("R1")
	require.True(t, ok, "重复加入同一房间不应回收房间")
	assert.Equal(t, 1, room.DrawingCount(), "绘图日志应原样保留")
	assert.Equal(t, 1, room.ChatCount())
	assert.Equal(t, 1, room.MemberCount())
	assert.Empty(t, emitter.byEvent(domain.EventUserLeft), "重复加入不应产生 user-left")

	// Assert: 快照仍照常下发，包含保留的绘图
	roomData := emitter.byEvent(domain.EventRoomData)
	require.Len(t, roomData, 1)
	snapshot := roomData[0].Payload.(domain.RoomData)
	assert.Len(t, snapshot.Drawings, 1)
}

func TestRouter_Join_SameRoomRejoinNoChurnForOthers(t *testing.T) {
	// Arrange: A 和 B 在 R1
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act: A 重发 join-room
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))

	// Assert: B 不应看到 A 先离开再加入的抖动
	assert.Empty(t, emitter.byEvent(domain.EventUserLeft))
	room, _ := rooms.Get("R1")
	assert.Equal(t, 2, room.MemberCount())
}

func TestRouter_JoinThenDisconnect_RemovesRoom(t *testing.T) {
	// Arrange
	router, rooms, registry, _ := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))

	// Act
	require.NoError(t, router.Disconnect("conn-a"))

	// Assert: 房间随最后一个成员离开立即删除，注册表清空
	_, ok := rooms.Get("R1")
	assert.False(t, ok, "空房间应被立即删除")
	assert.Equal(t, 0, rooms.Count())
	assert.Equal(t, 0, registry.Count())
}

func TestRouter_Disconnect_NotifiesRemainingMembers(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	require.NoError(t, router.Disconnect("conn-b"))

	// Assert: user-left 只转发给剩余成员，users-updated 广播给全部剩余成员
	assert.Equal(t, map[string]int{"conn-a": 1}, emitter.recipients(domain.EventUserLeft))
	assert.Equal(t, map[string]int{"conn-a": 1}, emitter.recipients(domain.EventUsersUpdated))
	room, ok := rooms.Get("R1")
	require.True(t, ok)
	assert.Equal(t, 1, room.MemberCount())
}

func TestRouter_Disconnect_IsIdempotent(t *testing.T) {
	// Arrange
	router, rooms, registry, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Disconnect("conn-a"))
	emitter.reset()

	// Act: 传输层投递重复断开
	err := router.Disconnect("conn-a")

	// Assert: 静默 no-op，不重复扣减也不广播
	assert.ErrorIs(t, err, session.ErrNotRegistered)
	assert.Empty(t, emitter.emissions)
	assert.Equal(t, 0, rooms.Count())
	assert.Equal(t, 0, registry.Count())
}

func TestRouter_MemberCountTracksJoinsMinusDisconnects(t *testing.T) {
	// Arrange
	router, rooms, _, _ := newTestRouter()

	// Act: 三进一出
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-c", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Disconnect("conn-b"))

	// Assert
	room, ok := rooms.Get("R1")
	require.True(t, ok)
	assert.Equal(t, 2, room.MemberCount())
}

// --- draw / undo / clear ---

func TestRouter_Draw_AppendsAndBroadcastsToAll(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	err := router.Draw("conn-a", domain.DrawPayload{
		RoomID: "R1",
		Points: domain.PointList{{X: 1, Y: 2}, {X: 3, Y: 4}},
		Color:  "#00FF00",
		Tool:   "brush",
	})

	// Assert: 发送者也在接收者集合中（它需要服务端分配的 id/timestamp）
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"conn-a": 1, "conn-b": 1}, emitter.recipients(domain.EventDrawing))

	drawings := emitter.byEvent(domain.EventDrawing)
	drawing, ok := drawings[0].Payload.(domain.Drawing)
	require.True(t, ok)
	assert.NotEmpty(t, drawing.ID, "服务端应分配 ID")
	assert.False(t, drawing.Timestamp.IsZero(), "服务端应分配时间戳")
	assert.Equal(t, "conn-a", drawing.UserID)
	assert.Equal(t, "#00FF00", drawing.Color)
	assert.Equal(t, 5, drawing.BrushSize, "缺省笔刷大小应为 5")
	assert.Equal(t, "brush", drawing.Tool)

	room, _ := rooms.Get("R1")
	assert.Equal(t, 1, room.DrawingCount())
}

func TestRouter_Draw_AppliesDefaults(t *testing.T) {
	// Arrange
	router, rooms, _, _ := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))

	// Act: 所有可选字段缺省
	require.NoError(t, router.Draw("conn-a", domain.DrawPayload{RoomID: "R1", Points: domain.PointList{{X: 1, Y: 1}}}))

	// Assert
	room, _ := rooms.Get("R1")
	drawings := room.DrawingList()
	require.Len(t, drawings, 1)
	assert.Equal(t, "#000000", drawings[0].Color)
	assert.Equal(t, 5, drawings[0].BrushSize)
	assert.Equal(t, "pencil", drawings[0].Tool)
}

func TestRouter_Draw_MissingRoomIsNoop(t *testing.T) {
	// Arrange
	router, _, _, emitter := newTestRouter()

	// Act
	err := router.Draw("conn-a", domain.DrawPayload{RoomID: "nope", Points: domain.PointList{{X: 1, Y: 1}}})

	// Assert
	assert.ErrorIs(t, err, session.ErrRoomNotFound)
	assert.Empty(t, emitter.emissions)
}

func TestRouter_Undo_RemovesLastDrawingLIFO(t *testing.T) {
	// Arrange: 依次画 A、B 两笔
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Draw("conn-a", domain.DrawPayload{RoomID: "R1", Points: domain.PointList{{X: 1, Y: 1}}}))
	require.NoError(t, router.Draw("conn-a", domain.DrawPayload{RoomID: "R1", Points: domain.PointList{{X: 2, Y: 2}}}))
	room, _ := rooms.Get("R1")
	all := room.DrawingList()
	require.Len(t, all, 2)
	firstID := all[0].ID
	emitter.reset()

	// Act: 第一次撤销
	require.NoError(t, router.Undo("conn-a", "R1"))

	// Assert: 只剩第一笔，undone 无负载广播
	remaining := room.DrawingList()
	require.Len(t, remaining, 1)
	assert.Equal(t, firstID, remaining[0].ID)
	undone := emitter.byEvent(domain.EventUndone)
	require.Len(t, undone, 1)
	assert.Nil(t, undone[0].Payload, "undone 事件不携带负载")

	// Act: 第二次撤销清空日志
	require.NoError(t, router.Undo("conn-a", "R1"))
	assert.Equal(t, 0, room.DrawingCount())
}

func TestRouter_Undo_EmptyLogIsNoop(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	err := router.Undo("conn-a", "R1")

	// Assert: 日志不变，也不触发广播
	assert.ErrorIs(t, err, session.ErrEmptyUndoStack)
	assert.Empty(t, emitter.byEvent(domain.EventUndone))
	room, _ := rooms.Get("R1")
	assert.Equal(t, 0, room.DrawingCount())
}

func TestRouter_ClearCanvas_TruncatesDrawingsOnly(t *testing.T) {
	// Arrange: 5 笔绘图和 1 条聊天
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	for i := 0; i < 5; i++ {
		require.NoError(t, router.Draw("conn-a", domain.DrawPayload{RoomID: "R1", Points: domain.PointList{{X: float64(i), Y: 0}}}))
	}
	require.NoError(t, router.SendMessage("conn-a", domain.ChatPayload{RoomID: "R1", Message: "hi"}))
	emitter.reset()

	// Act
	require.NoError(t, router.ClearCanvas("conn-a", "R1"))

	// Assert: 绘图清空、聊天与成员不受影响、canvas-cleared 广播给全员
	room, _ := rooms.Get("R1")
	assert.Equal(t, 0, room.DrawingCount())
	assert.Equal(t, 1, room.ChatCount(), "清空画布不应影响聊天")
	assert.Equal(t, 2, room.MemberCount())
	assert.Equal(t, map[string]int{"conn-a": 1, "conn-b": 1}, emitter.recipients(domain.EventCanvasCleared))
}

// --- cursor ---

func TestRouter_CursorMove_UpdatesMemberAndRelaysToOthers(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-c", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	require.NoError(t, router.CursorMove("conn-a", domain.CursorMovePayload{RoomID: "R1", X: 10, Y: 20}))

	// Assert: 仅发送者的成员记录被更新
	room, _ := rooms.Get("R1")
	for _, m := range room.MemberList() {
		if m.ID == "conn-a" {
			assert.Equal(t, domain.Cursor{X: 10, Y: 20}, m.Cursor)
		} else {
			assert.Equal(t, domain.Cursor{}, m.Cursor, "其他成员的光标不应被修改")
		}
	}

	// Assert: 转发给其他成员，不回显给发送者
	assert.Equal(t, map[string]int{"conn-b": 1, "conn-c": 1}, emitter.recipients(domain.EventCursorUpdated))
	update, ok := emitter.byEvent(domain.EventCursorUpdated)[0].Payload.(domain.CursorUpdate)
	require.True(t, ok)
	assert.Equal(t, "conn-a", update.UserID)
	assert.Equal(t, domain.Cursor{X: 10, Y: 20}, update.Cursor)
}

func TestRouter_CursorMove_NonMemberIsNoop(t *testing.T) {
	// Arrange: 房间存在但发送者不是成员
	router, _, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	err := router.CursorMove("conn-x", domain.CursorMovePayload{RoomID: "R1", X: 1, Y: 1})

	// Assert
	assert.ErrorIs(t, err, session.ErrNotRegistered)
	assert.Empty(t, emitter.emissions)
}

// --- chat ---

func TestRouter_SendMessage_BroadcastsWithRegistrySnapshot(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1", Username: "alice", Color: "#FF0000"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	require.NoError(t, router.SendMessage("conn-a", domain.ChatPayload{RoomID: "R1", Message: "hello"}))

	// Assert: 包括发送者在内整房广播
	assert.Equal(t, map[string]int{"conn-a": 1, "conn-b": 1}, emitter.recipients(domain.EventNewMessage))
	msg, ok := emitter.byEvent(domain.EventNewMessage)[0].Payload.(domain.ChatMessage)
	require.True(t, ok)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "conn-a", msg.UserID)
	assert.Equal(t, "alice", msg.Username, "身份取自注册表快照")
	assert.Equal(t, "#FF0000", msg.Color)
	assert.Equal(t, "hello", msg.Message)

	room, _ := rooms.Get("R1")
	assert.Equal(t, 1, room.ChatCount())
}

func TestRouter_SendMessage_WithoutJoinIsNoop(t *testing.T) {
	// Arrange: 从未加入的连接（聊天要求已加入会话，不同于 draw/clear）
	router, rooms, _, emitter := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	emitter.reset()

	// Act
	err := router.SendMessage("conn-x", domain.ChatPayload{RoomID: "R1", Message: "sneaky"})

	// Assert: 聊天记录不变，无广播
	assert.ErrorIs(t, err, session.ErrNotRegistered)
	assert.Empty(t, emitter.emissions)
	room, _ := rooms.Get("R1")
	assert.Equal(t, 0, room.ChatCount())
}

// --- Dispatch ---

func TestRouter_Dispatch_RoutesEnvelopes(t *testing.T) {
	// Arrange
	router, rooms, _, emitter := newTestRouter()

	// Act: 通过线上格式走一遍 join → draw → undo（裸字符串负载）
	router.Dispatch("conn-a", []byte(`{"event":"join-room","data":{"roomId":"R1","username":"alice"}}`))
	router.Dispatch("conn-a", []byte(`{"event":"draw","data":{"roomId":"R1","points":{"x":1,"y":2},"brushSize":3}}`))
	router.Dispatch("conn-a", []byte(`{"event":"undo","data":"R1"}`))

	// Assert: 单点 points 被归一化为单元素序列，undo 按裸字符串解码
	room, ok := rooms.Get("R1")
	require.True(t, ok)
	drawings := emitter.byEvent(domain.EventDrawing)
	require.Len(t, drawings, 1)
	drawing := drawings[0].Payload.(domain.Drawing)
	assert.Equal(t, domain.PointList{{X: 1, Y: 2}}, drawing.Points)
	assert.Equal(t, 3, drawing.BrushSize)
	assert.Equal(t, 0, room.DrawingCount(), "undo 应移除刚画的一笔")
	assert.Len(t, emitter.byEvent(domain.EventUndone), 1)
}

func TestRouter_Dispatch_IgnoresMalformedAndUnknown(t *testing.T) {
	// Arrange
	router, rooms, registry, emitter := newTestRouter()

	// Act: 坏帧、未知事件、负载类型错误都不应 panic 或改变状态
	router.Dispatch("conn-a", []byte(`not json at all`))
	router.Dispatch("conn-a", []byte(`{"event":"no-such-event","data":{}}`))
	router.Dispatch("conn-a", []byte(`{"event":"join-room","data":"not-an-object"}`))
	router.Dispatch("conn-a", []byte(`{"event":"undo","data":{"roomId":"R1"}}`))

	// Assert
	assert.Empty(t, emitter.emissions)
	assert.Equal(t, 0, rooms.Count())
	assert.Equal(t, 0, registry.Count())
}

// --- audit ---

func TestRouter_Audit_RemovesOrphanedEntries(t *testing.T) {
	// Arrange: 正常成员 + 指向已消失房间的孤儿表项
	router, _, registry, _ := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	registry.Register("conn-ghost", "gone-room", "ghost", "#000000")

	// Act
	removed := router.Audit(context.Background())

	// Assert: 只移除孤儿表项
	assert.Equal(t, 1, removed)
	_, ok := registry.Lookup("conn-ghost")
	assert.False(t, ok)
	_, ok = registry.Lookup("conn-a")
	assert.True(t, ok, "一致的表项不应被移除")
}

func TestRouter_Audit_CleanStateRemovesNothing(t *testing.T) {
	// Arrange
	router, _, _, _ := newTestRouter()
	require.NoError(t, router.Join("conn-a", domain.JoinPayload{RoomID: "R1"}))
	require.NoError(t, router.Join("conn-b", domain.JoinPayload{RoomID: "R2"}))

	// Act & Assert
	assert.Equal(t, 0, router.Audit(context.Background()))
}
