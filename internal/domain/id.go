package domain

import "github.com/google/uuid"

// IDGenerator 为连接、绘图和聊天消息生成唯一 ID。
// 原实现使用毫秒时间戳字符串，高频操作下可能碰撞；
// 这里改为显式注入的生成器，测试中可替换为确定性实现。
type IDGenerator interface {
	NextID() string
}

// UUIDGenerator 是 IDGenerator 的 UUID v4 实现。
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() string { return uuid.NewString() }
