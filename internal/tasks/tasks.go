package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量
const (
	// TypeSessionAudit 周期性校验用户注册表与房间成员表的一致性
	TypeSessionAudit = "session:audit"
)

// SessionAuditPayload 是会话审计任务的数据结构。
type SessionAuditPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewSessionAuditTask 创建一个会话审计任务。
func NewSessionAuditTask() (*asynq.Task, error) {
	payload, err := json.Marshal(SessionAuditPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSessionAudit, payload), nil
}
