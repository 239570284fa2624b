package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/session"
	"collaborative-whiteboard/internal/tasks"
)

// SessionAuditHandler 处理周期性的会话审计任务：检查用户注册表里的
// 每个表项是否仍然指向一个包含该连接的房间，移除孤儿表项。
// 正常运行时应当零发现；任何移除都说明清理路径有缺陷，记为告警。
type SessionAuditHandler struct {
	router *session.Router
	log    *logrus.Entry
}

// NewSessionAuditHandler 创建 SessionAuditHandler 实例。
func NewSessionAuditHandler(router *session.Router) *SessionAuditHandler {
	if router == nil {
		panic("Router cannot be nil for SessionAuditHandler")
	}
	return &SessionAuditHandler{
		router: router,
		log:    logrus.WithField("component", "session_audit"),
	}
}

// ProcessTask 执行一次审计。
func (h *SessionAuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SessionAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("session audit: failed to unmarshal payload: %w", err)
	}

	removed := h.router.Audit(ctx)
	logCtx := h.log.WithFields(logrus.Fields{
		"requested_at": payload.RequestedAt,
		"removed":      removed,
	})
	if removed > 0 {
		logCtx.Warn("Session audit removed orphaned entries")
	} else {
		logCtx.Debug("Session audit clean")
	}
	return nil
}
