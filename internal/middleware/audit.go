package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/pkg/middleware/requestid"
)

// AuditSink receives audit records of successful mutations.
type AuditSink interface {
	Record(entry models.AuditLog)
}

// ZapAuditSink writes audit records to a logger.
type ZapAuditSink struct {
	Logger *zap.Logger
}

// Record implements AuditSink.
func (s ZapAuditSink) Record(entry models.AuditLog) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("audit",
		zap.String("audit_id", entry.ID),
		zap.String("actor", entry.Actor),
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status", entry.Status),
		zap.Int64("latency_ms", entry.LatencyMs),
		zap.String("ip", entry.IPAddress),
		zap.String("user_agent", entry.UserAgent),
	)
}

// Audit records an entry after every request that finished below 400.
func Audit(sink AuditSink, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}
		id := requestid.Value(c)
		if id == "" {
			id = uuid.NewString()
		}
		actor := Actor(c)
		if actor == "" {
			actor = "anonymous"
		}
		sink.Record(models.AuditLog{
			ID:        id,
			Actor:     actor,
			Action:    action,
			Resource:  resource,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			LatencyMs: time.Since(start).Milliseconds(),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			CreatedAt: start,
		})
	}
}
