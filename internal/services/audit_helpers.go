package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/taskhub/pkg/logger"
)

// recordAudit writes the trail entry for a completed operation. A failed
// audit write must never fail the operation itself, so the error is only
// logged.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
