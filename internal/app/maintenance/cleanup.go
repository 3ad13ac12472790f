// Package maintenance runs periodic background jobs against the store,
// currently limited to audit log retention.
package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/taskhub/internal/services"
	"github.com/charlesng35/taskhub/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSchedule      = "0 3 * * *"
)

// Cleaner prunes aged rows on a cron schedule.
type Cleaner struct {
	audit *services.AuditService
	log   *zap.Logger

	cron               *cron.Cron
	auditRetentionDays int
	auditSchedule      string
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithAuditRetentionDays overrides how long audit rows are kept.
func WithAuditRetentionDays(days int) Option {
	return func(c *Cleaner) {
		if days > 0 {
			c.auditRetentionDays = days
		}
	}
}

// WithAuditSchedule overrides the cron expression for the audit job.
func WithAuditSchedule(spec string) Option {
	return func(c *Cleaner) {
		if spec != "" {
			c.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner over the audit service.
func NewCleaner(audit *services.AuditService, opts ...Option) (*Cleaner, error) {
	if audit == nil {
		return nil, errors.New("maintenance: audit service is required")
	}

	c := &Cleaner{
		audit:              audit,
		log:                logger.WithModule("maintenance"),
		auditRetentionDays: defaultAuditRetentionDays,
		auditSchedule:      defaultAuditSchedule,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start registers the cron jobs and begins running them.
func (c *Cleaner) Start() error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(c.auditSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.log.Error("cleanup run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info("maintenance started",
		zap.String("audit_schedule", c.auditSchedule),
		zap.Int("audit_retention_days", c.auditRetentionDays),
	)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (c *Cleaner) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

// RunOnce executes every cleanup job immediately, collecting all failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error

	removed, err := c.audit.CleanupOlderThan(ctx, c.auditRetentionDays)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if removed > 0 {
		c.log.Info("pruned audit logs", zap.Int64("rows", removed))
	}

	return errs
}
