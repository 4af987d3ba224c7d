package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/planwise-crm/planwise-crm/internal/accessrules"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccessRuleSeed re-runs the idempotent access-rule backfill.
	TaskAccessRuleSeed = "accessrules:seed"
	// TaskAuditPrune removes audit log entries past retention.
	TaskAuditPrune = "audit:prune"
)

// AuditPrunePayload configures the audit retention window.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAccessRuleSeedTask constructs the seed task.
func NewAccessRuleSeedTask() *asynq.Task {
	return asynq.NewTask(TaskAccessRuleSeed, nil)
}

// NewAuditPruneTask constructs a prune task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}

// AccessRuleSeedHandler backfills critical access rules. The backfill uses
// find-or-create semantics, so repeated or concurrent runs are harmless.
type AccessRuleSeedHandler struct {
	Rules  *accessrules.Service
	Logger *slog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *AccessRuleSeedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if err := h.Rules.SeedDefaults(ctx); err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("access rule seed complete")
	}
	return nil
}

// AuditPruneHandler removes old audit log entries.
type AuditPruneHandler struct {
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *AuditPruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := AuditPrunePayload{RetentionDays: 90}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	removed, err := h.Audit.Prune(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
	if err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("audit prune complete", slog.Int64("removed", removed))
	}
	return nil
}
