package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit"
)

// AuditRunner runs the capability audit pipeline.
type AuditRunner interface {
	Run(ctx context.Context) (*audit.Result, error)
}

// CapabilityScanJob periodically re-runs the audit and surfaces findings
// in the logs, so drift shows up without anyone opening the screen.
// Nothing is persisted; every scan is computed fresh.
type CapabilityScanJob struct {
	Engine AuditRunner
	Logger *slog.Logger
	clock  func() time.Time
}

// NewCapabilityScanJob initialises the scan handler.
func NewCapabilityScanJob(engine AuditRunner, logger *slog.Logger) *CapabilityScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapabilityScanJob{
		Engine: engine,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *CapabilityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Engine == nil {
		return errors.New("capability scan: handler not configured")
	}
	var payload CapabilityScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := j.clock()
	j.Logger.Info("starting capability scan")

	result, err := j.Engine.Run(ctx)
	if err != nil {
		j.Logger.Error("capability scan failed", slog.Any("error", err))
		return err
	}

	for key, drift := range result.RoleDrift {
		if len(drift.Added) == 0 && len(drift.Removed) == 0 {
			continue
		}
		j.Logger.Warn("role drifted from baseline",
			slog.String("role", key),
			slog.Any("added", drift.Added),
			slog.Any("removed", drift.Removed),
		)
	}

	for _, record := range result.HighRiskNonAdmins {
		j.Logger.Warn("non-admin user holds high-risk capabilities",
			slog.Int64("user_id", record.ID),
			slog.String("login", record.Login),
			slog.Any("caps", record.Caps),
		)
	}

	if payload.WarnOnCustomRoles {
		for key, role := range result.CustomRoles {
			if len(role.HighRisk) == 0 {
				continue
			}
			j.Logger.Warn("custom role holds high-risk capabilities",
				slog.String("role", key),
				slog.Any("caps", role.HighRisk),
			)
		}
	}

	summary := result.Summary()
	j.Logger.Info("completed capability scan",
		slog.Int("roles", summary.TotalRoles),
		slog.Int("custom_roles", summary.CustomRoles),
		slog.Int("direct_cap_users", summary.DirectCapUsers),
		slog.Int("high_risk_non_admins", summary.HighRiskNonAdmins),
		slog.Int("orphan_caps", summary.OrphanCaps),
		slog.Duration("duration", j.clock().Sub(start)),
	)
	return nil
}
