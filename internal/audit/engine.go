package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/baseline"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
)

// Engine runs the audit pipeline over one snapshot of the host's roles and
// users. It holds only injected collaborators; every Run computes a fresh
// Result with no state carried between invocations.
type Engine struct {
	logger   *slog.Logger
	source   snapshot.Source
	registry baseline.Registry
}

// NewEngine constructs an Engine.
func NewEngine(logger *slog.Logger, source snapshot.Source, registry baseline.Registry) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = baseline.Default()
	}
	return &Engine{logger: logger, source: source, registry: registry}
}

// Run executes the full audit: role drift, user anomaly scan, orphan
// classification, report assembly. A total failure of the role snapshot
// wraps shared.ErrHostUnavailable; individual user lookups that fail are
// skipped without aborting the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.source == nil {
		return nil, errors.New("audit: snapshot source not configured")
	}

	roles, err := e.source.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrHostUnavailable, err)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: role snapshot is empty", shared.ErrHostUnavailable)
	}

	base := e.registry.DefaultBaseline()
	highRisk := make(map[string]struct{})
	for _, name := range e.registry.HighRiskCapabilities() {
		highRisk[name] = struct{}{}
	}
	baselineUnion := baseline.Union(e.registry)

	allSeen := make(map[string]struct{})
	orphanPending := make(map[string]struct{})

	roleDrift := make(map[string]RoleDrift)
	customRoles := make(map[string]CustomRole)

	for key, role := range roles {
		held := heldCaps(role)
		for _, name := range held {
			allSeen[name] = struct{}{}
			if _, ok := baselineUnion[name]; !ok {
				orphanPending[name] = struct{}{}
			}
		}

		if baseCaps, known := base[key]; known {
			sorted := append([]string(nil), baseCaps...)
			sort.Strings(sorted)
			roleDrift[key] = diffDrift(role.Name, held, sorted, highRisk)
		} else {
			customRoles[key] = classifyCustom(role.Name, held, highRisk)
		}
	}

	isRoleKey := func(name string) bool {
		_, ok := roles[name]
		return ok
	}

	directRecords := make([]DirectCapRecord, 0)
	highRiskRecords := make([]HighRiskRecord, 0)

	ids, err := e.source.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrHostUnavailable, err)
	}

	for _, id := range ids {
		user, err := e.source.ResolveUser(ctx, id)
		if err != nil {
			// The account vanished between enumeration and lookup, or the
			// read failed. Either way, skip it and keep the audit alive.
			e.logger.Debug("skipping unresolvable user",
				slog.Int64("user_id", id),
				slog.Any("error", err),
			)
			continue
		}

		scan := scanUser(user, isRoleKey, highRisk)
		for _, name := range scan.direct {
			allSeen[name] = struct{}{}
			if _, ok := baselineUnion[name]; !ok {
				orphanPending[name] = struct{}{}
			}
		}

		userRoles := user.Roles
		if userRoles == nil {
			userRoles = []string{}
		}

		if len(scan.direct) > 0 {
			directRecords = append(directRecords, DirectCapRecord{
				ID:     user.ID,
				Login:  user.Login,
				Email:  user.Email,
				Roles:  userRoles,
				Direct: scan.direct,
			})
		}
		if len(scan.highRisk) > 0 {
			highRiskRecords = append(highRiskRecords, HighRiskRecord{
				ID:    user.ID,
				Login: user.Login,
				Email: user.Email,
				Roles: userRoles,
				Caps:  scan.highRisk,
			})
		}
	}

	seen := make([]string, 0, len(allSeen))
	for name := range allSeen {
		seen = append(seen, name)
	}
	sort.Strings(seen)

	return &Result{
		Roles:             roles,
		Baseline:          base,
		HighRiskCaps:      e.registry.HighRiskCapabilities(),
		RoleDrift:         roleDrift,
		CustomRoles:       customRoles,
		DirectUserCaps:    directRecords,
		HighRiskNonAdmins: highRiskRecords,
		OrphanCaps:        sortedOrphans(orphanPending),
		AllCapsSeen:       seen,
	}, nil
}
