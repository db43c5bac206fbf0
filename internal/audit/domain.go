// Package audit computes capability drift reports over a snapshot of the
// host's roles and users. It is strictly read-only: it prints the
// uncomfortable truth and leaves the decisions to whoever reads it.
package audit

import (
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
)

// RoleDrift describes how a known default role diverged from its baseline.
type RoleDrift struct {
	Name      string   `json:"name"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	CapsCount int      `json:"caps_count"`
	HighRisk  []string `json:"high_risk"`
}

// CustomRole records a role outside the default baseline. The tool does
// not claim to know what a custom role should contain; it lists the
// contents and flags high-risk members, nothing more.
type CustomRole struct {
	Name      string   `json:"name"`
	CapsCount int      `json:"caps_count"`
	Caps      []string `json:"caps"`
	HighRisk  []string `json:"high_risk"`
}

// DirectCapRecord flags a user holding capabilities assigned directly on
// the account, outside any role.
type DirectCapRecord struct {
	ID     int64    `json:"id"`
	Login  string   `json:"login"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Direct []string `json:"direct"`
}

// HighRiskRecord flags a non-administrator whose effective capability set
// intersects the high-risk list.
type HighRiskRecord struct {
	ID    int64    `json:"id"`
	Login string   `json:"login"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	Caps  []string `json:"caps"`
}

// Result is the complete audit report. It is assembled once per run and
// handed to the rendering and export collaborators, which must not
// recompute or mutate any of it.
type Result struct {
	Roles             map[string]snapshot.Role `json:"roles"`
	Baseline          map[string][]string      `json:"baseline"`
	HighRiskCaps      []string                 `json:"high_risk_caps"`
	RoleDrift         map[string]RoleDrift     `json:"role_drift"`
	CustomRoles       map[string]CustomRole    `json:"custom_roles"`
	DirectUserCaps    []DirectCapRecord        `json:"direct_user_caps"`
	HighRiskNonAdmins []HighRiskRecord         `json:"high_risk_non_admins"`
	OrphanCaps        []string                 `json:"orphan_caps"`
	AllCapsSeen       []string                 `json:"all_caps_seen"`
}

// Summary holds the headline counters for the report screen.
type Summary struct {
	TotalRoles        int
	CustomRoles       int
	DirectCapUsers    int
	HighRiskNonAdmins int
	OrphanCaps        int
}

// Summary derives the counters shown at the top of the audit screen.
func (r *Result) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	return Summary{
		TotalRoles:        len(r.Roles),
		CustomRoles:       len(r.CustomRoles),
		DirectCapUsers:    len(r.DirectUserCaps),
		HighRiskNonAdmins: len(r.HighRiskNonAdmins),
		OrphanCaps:        len(r.OrphanCaps),
	}
}
