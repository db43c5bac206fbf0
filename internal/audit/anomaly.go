package audit

import (
	"sort"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/baseline"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
)

// userScan is the outcome of inspecting a single account.
type userScan struct {
	direct   []string
	highRisk []string
	admin    bool
}

// scanUser partitions the account's raw capability mapping into role flags
// and direct grants, then intersects the effective set with the high-risk
// list for non-administrators.
//
// The host stores role membership flags in the same map as direct
// capabilities, so the split hinges entirely on isRoleKey. It is passed in
// explicitly rather than looked up so the classification can be tested on
// its own.
func scanUser(u *snapshot.User, isRoleKey func(string) bool, highRisk map[string]struct{}) userScan {
	scan := userScan{direct: []string{}, highRisk: []string{}}

	for name, enabled := range u.Caps {
		if isRoleKey(name) {
			continue
		}
		if enabled {
			scan.direct = append(scan.direct, name)
		}
	}
	sort.Strings(scan.direct)

	for _, role := range u.Roles {
		if role == baseline.AdministratorRole {
			scan.admin = true
			break
		}
	}
	if scan.admin {
		return scan
	}

	for name, enabled := range u.EffectiveCaps {
		if !enabled {
			continue
		}
		if _, ok := highRisk[name]; ok {
			scan.highRisk = append(scan.highRisk, name)
		}
	}
	sort.Strings(scan.highRisk)
	return scan
}
