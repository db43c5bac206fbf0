package audit

import (
	"sort"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
)

// heldCaps extracts the sorted list of capabilities a role actually holds.
// Only entries flagged true count.
func heldCaps(role snapshot.Role) []string {
	caps := make([]string, 0, len(role.Capabilities))
	for name, enabled := range role.Capabilities {
		if enabled {
			caps = append(caps, name)
		}
	}
	sort.Strings(caps)
	return caps
}

// diffDrift compares a known role's held capabilities against its
// baseline. Both inputs and outputs are sorted.
func diffDrift(name string, held, base []string, highRisk map[string]struct{}) RoleDrift {
	return RoleDrift{
		Name:      name,
		Added:     difference(held, base),
		Removed:   difference(base, held),
		CapsCount: len(held),
		HighRisk:  intersect(held, highRisk),
	}
}

// classifyCustom records a role that has no baseline to compare against.
func classifyCustom(name string, held []string, highRisk map[string]struct{}) CustomRole {
	return CustomRole{
		Name:      name,
		CapsCount: len(held),
		Caps:      held,
		HighRisk:  intersect(held, highRisk),
	}
}

// difference returns the members of a absent from b, preserving a's order.
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, name := range b {
		exclude[name] = struct{}{}
	}
	out := make([]string, 0)
	for _, name := range a {
		if _, ok := exclude[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// intersect returns the members of caps present in set, preserving caps'
// order.
func intersect(caps []string, set map[string]struct{}) []string {
	out := make([]string, 0)
	for _, name := range caps {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
