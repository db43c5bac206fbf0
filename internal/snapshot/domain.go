package snapshot

import "context"

// Role is one entry of the role snapshot. Capabilities maps capability
// name to its enabled flag; only true entries count as held.
type Role struct {
	Name         string          `json:"name"`
	Capabilities map[string]bool `json:"capabilities"`
}

// User is a fully resolved account. Caps mirrors the host's raw per-user
// capability mapping, which mixes role membership flags and direct grants
// in the same map. EffectiveCaps is the host-resolved union of everything
// the account can actually do.
type User struct {
	ID            int64
	Login         string
	Email         string
	Roles         []string
	Caps          map[string]bool
	EffectiveCaps map[string]bool
}

// Source is the read-only view of the host access-control store that an
// audit run consumes. Implementations must not mutate host state.
//
// ResolveUser returns shared.ErrNotFound when the account vanished between
// enumeration and lookup; callers skip such users rather than aborting.
type Source interface {
	ListRoles(ctx context.Context) (map[string]Role, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	ResolveUser(ctx context.Context, id int64) (*User, error)
}
