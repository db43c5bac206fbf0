package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
)

type stubSource struct {
	roles    map[string]snapshot.Role
	rolesErr error
	ids      []int64
	idsErr   error
	users    map[int64]*snapshot.User
}

func (s *stubSource) ListRoles(context.Context) (map[string]snapshot.Role, error) {
	return s.roles, s.rolesErr
}

func (s *stubSource) ListUserIDs(context.Context) ([]int64, error) {
	return s.ids, s.idsErr
}

func (s *stubSource) ResolveUser(_ context.Context, id int64) (*snapshot.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func role(name string, caps ...string) snapshot.Role {
	m := make(map[string]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return snapshot.Role{Name: name, Capabilities: m}
}

func capMap(caps ...string) map[string]bool {
	m := make(map[string]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

func TestRunRoleSnapshotFailure(t *testing.T) {
	src := &stubSource{rolesErr: errors.New("connection refused")}
	engine := NewEngine(quietLogger(), src, nil)

	_, err := engine.Run(context.Background())
	if !errors.Is(err, shared.ErrHostUnavailable) {
		t.Fatalf("expected ErrHostUnavailable, got %v", err)
	}
}

func TestRunEmptyRoleSnapshotIsUnavailable(t *testing.T) {
	src := &stubSource{roles: map[string]snapshot.Role{}}
	engine := NewEngine(quietLogger(), src, nil)

	_, err := engine.Run(context.Background())
	if !errors.Is(err, shared.ErrHostUnavailable) {
		t.Fatalf("expected ErrHostUnavailable for empty snapshot, got %v", err)
	}
}

func TestRunBaselineEqualRoleHasNoDrift(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber": role("Subscriber", "read"),
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	drift, ok := result.RoleDrift["subscriber"]
	if !ok {
		t.Fatal("subscriber missing from role drift")
	}
	if len(drift.Added) != 0 || len(drift.Removed) != 0 {
		t.Fatalf("expected clean drift, got added=%v removed=%v", drift.Added, drift.Removed)
	}
	if drift.CapsCount != 1 {
		t.Fatalf("caps_count = %d, want 1", drift.CapsCount)
	}
	if len(result.CustomRoles) != 0 {
		t.Fatalf("unexpected custom roles: %v", result.CustomRoles)
	}
}

func TestRunDetectsDriftAndHighRisk(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber": role("Subscriber", "read", "manage_options"),
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	drift := result.RoleDrift["subscriber"]
	if !reflect.DeepEqual(drift.Added, []string{"manage_options"}) {
		t.Fatalf("added = %v, want [manage_options]", drift.Added)
	}
	if !reflect.DeepEqual(drift.HighRisk, []string{"manage_options"}) {
		t.Fatalf("high_risk = %v, want [manage_options]", drift.HighRisk)
	}
}

func TestRunDetectsRemovedCapabilities(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"contributor": role("Contributor", "read"),
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	drift := result.RoleDrift["contributor"]
	if !reflect.DeepEqual(drift.Removed, []string{"delete_posts", "edit_posts"}) {
		t.Fatalf("removed = %v, want [delete_posts edit_posts]", drift.Removed)
	}
}

func TestRunClassifiesCustomRoles(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber":   role("Subscriber", "read"),
			"shop_manager": role("Shop Manager", "read", "shopplugin_manage_orders", "edit_users"),
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	custom, ok := result.CustomRoles["shop_manager"]
	if !ok {
		t.Fatal("shop_manager not classified as custom")
	}
	if custom.CapsCount != 3 {
		t.Fatalf("caps_count = %d, want 3", custom.CapsCount)
	}
	if !reflect.DeepEqual(custom.HighRisk, []string{"edit_users"}) {
		t.Fatalf("high_risk = %v, want [edit_users]", custom.HighRisk)
	}
	if _, drifted := result.RoleDrift["shop_manager"]; drifted {
		t.Fatal("custom role must not appear in role drift")
	}
	if !reflect.DeepEqual(result.OrphanCaps, []string{"shopplugin_manage_orders"}) {
		t.Fatalf("orphan_caps = %v, want [shopplugin_manage_orders]", result.OrphanCaps)
	}
}

func TestRunFlagsDirectUserCaps(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"editor": role("Editor", "read", "edit_posts"),
		},
		ids: []int64{7},
		users: map[int64]*snapshot.User{
			7: {
				ID:            7,
				Login:         "bob",
				Email:         "bob@example.test",
				Roles:         []string{"editor"},
				Caps:          capMap("editor", "manage_options"),
				EffectiveCaps: capMap("read", "edit_posts", "manage_options"),
			},
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.DirectUserCaps) != 1 {
		t.Fatalf("direct records = %d, want 1", len(result.DirectUserCaps))
	}
	direct := result.DirectUserCaps[0]
	if direct.Login != "bob" || !reflect.DeepEqual(direct.Direct, []string{"manage_options"}) {
		t.Fatalf("unexpected direct record: %+v", direct)
	}

	if len(result.HighRiskNonAdmins) != 1 {
		t.Fatalf("high-risk records = %d, want 1", len(result.HighRiskNonAdmins))
	}
	risky := result.HighRiskNonAdmins[0]
	if !reflect.DeepEqual(risky.Caps, []string{"manage_options"}) {
		t.Fatalf("high-risk caps = %v, want [manage_options]", risky.Caps)
	}
}

func TestRunExemptsAdministrators(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"administrator": role("Administrator", "read", "manage_options", "edit_users"),
		},
		ids: []int64{1},
		users: map[int64]*snapshot.User{
			1: {
				ID:            1,
				Login:         "admin",
				Email:         "admin@example.test",
				Roles:         []string{"administrator"},
				Caps:          capMap("administrator"),
				EffectiveCaps: capMap("read", "manage_options", "edit_users"),
			},
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.HighRiskNonAdmins) != 0 {
		t.Fatalf("administrators must be exempt, got %+v", result.HighRiskNonAdmins)
	}
	if len(result.DirectUserCaps) != 0 {
		t.Fatalf("role flags are not direct caps, got %+v", result.DirectUserCaps)
	}
}

func TestRunSkipsVanishedUsers(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber": role("Subscriber", "read"),
		},
		ids: []int64{1, 2},
		users: map[int64]*snapshot.User{
			2: {
				ID:            2,
				Login:         "dave",
				Email:         "dave@example.test",
				Roles:         []string{"subscriber"},
				Caps:          capMap("subscriber", "legacyplugin_access"),
				EffectiveCaps: capMap("read", "legacyplugin_access"),
			},
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("a vanished user must not abort the run: %v", err)
	}
	if len(result.DirectUserCaps) != 1 || result.DirectUserCaps[0].ID != 2 {
		t.Fatalf("expected only user 2 in direct records, got %+v", result.DirectUserCaps)
	}
	if !reflect.DeepEqual(result.OrphanCaps, []string{"legacyplugin_access"}) {
		t.Fatalf("orphan_caps = %v, want [legacyplugin_access]", result.OrphanCaps)
	}
}

func TestRunEmptyUserPopulation(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber": role("Subscriber", "read"),
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.DirectUserCaps) != 0 || len(result.HighRiskNonAdmins) != 0 {
		t.Fatal("no users means no user findings")
	}

	summary := result.Summary()
	if summary.DirectCapUsers != 0 || summary.HighRiskNonAdmins != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber":   role("Subscriber", "read", "pluginx_beta", "pluginx_alpha"),
			"shop_manager": role("Shop Manager", "read", "shopplugin_manage_orders"),
		},
		ids: []int64{3},
		users: map[int64]*snapshot.User{
			3: {
				ID:            3,
				Login:         "carol",
				Email:         "carol@example.test",
				Roles:         []string{"shop_manager"},
				Caps:          capMap("shop_manager", "pluginx_beta"),
				EffectiveCaps: capMap("read", "pluginx_beta"),
			},
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	first, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated runs over the same snapshot must produce identical results")
	}
	if !reflect.DeepEqual(first.OrphanCaps, []string{"pluginx_alpha", "pluginx_beta", "shopplugin_manage_orders"}) {
		t.Fatalf("orphan_caps = %v, not sorted and deduplicated", first.OrphanCaps)
	}
	if !sortedAscending(first.AllCapsSeen) {
		t.Fatalf("all_caps_seen not sorted: %v", first.AllCapsSeen)
	}
}

func TestRunRolelessUserEncodesEmptyRoleList(t *testing.T) {
	src := &stubSource{
		roles: map[string]snapshot.Role{
			"subscriber": role("Subscriber", "read"),
		},
		ids: []int64{9},
		users: map[int64]*snapshot.User{
			9: {
				ID:            9,
				Login:         "stray",
				Email:         "stray@example.test",
				Roles:         nil,
				Caps:          capMap("manage_options"),
				EffectiveCaps: capMap("manage_options"),
			},
		},
	}
	engine := NewEngine(quietLogger(), src, nil)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.DirectUserCaps) != 1 || len(result.HighRiskNonAdmins) != 1 {
		t.Fatalf("expected one direct and one high-risk record, got %+v", result)
	}

	raw, err := json.Marshal(result.DirectUserCaps[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"roles":[]`) {
		t.Fatalf("roles must encode as an empty array, got %s", raw)
	}
	raw, err = json.Marshal(result.HighRiskNonAdmins[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"roles":[]`) {
		t.Fatalf("roles must encode as an empty array, got %s", raw)
	}
}

func sortedAscending(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}
