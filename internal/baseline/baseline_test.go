package baseline

import "testing"

func TestDefaultBaselineCoversStockRoles(t *testing.T) {
	base := Default().DefaultBaseline()

	wantCounts := map[string]int{
		"subscriber":      1,
		"contributor":     3,
		"author":          7,
		"editor":          20,
		AdministratorRole: 29,
	}
	if len(base) != len(wantCounts) {
		t.Fatalf("baseline has %d roles, want %d", len(base), len(wantCounts))
	}
	for role, want := range wantCounts {
		caps, ok := base[role]
		if !ok {
			t.Errorf("baseline missing role %q", role)
			continue
		}
		if len(caps) != want {
			t.Errorf("%s baseline has %d caps, want %d", role, len(caps), want)
		}
	}
}

func TestBaselineListsHaveNoDuplicates(t *testing.T) {
	for role, caps := range Default().DefaultBaseline() {
		seen := make(map[string]struct{}, len(caps))
		for _, name := range caps {
			if _, dup := seen[name]; dup {
				t.Errorf("%s baseline lists %q twice", role, name)
			}
			seen[name] = struct{}{}
		}
	}
}

func TestHighRiskCapabilities(t *testing.T) {
	risk := Default().HighRiskCapabilities()
	if len(risk) != 26 {
		t.Fatalf("high-risk list has %d entries, want 26", len(risk))
	}

	set := make(map[string]struct{}, len(risk))
	for _, name := range risk {
		set[name] = struct{}{}
	}
	for _, name := range []string{"manage_options", "edit_users", "unfiltered_html", "unfiltered_upload"} {
		if _, ok := set[name]; !ok {
			t.Errorf("high-risk list missing %q", name)
		}
	}
	if _, ok := set["read"]; ok {
		t.Error("read must never be high-risk")
	}
}

func TestUnion(t *testing.T) {
	union := Union(Default())

	for _, name := range []string{"read", "edit_posts", "manage_options", "unfiltered_html"} {
		if _, ok := union[name]; !ok {
			t.Errorf("union missing %q", name)
		}
	}
	// unfiltered_upload is high-risk but not granted by any default role.
	if _, ok := union["unfiltered_upload"]; ok {
		t.Error("union must only contain baseline capabilities")
	}
}
