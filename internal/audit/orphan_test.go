package audit

import (
	"reflect"
	"testing"
)

func TestCapPrefix(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"plugin_custom_cap", "plugin"},
		{"unfiltered_html", "unfiltered"},
		{"weirdcap", "misc"},
		{"_hidden", "misc"},
		{"a_b", "a"},
	}
	for _, tc := range cases {
		if got := capPrefix(tc.name); got != tc.want {
			t.Errorf("capPrefix(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGroupByPrefix(t *testing.T) {
	caps := []string{
		"shopplugin_view_reports",
		"shopplugin_manage_orders",
		"gallery_upload",
		"weirdcap",
		"gallery_delete",
		"_hidden",
	}

	groups := GroupByPrefix(caps)

	want := []PrefixGroup{
		{Prefix: "gallery", Caps: []string{"gallery_delete", "gallery_upload"}},
		{Prefix: "misc", Caps: []string{"_hidden", "weirdcap"}},
		{Prefix: "shopplugin", Caps: []string{"shopplugin_manage_orders", "shopplugin_view_reports"}},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Fatalf("groups = %+v, want %+v", groups, want)
	}
}

func TestGroupByPrefixOrdersByCountThenName(t *testing.T) {
	caps := []string{
		"big_one",
		"big_two",
		"big_three",
		"small_one",
	}

	groups := GroupByPrefix(caps)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0].Prefix != "big" || groups[1].Prefix != "small" {
		t.Fatalf("larger groups must come first: %+v", groups)
	}
}

func TestGroupByPrefixEmpty(t *testing.T) {
	if groups := GroupByPrefix(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}
