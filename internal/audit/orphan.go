package audit

import (
	"sort"
	"strings"
)

// miscPrefix groups orphan capabilities that carry no usable prefix.
const miscPrefix = "misc"

// PrefixGroup is a display bucket of orphan capabilities sharing a naming
// prefix.
type PrefixGroup struct {
	Prefix string   `json:"prefix"`
	Caps   []string `json:"caps"`
}

// sortedOrphans flattens the pending orphan set into a deduplicated,
// lexicographically sorted list.
func sortedOrphans(pending map[string]struct{}) []string {
	caps := make([]string, 0, len(pending))
	for name := range pending {
		caps = append(caps, name)
	}
	sort.Strings(caps)
	return caps
}

// GroupByPrefix buckets orphan capabilities by the substring before their
// first underscore. Capabilities with no underscore, or starting with one,
// fall back to "misc". Groups are ordered by descending member count with
// ascending prefix name as the tie-break, and each group's members are
// sorted.
func GroupByPrefix(caps []string) []PrefixGroup {
	buckets := make(map[string][]string)
	for _, name := range caps {
		prefix := capPrefix(name)
		buckets[prefix] = append(buckets[prefix], name)
	}

	groups := make([]PrefixGroup, 0, len(buckets))
	for prefix, members := range buckets {
		sort.Strings(members)
		groups = append(groups, PrefixGroup{Prefix: prefix, Caps: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Caps) != len(groups[j].Caps) {
			return len(groups[i].Caps) > len(groups[j].Caps)
		}
		return groups[i].Prefix < groups[j].Prefix
	})
	return groups
}

func capPrefix(name string) string {
	prefix, _, found := strings.Cut(name, "_")
	if !found || prefix == "" {
		return miscPrefix
	}
	return prefix
}
