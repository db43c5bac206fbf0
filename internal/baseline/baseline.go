// Package baseline holds the reference capability sets the drift engine
// compares against. The data is deliberately conservative: it covers the
// five stock WordPress roles and the capabilities that matter when they
// leak outside the administrator role. Core shifts over time and plugins
// add meta capabilities, so the goal is catching obvious drift, not
// arguing philosophy.
package baseline

// AdministratorRole is the role key whose holders are exempt from
// high-risk flagging.
const AdministratorRole = "administrator"

// Registry supplies the reference data the audit engine needs. The engine
// only ever sees this interface, so tests and forks can substitute their
// own baselines without touching drift logic.
type Registry interface {
	// DefaultBaseline maps known default role keys to their canonical
	// capability lists.
	DefaultBaseline() map[string][]string
	// HighRiskCapabilities lists capabilities that change the site, the
	// codebase, or user accounts.
	HighRiskCapabilities() []string
}

type staticRegistry struct{}

// Default returns the built-in registry.
func Default() Registry {
	return staticRegistry{}
}

func (staticRegistry) DefaultBaseline() map[string][]string {
	subscriber := []string{
		"read",
	}

	contributor := []string{
		"read",
		"edit_posts",
		"delete_posts",
	}

	author := []string{
		"read",
		"edit_posts",
		"delete_posts",
		"publish_posts",
		"upload_files",
		"delete_published_posts",
		"edit_published_posts",
	}

	editor := []string{
		"read",
		"edit_posts",
		"edit_others_posts",
		"edit_published_posts",
		"publish_posts",
		"delete_posts",
		"delete_published_posts",
		"delete_others_posts",
		"manage_categories",
		"moderate_comments",
		"upload_files",
		"edit_pages",
		"edit_others_pages",
		"edit_published_pages",
		"publish_pages",
		"delete_pages",
		"delete_published_pages",
		"delete_others_pages",
		"read_private_pages",
		"read_private_posts",
	}

	// Simplified: real administrators can do more via meta caps and plugin
	// additions. Still, if non-admins start matching this set, there is a
	// problem.
	administrator := []string{
		"read",
		"manage_options",
		"edit_theme_options",
		"customize",
		"activate_plugins",
		"install_plugins",
		"update_plugins",
		"delete_plugins",
		"edit_plugins",
		"upload_plugins",
		"switch_themes",
		"install_themes",
		"update_themes",
		"delete_themes",
		"edit_themes",
		"edit_files",
		"edit_users",
		"create_users",
		"delete_users",
		"promote_users",
		"list_users",
		"remove_users",
		"update_core",
		"export",
		"import",
		"moderate_comments",
		"manage_categories",
		"upload_files",
		"unfiltered_html",
	}

	return map[string][]string{
		"subscriber":      subscriber,
		"contributor":     contributor,
		"author":          author,
		"editor":          editor,
		AdministratorRole: administrator,
	}
}

func (staticRegistry) HighRiskCapabilities() []string {
	// If these exist outside admins, we want to know. Some sites
	// intentionally delegate a few of them. Most do not mean to.
	return []string{
		"manage_options",
		"edit_theme_options",
		"customize",
		"activate_plugins",
		"install_plugins",
		"update_plugins",
		"delete_plugins",
		"edit_plugins",
		"upload_plugins",
		"switch_themes",
		"install_themes",
		"update_themes",
		"delete_themes",
		"edit_themes",
		"edit_files",
		"edit_users",
		"create_users",
		"delete_users",
		"promote_users",
		"list_users",
		"remove_users",
		"update_core",
		"export",
		"import",
		"unfiltered_html",
		"unfiltered_upload",
	}
}

// Union flattens every baseline list in the registry into one membership
// set. A capability missing from this union is an orphan candidate.
func Union(reg Registry) map[string]struct{} {
	union := make(map[string]struct{})
	for _, caps := range reg.DefaultBaseline() {
		for _, name := range caps {
			union[name] = struct{}{}
		}
	}
	return union
}
