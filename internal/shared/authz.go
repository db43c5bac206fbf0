package shared

// Operator permissions. The audit screen is read-only, so viewing and
// exporting are the only gates the application knows about.
const (
	PermAuditView   = "audit.view"
	PermAuditExport = "audit.export"
)

// AuditScopes lists all permissions related to the audit surface.
func AuditScopes() []string {
	return []string{
		PermAuditView,
		PermAuditExport,
	}
}
