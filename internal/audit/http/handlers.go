package audithttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/platform/httpx"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/view"
)

// capSampleSize limits how many custom-role capabilities the table shows.
const capSampleSize = 14

// AuditService runs the capability audit.
type AuditService interface {
	Run(ctx context.Context) (*audit.Result, error)
}

// Exporter serializes audit results for download.
type Exporter interface {
	ExportJSON(result *audit.Result) ([]byte, error)
}

// RBACService resolves permissions for the current operator.
type RBACService interface {
	EffectivePermissions(ctx context.Context, operatorID int64) ([]string, error)
}

// Handler serves the audit screen and the JSON export.
type Handler struct {
	logger    *slog.Logger
	engine    AuditService
	exporter  Exporter
	templates *view.Engine
	rbac      RBACService
	csrf      *shared.CSRFManager
}

// NewHandler constructs an audit handler.
func NewHandler(logger *slog.Logger, engine AuditService, templates *view.Engine, exporter Exporter, rbac RBACService, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		engine:    engine,
		exporter:  exporter,
		templates: templates,
		rbac:      rbac,
		csrf:      csrf,
	}
}

// DriftRow pairs a role key with its drift record for table rendering.
type DriftRow struct {
	Key string
	audit.RoleDrift
}

// CustomRow pairs a role key with its custom-role record plus a trimmed
// capability sample.
type CustomRow struct {
	Key    string
	Sample string
	audit.CustomRole
}

// ViewModel is everything the audit page needs. No additional computation
// happens template-side.
type ViewModel struct {
	Error        string
	Summary      audit.Summary
	HighRisk     []audit.HighRiskRecord
	Direct       []audit.DirectCapRecord
	Drift        []DriftRow
	Custom       []CustomRow
	OrphanGroups []audit.PrefixGroup
}

func (h *Handler) handleScreen(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.authorize(r.Context(), sess, shared.PermAuditView); err != nil {
		h.respondAuthError(w, err)
		return
	}

	var vm ViewModel
	result, err := h.engine.Run(r.Context())
	switch {
	case errors.Is(err, shared.ErrHostUnavailable):
		// Render a distinct banner rather than empty tables.
		vm = ViewModel{Error: err.Error()}
	case err != nil:
		h.handleServerError(w, "run audit", err)
		return
	default:
		vm = buildViewModel(result)
	}

	csrfToken := ""
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Capability Drift Audit",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/audit.html", data); err != nil {
		h.handleServerError(w, "render audit screen", err)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.authorize(r.Context(), sess, shared.PermAuditExport); err != nil {
		h.respondAuthError(w, err)
		return
	}

	result, err := h.engine.Run(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrHostUnavailable) {
			httpx.Problem(w, http.StatusServiceUnavailable, "Host Unavailable", err.Error())
			return
		}
		h.handleServerError(w, "run audit for export", err)
		return
	}

	payload, err := h.exporter.ExportJSON(result)
	if err != nil {
		h.handleServerError(w, "encode export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="capability-drift-audit.json"`)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("write export", slog.Any("error", err))
	}
}

func buildViewModel(result *audit.Result) ViewModel {
	drift := make([]DriftRow, 0, len(result.RoleDrift))
	for key, record := range result.RoleDrift {
		drift = append(drift, DriftRow{Key: key, RoleDrift: record})
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].Key < drift[j].Key })

	custom := make([]CustomRow, 0, len(result.CustomRoles))
	for key, record := range result.CustomRoles {
		custom = append(custom, CustomRow{Key: key, Sample: capSample(record.Caps), CustomRole: record})
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Key < custom[j].Key })

	return ViewModel{
		Summary:      result.Summary(),
		HighRisk:     result.HighRiskNonAdmins,
		Direct:       result.DirectUserCaps,
		Drift:        drift,
		Custom:       custom,
		OrphanGroups: audit.GroupByPrefix(result.OrphanCaps),
	}
}

func capSample(caps []string) string {
	if len(caps) <= capSampleSize {
		return strings.Join(caps, ", ")
	}
	return strings.Join(caps[:capSampleSize], ", ") + ", ..."
}

func (h *Handler) authorize(ctx context.Context, sess *shared.Session, perm string) error {
	if h.rbac == nil {
		return fmt.Errorf("audit: rbac not configured")
	}
	if sess == nil {
		return errPermissionDenied
	}
	rawID := strings.TrimSpace(sess.User())
	if rawID == "" {
		return errPermissionDenied
	}
	operatorID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return errPermissionDenied
	}
	perms, err := h.rbac.EffectivePermissions(ctx, operatorID)
	if err != nil {
		return err
	}
	required := strings.ToLower(strings.TrimSpace(perm))
	for _, granted := range perms {
		if strings.EqualFold(granted, required) {
			return nil
		}
	}
	return errPermissionDenied
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, errPermissionDenied) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	h.handleServerError(w, "authorize", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

var errPermissionDenied = errors.New("audit: permission denied")
