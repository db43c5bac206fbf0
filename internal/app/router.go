package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit/http"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/auth"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/platform/httpx"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/rbac"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/jobs"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	AuditHandler   *audithttp.Handler
	JobHandler     *jobs.Handler
	RBAC           *rbac.Middleware
}

// NewRouter constructs the chi.Router for the auditor.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/audit", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.AuditHandler != nil {
		params.AuditHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		// Queue state is operator-only.
		r.Route("/jobs", func(jr chi.Router) {
			if params.RBAC != nil {
				jr.Use(params.RBAC.RequireAny(shared.PermAuditView))
			}
			params.JobHandler.MountRoutes(jr)
		})
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
