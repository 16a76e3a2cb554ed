// Package httpapi exposes the catalog application over REST.
package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/appduka/catalog/internal/errors"

	app "github.com/appduka/catalog/internal/app"
	catalogdom "github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/logging"
	"github.com/appduka/catalog/internal/metrics"
	"github.com/appduka/catalog/internal/middleware"
)

// maxUploadBytes bounds a single file upload (APKs included).
const maxUploadBytes = 100 << 20

// Config carries the handler's own settings.
type Config struct {
	// AuditLogPath mirrors the audit trail to a JSONL file when set.
	AuditLogPath string
	// AuditMax bounds the in-memory audit trail; 0 means the default.
	AuditMax int
}

// Handler bundles the HTTP endpoints for the application services.
type Handler struct {
	app     *app.Application
	metrics *metrics.Metrics
	audit   *auditLog
	log     *logging.Logger
	router  *mux.Router
}

// New builds the REST handler. metrics may be nil.
func New(application *app.Application, m *metrics.Metrics, cfg Config, log *logging.Logger) (*Handler, error) {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	sink, err := newFileAuditSink(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		app:     application,
		metrics: m,
		audit:   newAuditLog(cfg.AuditMax, sink),
		log:     log,
		router:  mux.NewRouter(),
	}
	h.routes()
	return h, nil
}

// Router exposes the underlying router so callers can attach middleware.
func (h *Handler) Router() *mux.Router { return h.router }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.router

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/auth/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.signIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.signOut).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset", h.sendRecovery).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", h.me).Methods(http.MethodGet)

	r.HandleFunc("/apps", h.listApps).Methods(http.MethodGet)
	r.HandleFunc("/apps", h.createApp).Methods(http.MethodPost)
	r.HandleFunc("/apps/{id}", h.getApp).Methods(http.MethodGet)
	r.HandleFunc("/apps/{id}", h.updateApp).Methods(http.MethodPatch)
	r.HandleFunc("/apps/{id}", h.deleteApp).Methods(http.MethodDelete)
	r.HandleFunc("/apps/{id}/status", h.setAppStatus).Methods(http.MethodPut)
	r.HandleFunc("/apps/{id}/reviews", h.listAppReviews).Methods(http.MethodGet)
	r.HandleFunc("/apps/{id}/reviews", h.submitReview).Methods(http.MethodPost)

	r.HandleFunc("/users/{id}/reviews", h.listUserReviews).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.deleteAccount).Methods(http.MethodDelete)

	r.HandleFunc("/files", h.uploadFile).Methods(http.MethodPost)
	r.HandleFunc("/files", h.deleteFile).Methods(http.MethodDelete)

	r.HandleFunc("/profiles", h.listProfiles).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{id}", h.updateProfile).Methods(http.MethodPatch)
	r.HandleFunc("/profiles/{id}/role", h.setRole).Methods(http.MethodPut)

	r.HandleFunc("/ai/analysis/{id}", h.analyzeApp).Methods(http.MethodPost)
	r.HandleFunc("/ai/recommendation", h.recommend).Methods(http.MethodPost)

	r.HandleFunc("/admin/audit", h.listAudit).Methods(http.MethodGet)
}

func (h *Handler) record(who profile.Identity, action, entityID, detail string) {
	h.audit.add(auditEntry{
		User:     who.ID,
		Role:     string(who.Role),
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	})
}

// RecordExternalChange feeds an out-of-band backend change into the audit
// trail, e.g. from a realtime subscription.
func (h *Handler) RecordExternalChange(action, entityID, detail string) {
	h.audit.add(auditEntry{User: "backend", Action: action, EntityID: entityID, Detail: detail})
}

// --- health -----------------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth -------------------------------------------------------------------

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var payload credentialsRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, p, err := h.app.Auth.SignUp(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": sess, "profile": p})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var payload credentialsRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, p, err := h.app.Auth.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "profile": p})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendRecovery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Auth.SendRecovery(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	if who.IsVisitor() {
		writeError(w, apperrors.Unauthorized("sign in to view your profile"))
		return
	}
	p, err := h.app.Profiles.Get(r.Context(), who, who.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- catalog ----------------------------------------------------------------

type createAppRequest struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	Category         string   `json:"category"`
	Size             string   `json:"size"`
	IconURL          string   `json:"icon_url"`
	APKURL           string   `json:"apk_url"`
	ShortDescription string   `json:"short_description"`
	FullDescription  string   `json:"full_description"`
	Screenshots      []string `json:"screenshots"`
}

func (h *Handler) listApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.app.Catalog.List(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) createApp(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	var payload createAppRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.app.Catalog.Create(r.Context(), who, catalogdom.App{
		Name:             payload.Name,
		Version:          payload.Version,
		Category:         payload.Category,
		Size:             payload.Size,
		IconURL:          payload.IconURL,
		APKURL:           payload.APKURL,
		ShortDescription: payload.ShortDescription,
		FullDescription:  payload.FullDescription,
		Screenshots:      payload.Screenshots,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "app.create", created.ID, created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getApp(w http.ResponseWriter, r *http.Request) {
	entry, err := h.app.Catalog.Get(r.Context(), middleware.IdentityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) updateApp(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	// Immutable and derived fields are absent from Update, so the strict
	// decoder rejects edits that try to touch them.
	var upd catalogdom.Update
	if err := decodeJSON(r.Body, &upd); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.app.Catalog.Update(r.Context(), who, id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "app.update", id, "")
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteApp(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.app.Catalog.Delete(r.Context(), who, id); err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "app.delete", id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setAppStatus(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.app.Catalog.SetStatus(r.Context(), who, id, catalogdom.Status(payload.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "app.status", id, payload.Status)
	writeJSON(w, http.StatusOK, updated)
}

// --- reviews ----------------------------------------------------------------

func (h *Handler) listAppReviews(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	// Reviews are public exactly when the app is visible to the caller.
	if _, err := h.app.Catalog.Get(r.Context(), who, id); err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.app.Reviews.ListForApp(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	var payload struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	// The app must exist and be visible before a review is accepted.
	if _, err := h.app.Catalog.Get(r.Context(), who, id); err != nil {
		writeError(w, err)
		return
	}

	rev, err := h.app.Reviews.Submit(r.Context(), who, id, payload.Rating, payload.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *Handler) listUserReviews(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	reviews, err := h.app.Reviews.ListForUser(r.Context(), who, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// --- files ------------------------------------------------------------------

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	if !who.Can(profile.CapManageEntries) {
		writeError(w, apperrors.Forbidden("only developers and admins can upload files"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, apperrors.Validation("invalid multipart upload"))
		return
	}

	owner := r.FormValue("owner")
	if owner == "" {
		writeError(w, apperrors.Validation("owner is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.Validation("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.Validation("could not read upload"))
		return
	}

	url, err := h.app.Files.Upload(r.Context(), owner, header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	if !who.Can(profile.CapManageEntries) {
		writeError(w, apperrors.Forbidden("only developers and admins can delete files"))
		return
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	// Best-effort by contract: a missing or foreign URL is not an error.
	h.app.Files.DeleteByURL(r.Context(), payload.URL)
	w.WriteHeader(http.StatusNoContent)
}

// --- profiles ---------------------------------------------------------------

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.app.Profiles.List(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())

	var payload struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.app.Profiles.UpdateUsername(r.Context(), who, mux.Vars(r)["id"], payload.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	var payload struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.app.Profiles.SetRole(r.Context(), who, id, profile.Role(payload.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "profile.role", id, payload.Role)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.app.Profiles.Delete(r.Context(), who, id); err != nil {
		writeError(w, err)
		return
	}
	h.record(who, "account.delete", id, "")
	w.WriteHeader(http.StatusNoContent)
}

// --- advisory ---------------------------------------------------------------

func (h *Handler) analyzeApp(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	text, err := h.app.Advisor.AnalyzeSubmission(r.Context(), who, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": text})
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, err)
		return
	}
	text, err := h.app.Advisor.Recommend(r.Context(), middleware.IdentityFrom(r.Context()), payload.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recommendation": text})
}

// --- audit ------------------------------------------------------------------

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	who := middleware.IdentityFrom(r.Context())
	if !who.Can(profile.CapManageProfiles) {
		writeError(w, apperrors.Forbidden("only admins can read the audit trail"))
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	writeJSON(w, http.StatusOK, h.audit.listLimit(limit))
}
