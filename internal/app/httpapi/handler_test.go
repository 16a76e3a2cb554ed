package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/appduka/catalog/internal/app"
	authsvc "github.com/appduka/catalog/internal/app/services/auth"
	"github.com/appduka/catalog/internal/middleware"
)

type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	provider := authsvc.NewMemoryProvider()
	application := app.New(app.Stores{}, app.Options{AuthProvider: provider}, nil)

	h, err := New(application, nil, Config{}, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	authMW := middleware.NewAuthMiddleware(
		middleware.ResolverFunc(provider.ResolveSession),
		application.Stores.Profiles, nil,
	)
	return &harness{t: t, handler: authMW.Handler(h)}
}

func marshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (h *harness) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) signUp(email string) (token, userID string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/auth/signup", "", marshal(map[string]string{
		"email": email, "password": "hunter2",
	}))
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("signup %s: expected 201, got %d: %s", email, rec.Code, rec.Body)
	}
	var out struct {
		Session struct {
			AccessToken string `json:"access_token"`
			UserID      string `json:"user_id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		h.t.Fatalf("decode signup response: %v", err)
	}
	return out.Session.AccessToken, out.Session.UserID
}

func TestCatalogLifecycle(t *testing.T) {
	h := newHarness(t)

	adminToken, _ := h.signUp("admin@example.com")
	devToken, devID := h.signUp("dev@example.com")

	// Promote the second account to developer.
	rec := h.do(http.MethodPut, "/profiles/"+devID+"/role", adminToken, marshal(map[string]string{"role": "developer"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("set role: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	// Submit an app as the developer.
	rec = h.do(http.MethodPost, "/apps", devToken, marshal(map[string]any{
		"name": "Duka Dash", "version": "1.0.0", "category": "shopping",
		"icon_url": "https://x/icon.png", "apk_url": "https://x/app.apk",
		"short_description": "duka", "full_description": "duka kubwa",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create app: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Status != "pending" {
		t.Fatalf("new submission should be pending, got %q", created.Status)
	}

	// Visitors see nothing while the app is pending.
	rec = h.do(http.MethodGet, "/apps", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() == "" {
		t.Fatalf("public listing: %d", rec.Code)
	}
	var listing []map[string]any
	json.Unmarshal(rec.Body.Bytes(), &listing)
	if len(listing) != 0 {
		t.Fatalf("pending app leaked to visitors: %v", listing)
	}

	// Approve and check it appears.
	rec = h.do(http.MethodPut, "/apps/"+created.ID+"/status", adminToken, marshal(map[string]string{"status": "approved"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	rec = h.do(http.MethodGet, "/apps", "", nil)
	json.Unmarshal(rec.Body.Bytes(), &listing)
	if len(listing) != 1 {
		t.Fatalf("approved app missing from public listing: %v", listing)
	}

	// A user reviews it; the aggregate shows up on the entry.
	userToken, _ := h.signUp("fan@example.com")
	rec = h.do(http.MethodPost, "/apps/"+created.ID+"/reviews", userToken, marshal(map[string]any{
		"rating": 4, "comment": "nzuri sana",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit review: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	rec = h.do(http.MethodGet, "/apps/"+created.ID, "", nil)
	var entry struct {
		AverageRating float64 `json:"average_rating"`
		ReviewCount   int     `json:"review_count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &entry)
	if entry.AverageRating != 4 || entry.ReviewCount != 1 {
		t.Fatalf("aggregate not reflected: %+v", entry)
	}

	// Reviews carry the reviewer email.
	rec = h.do(http.MethodGet, "/apps/"+created.ID+"/reviews", "", nil)
	var reviews []struct {
		UserEmail string `json:"user_email"`
	}
	json.Unmarshal(rec.Body.Bytes(), &reviews)
	if len(reviews) != 1 || reviews[0].UserEmail != "fan@example.com" {
		t.Fatalf("unexpected reviews payload: %s", rec.Body)
	}

	// Delete it as the developer.
	rec = h.do(http.MethodDelete, "/apps/"+created.ID, devToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", rec.Code, rec.Body)
	}
	rec = h.do(http.MethodGet, "/apps/"+created.ID, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestUpdateRejectsImmutableFields(t *testing.T) {
	h := newHarness(t)
	adminToken, _ := h.signUp("admin@example.com")

	rec := h.do(http.MethodPost, "/apps", adminToken, marshal(map[string]any{
		"name": "Duka", "icon_url": "i", "apk_url": "a",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	for _, field := range []string{"id", "status", "created_at", "average_rating"} {
		rec = h.do(http.MethodPatch, "/apps/"+created.ID, adminToken, []byte(fmt.Sprintf(`{"%s":"x"}`, field)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("patch with %q: expected 400, got %d", field, rec.Code)
		}
	}

	rec = h.do(http.MethodPatch, "/apps/"+created.ID, adminToken, marshal(map[string]string{"version": "2.0.0"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("legit patch: expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestFileUploadRoundTrip(t *testing.T) {
	h := newHarness(t)
	adminToken, _ := h.signUp("admin@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("owner", "Duka Dash")
	part, _ := mw.CreateFormFile("file", "icon.png")
	part.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var out struct {
		URL string `json:"url"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.URL == "" {
		t.Fatal("no url returned")
	}

	rec = h.do(http.MethodDelete, "/files", adminToken, marshal(map[string]string{"url": out.URL}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete file: expected 204, got %d", rec.Code)
	}
	// Deleting again stays a no-op 204.
	rec = h.do(http.MethodDelete, "/files", adminToken, marshal(map[string]string{"url": out.URL}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("repeat delete: expected 204, got %d", rec.Code)
	}
}

func TestAuditTrailAdminOnly(t *testing.T) {
	h := newHarness(t)
	adminToken, _ := h.signUp("admin@example.com")
	userToken, _ := h.signUp("user@example.com")

	rec := h.do(http.MethodPost, "/apps", adminToken, marshal(map[string]any{
		"name": "Duka", "icon_url": "i", "apk_url": "a",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}

	if rec = h.do(http.MethodGet, "/admin/audit", userToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("audit as user: expected 403, got %d", rec.Code)
	}
	if rec = h.do(http.MethodGet, "/admin/audit", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("audit as visitor: expected 403, got %d", rec.Code)
	}

	rec = h.do(http.MethodGet, "/admin/audit", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit as admin: expected 200, got %d", rec.Code)
	}
	var entries []struct {
		Action string `json:"action"`
	}
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) == 0 || entries[len(entries)-1].Action != "app.create" {
		t.Fatalf("expected app.create entry, got %s", rec.Body)
	}
}

func TestAuthEndpoints(t *testing.T) {
	h := newHarness(t)
	token, _ := h.signUp("admin@example.com")

	rec := h.do(http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me.Email != "admin@example.com" || me.Role != "admin" {
		t.Fatalf("unexpected profile: %+v", me)
	}

	if rec = h.do(http.MethodGet, "/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me as visitor: expected 401, got %d", rec.Code)
	}

	if rec = h.do(http.MethodPost, "/auth/logout", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if rec = h.do(http.MethodGet, "/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}

	rec = h.do(http.MethodPost, "/auth/login", "", marshal(map[string]string{
		"email": "admin@example.com", "password": "hunter2",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = h.do(http.MethodPost, "/auth/reset", "", marshal(map[string]string{"email": "admin@example.com"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("reset: expected 202, got %d", rec.Code)
	}
}

func TestRecommendationWithoutBackend(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/ai/recommendation", "", marshal(map[string]string{"query": "nataka gemu"}))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 without a text backend, got %d: %s", rec.Code, rec.Body)
	}
}
