package advisor

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	domain "github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	catalogsvc "github.com/appduka/catalog/internal/app/services/catalog"
	"github.com/appduka/catalog/internal/app/storage/memory"
)

type stubGenerator struct {
	prompt string
	reply  string
	err    error
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

var (
	admin  = profile.Identity{ID: "a-1", Role: profile.RoleAdmin}
	member = profile.Identity{ID: "u-1", Role: profile.RoleUser}
)

func newAdvisor(t *testing.T, gen TextGenerator) (*Service, *catalogsvc.Service) {
	t.Helper()
	catalog := catalogsvc.New(memory.New(), nil, nil)
	return New(gen, catalog, nil), catalog
}

func seedApp(t *testing.T, catalog *catalogsvc.Service, name string, approve bool) domain.App {
	t.Helper()
	dev := profile.Identity{ID: "d-1", Role: profile.RoleDev}
	app, err := catalog.Create(context.Background(), dev, domain.App{
		Name: name, IconURL: "i", APKURL: "a",
		Category: "tools", ShortDescription: "chombo", FullDescription: "chombo kizuri",
	})
	if err != nil {
		t.Fatalf("seed app: %v", err)
	}
	if approve {
		if _, err := catalog.SetStatus(context.Background(), admin, app.ID, domain.StatusApproved); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	return app
}

func TestAnalyzeSubmissionAdminOnly(t *testing.T) {
	gen := &stubGenerator{reply: "Uchambuzi"}
	svc, catalog := newAdvisor(t, gen)
	app := seedApp(t, catalog, "Duka", false)

	if _, err := svc.AnalyzeSubmission(context.Background(), member, app.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	text, err := svc.AnalyzeSubmission(context.Background(), admin, app.ID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if text != "Uchambuzi" {
		t.Fatalf("unexpected reply %q", text)
	}
	if !strings.Contains(gen.prompt, "- Name: Duka") || !strings.Contains(gen.prompt, "MUST be in Swahili") {
		t.Fatalf("prompt missing app details:\n%s", gen.prompt)
	}
}

func TestRecommendUsesVisibleCatalog(t *testing.T) {
	gen := &stubGenerator{reply: "Jaribu Duka Dash"}
	svc, catalog := newAdvisor(t, gen)
	seedApp(t, catalog, "Visible App", true)
	seedApp(t, catalog, "Hidden App", false)

	text, err := svc.Recommend(context.Background(), member, "nataka programu ya duka")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if text != "Jaribu Duka Dash" {
		t.Fatalf("unexpected reply %q", text)
	}
	if !strings.Contains(gen.prompt, "Jina: Visible App") {
		t.Fatalf("approved app missing from prompt:\n%s", gen.prompt)
	}
	if strings.Contains(gen.prompt, "Hidden App") {
		t.Fatalf("pending app leaked into prompt:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, `User's request: "nataka programu ya duka"`) {
		t.Fatalf("query missing from prompt:\n%s", gen.prompt)
	}
}

func TestRecommendValidation(t *testing.T) {
	svc, _ := newAdvisor(t, &stubGenerator{})
	if _, err := svc.Recommend(context.Background(), member, "   "); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for blank query, got %v", err)
	}
}

func TestNoBackendConfigured(t *testing.T) {
	svc, catalog := newAdvisor(t, nil)
	app := seedApp(t, catalog, "Duka", false)

	if _, err := svc.AnalyzeSubmission(context.Background(), admin, app.ID); apperrors.KindOf(err) != apperrors.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := svc.Recommend(context.Background(), member, "habari"); apperrors.KindOf(err) != apperrors.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
