package catalog

import (
	"context"
	"testing"

	apperrors "github.com/appduka/catalog/internal/errors"

	domain "github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/services/files"
	"github.com/appduka/catalog/internal/app/storage/memory"
)

const bucketBase = "https://files.test/storage/v1/object/public/app_files"

var (
	visitor = profile.Identity{}
	member  = profile.Identity{ID: "u-1", Email: "user@example.com", Role: profile.RoleUser}
	dev     = profile.Identity{ID: "d-1", Email: "dev@example.com", Role: profile.RoleDev}
	admin   = profile.Identity{ID: "a-1", Email: "admin@example.com", Role: profile.RoleAdmin}
)

func newService(t *testing.T) (*Service, *memory.Store, *memory.ObjectStore) {
	t.Helper()
	store := memory.New()
	objects := memory.NewObjectStore(bucketBase)
	svc := New(store, files.New(objects, nil, nil), nil)
	return svc, store, objects
}

func mustCreate(t *testing.T, svc *Service, app domain.App) domain.App {
	t.Helper()
	if app.IconURL == "" {
		app.IconURL = bucketBase + "/x/1_icon.png"
	}
	if app.APKURL == "" {
		app.APKURL = bucketBase + "/x/1_app.apk"
	}
	created, err := svc.Create(context.Background(), dev, app)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return created
}

func TestCreateForcesPendingStatus(t *testing.T) {
	svc, _, _ := newService(t)
	created := mustCreate(t, svc, domain.App{Name: "Duka", Status: domain.StatusApproved})
	if created.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", created.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []domain.App{
		{IconURL: "i", APKURL: "a"},           // no name
		{Name: "Duka", APKURL: "a"},           // no icon
		{Name: "Duka", IconURL: "i"},          // no apk
	}
	for i, app := range cases {
		if _, err := svc.Create(ctx, dev, app); apperrors.KindOf(err) != apperrors.KindValidation {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}

	if _, err := svc.Create(ctx, member, domain.App{Name: "Duka", IconURL: "i", APKURL: "a"}); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, domain.App{Name: "Pending App"})
	b := mustCreate(t, svc, domain.App{Name: "Approved App"})
	if _, err := svc.SetStatus(ctx, admin, b.ID, domain.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	public, err := svc.List(ctx, visitor)
	if err != nil {
		t.Fatalf("list as visitor: %v", err)
	}
	if len(public) != 1 || public[0].ID != b.ID {
		t.Fatalf("visitor should only see approved entries, got %+v", public)
	}

	all, err := svc.List(ctx, dev)
	if err != nil {
		t.Fatalf("list as dev: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("dev should see both entries, got %d", len(all))
	}

	if _, err := svc.Get(ctx, member, a.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("pending entry must look missing to users, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, a.ID); err != nil {
		t.Fatalf("admin get pending: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	app := mustCreate(t, svc, domain.App{Name: "Duka"})

	if _, err := svc.SetStatus(ctx, dev, app.ID, domain.StatusApproved); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for dev, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, admin, app.ID, "published"); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	got, err := svc.SetStatus(ctx, admin, app.ID, domain.StatusRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("status not applied: %q", got.Status)
	}
}

func TestUpdateCleansReplacedFiles(t *testing.T) {
	svc, _, objects := newService(t)
	ctx := context.Background()

	objects.Upload(ctx, "duka/1_old.png", []byte("old"), "image/png")
	objects.Upload(ctx, "duka/1_shot.png", []byte("shot"), "image/png")

	app := mustCreate(t, svc, domain.App{
		Name:        "Duka",
		IconURL:     bucketBase + "/duka/1_old.png",
		APKURL:      bucketBase + "/duka/1_app.apk",
		Screenshots: []string{bucketBase + "/duka/1_shot.png"},
	})

	newIcon := bucketBase + "/duka/2_new.png"
	updated, err := svc.Update(ctx, dev, app.ID, domain.Update{IconURL: &newIcon})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IconURL != newIcon {
		t.Fatalf("icon not updated: %q", updated.IconURL)
	}
	if objects.Has("duka/1_old.png") {
		t.Fatal("replaced icon object should be removed")
	}
	if !objects.Has("duka/1_shot.png") {
		t.Fatal("untouched screenshot must survive the edit")
	}
}

func TestDeleteRemovesRecordAndFiles(t *testing.T) {
	svc, store, objects := newService(t)
	ctx := context.Background()

	for _, p := range []string{"duka/1_icon.png", "duka/1_app.apk", "duka/1_s1.png", "duka/1_s2.png"} {
		objects.Upload(ctx, p, []byte("x"), "")
	}
	app := mustCreate(t, svc, domain.App{
		Name:        "Duka",
		IconURL:     bucketBase + "/duka/1_icon.png",
		APKURL:      bucketBase + "/duka/1_app.apk",
		Screenshots: []string{bucketBase + "/duka/1_s1.png", bucketBase + "/duka/1_s2.png"},
	})

	if err := svc.Delete(ctx, member, app.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Fatalf("expected forbidden for plain user, got %v", err)
	}
	if err := svc.Delete(ctx, dev, app.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if objects.Len() != 0 {
		t.Fatalf("expected all objects removed, %d left", objects.Len())
	}
	if _, err := store.GetApp(ctx, app.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("record should be gone, got %v", err)
	}
}

func TestDeleteSurvivesMissingFiles(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	// None of the referenced objects exist; deletion must still succeed.
	app := mustCreate(t, svc, domain.App{Name: "Duka"})
	if err := svc.Delete(ctx, admin, app.ID); err != nil {
		t.Fatalf("delete with missing files: %v", err)
	}
}
