// Package catalog implements the catalog entry operations: listing and
// reading with visibility rules, submission, partial edits, moderation and
// deletion with file cleanup.
package catalog

import (
	"context"
	"sync"

	apperrors "github.com/appduka/catalog/internal/errors"

	domain "github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/app/services/files"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/logging"
)

// Service exposes the catalog operations with role enforcement applied.
type Service struct {
	store storage.CatalogStore
	files *files.Service
	log   *logging.Logger
}

// New creates the catalog service.
func New(store storage.CatalogStore, fileSvc *files.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("catalog")
	}
	return &Service{store: store, files: fileSvc, log: log}
}

// List returns the entries visible to the caller. Readers without the
// unpublished-visibility capability only see approved entries.
func (s *Service) List(ctx context.Context, who profile.Identity) ([]domain.App, error) {
	apps, err := s.store.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	if who.Can(profile.CapViewUnpublished) {
		return apps, nil
	}
	visible := make([]domain.App, 0, len(apps))
	for _, app := range apps {
		if app.Status == domain.StatusApproved {
			visible = append(visible, app)
		}
	}
	return visible, nil
}

// Get returns one entry. Unpublished entries are indistinguishable from
// missing ones for callers that may not see them.
func (s *Service) Get(ctx context.Context, who profile.Identity, id string) (domain.App, error) {
	app, err := s.store.GetApp(ctx, id)
	if err != nil {
		return domain.App{}, err
	}
	if app.Status != domain.StatusApproved && !who.Can(profile.CapViewUnpublished) {
		return domain.App{}, apperrors.NotFound("app")
	}
	return app, nil
}

// Create submits a new entry. Every submission enters moderation as pending
// regardless of what the caller supplied.
func (s *Service) Create(ctx context.Context, who profile.Identity, app domain.App) (domain.App, error) {
	if !who.Can(profile.CapManageEntries) {
		return domain.App{}, apperrors.Forbidden("only developers and admins can submit apps")
	}
	if app.Name == "" {
		return domain.App{}, apperrors.Validation("name is required")
	}
	if app.IconURL == "" {
		return domain.App{}, apperrors.Validation("icon is required")
	}
	if app.APKURL == "" {
		return domain.App{}, apperrors.Validation("apk is required")
	}

	app.ID = ""
	app.Status = domain.StatusPending
	created, err := s.store.CreateApp(ctx, app)
	if err != nil {
		return domain.App{}, err
	}
	s.log.WithFields(map[string]any{"app_id": created.ID, "name": created.Name}).Info("app submitted")
	return created, nil
}

// Update applies a partial edit. The record is persisted first; files the
// edit replaced are removed afterwards, best-effort, so a cleanup failure can
// only orphan an object, never break a reference the record still holds.
func (s *Service) Update(ctx context.Context, who profile.Identity, id string, upd domain.Update) (domain.App, error) {
	if !who.Can(profile.CapManageEntries) {
		return domain.App{}, apperrors.Forbidden("only developers and admins can edit apps")
	}

	before, err := s.store.GetApp(ctx, id)
	if err != nil {
		return domain.App{}, err
	}

	updated, err := s.store.UpdateApp(ctx, id, upd)
	if err != nil {
		return domain.App{}, err
	}

	if s.files != nil {
		s.files.DeleteAllByURL(ctx, replacedURLs(before, updated))
	}
	return updated, nil
}

// SetStatus moves an entry through moderation.
func (s *Service) SetStatus(ctx context.Context, who profile.Identity, id string, status domain.Status) (domain.App, error) {
	if !who.Can(profile.CapSetEntryStatus) {
		return domain.App{}, apperrors.Forbidden("only admins can moderate apps")
	}
	if !status.Valid() {
		return domain.App{}, apperrors.Validation("status must be pending, approved or rejected")
	}
	app, err := s.store.SetAppStatus(ctx, id, status)
	if err != nil {
		return domain.App{}, err
	}
	s.log.WithFields(map[string]any{"app_id": id, "status": string(status)}).Info("app status changed")
	return app, nil
}

// Delete removes an entry and its stored files. The files go first,
// concurrently and best-effort; only the record delete can fail the call.
func (s *Service) Delete(ctx context.Context, who profile.Identity, id string) error {
	if !who.Can(profile.CapManageEntries) {
		return apperrors.Forbidden("only developers and admins can delete apps")
	}

	app, err := s.store.GetApp(ctx, id)
	if err != nil {
		return err
	}

	if s.files != nil {
		urls := append([]string{app.IconURL, app.APKURL}, app.Screenshots...)
		var wg sync.WaitGroup
		for _, u := range urls {
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				s.files.DeleteByURL(ctx, u)
			}(u)
		}
		wg.Wait()
	}

	if err := s.store.DeleteApp(ctx, id); err != nil {
		return err
	}
	s.log.WithField("app_id", id).Info("app deleted")
	return nil
}

// replacedURLs lists file URLs the edit displaced: any icon, APK or
// screenshot URL present before that the updated record no longer
// references.
func replacedURLs(before, after domain.App) []string {
	kept := make(map[string]bool, len(after.Screenshots)+2)
	kept[after.IconURL] = true
	kept[after.APKURL] = true
	for _, u := range after.Screenshots {
		kept[u] = true
	}

	var gone []string
	for _, u := range append([]string{before.IconURL, before.APKURL}, before.Screenshots...) {
		if u != "" && !kept[u] {
			gone = append(gone, u)
		}
	}
	return gone
}
