// Package files manages the object lifecycle of catalog assets: icons, APKs
// and screenshots. Uploads are namespaced per entry name and timestamped so
// successive versions never collide; deletions are best-effort because a
// missing object must never block a catalog operation.
package files

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/appduka/catalog/internal/errors"

	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/logging"
	"github.com/appduka/catalog/internal/metrics"
)

// Service uploads and removes stored objects and resolves their public URLs.
type Service struct {
	objects storage.ObjectStore
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New creates a file service over the given object store. metrics may be nil.
func New(objects storage.ObjectStore, log *logging.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logging.NewDefault("files")
	}
	return &Service{objects: objects, log: log, metrics: m}
}

// now is swapped in tests to pin the upload token.
var now = time.Now

// SanitizeOwner folds an entry name into a path segment: lowercase, with
// every non-alphanumeric rune collapsed to an underscore.
func SanitizeOwner(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// ObjectPath builds the bucket path for a new upload:
// <sanitized owner>/<millisecond timestamp>_<filename>.
func ObjectPath(owner, filename string) string {
	return fmt.Sprintf("%s/%d_%s", SanitizeOwner(owner), now().UnixMilli(), filename)
}

// Upload stores data under an owner-scoped, timestamped path and returns the
// public URL of the new object.
func (s *Service) Upload(ctx context.Context, owner, filename string, data []byte, contentType string) (string, error) {
	if filename == "" {
		return "", apperrors.Validation("filename is required")
	}
	if len(data) == 0 {
		return "", apperrors.Validation("file is empty")
	}

	path := ObjectPath(owner, filename)
	if err := s.objects.Upload(ctx, path, data, contentType); err != nil {
		return "", err
	}
	s.log.WithFields(map[string]any{"path": path, "bytes": len(data)}).Debug("object uploaded")
	return s.objects.PublicURL(path), nil
}

// DeleteByURL removes the object a public URL points at. Unparseable URLs and
// already-missing objects are silently ignored; real backend failures are
// logged and counted but never propagated. Callers therefore cannot be
// blocked by orphaned files.
func (s *Service) DeleteByURL(ctx context.Context, url string) {
	if url == "" {
		return
	}
	path, ok := objectPathFromURL(url)
	if !ok {
		s.log.WithField("url", url).Debug("skipping unrecognized file url")
		return
	}

	err := s.objects.Remove(ctx, path)
	if err == nil || err == storage.ErrObjectNotFound {
		return
	}
	s.log.WithError(err).WithField("path", path).Warn("file cleanup failed")
	if s.metrics != nil {
		s.metrics.RecordCleanupFailure("object")
	}
}

// DeleteAllByURL removes every object in urls, each independently
// best-effort.
func (s *Service) DeleteAllByURL(ctx context.Context, urls []string) {
	for _, u := range urls {
		s.DeleteByURL(ctx, u)
	}
}

// objectPathFromURL extracts the bucket-relative object path from a public
// storage URL. The path is everything after the bucket name, which follows
// the "public" segment.
func objectPathFromURL(url string) (string, bool) {
	const marker = "/object/public/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", false
	}
	rest := url[idx+len(marker):]
	// rest is "<bucket>/<path...>".
	slash := strings.IndexByte(rest, '/')
	if slash < 0 || slash == len(rest)-1 {
		return "", false
	}
	return rest[slash+1:], true
}
