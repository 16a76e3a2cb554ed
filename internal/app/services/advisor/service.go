// Package advisor wraps the generative-text backend for the two advisory
// features: submission analysis for moderators and app recommendations for
// shoppers. The output is informational only and never feeds back into
// catalog state.
package advisor

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/appduka/catalog/internal/errors"

	domain "github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/domain/profile"
	"github.com/appduka/catalog/internal/logging"
)

// TextGenerator produces a free-text reply to a single prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// CatalogReader is the slice of the catalog the advisor needs.
type CatalogReader interface {
	List(ctx context.Context, who profile.Identity) ([]domain.App, error)
	Get(ctx context.Context, who profile.Identity, id string) (domain.App, error)
}

// Service generates advisory text about catalog entries.
type Service struct {
	gen     TextGenerator
	catalog CatalogReader
	log     *logging.Logger
}

// New creates the advisor. gen may be nil when no backend is configured, in
// which case every call reports the feature unavailable.
func New(gen TextGenerator, catalog CatalogReader, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("advisor")
	}
	return &Service{gen: gen, catalog: catalog, log: log}
}

// AnalyzeSubmission produces a moderation summary of one entry, in Swahili.
// Admin only, matching who can act on the analysis.
func (s *Service) AnalyzeSubmission(ctx context.Context, who profile.Identity, appID string) (string, error) {
	if !who.Can(profile.CapSetEntryStatus) {
		return "", apperrors.Forbidden("only admins can request submission analysis")
	}
	if s.gen == nil {
		return "", apperrors.Unavailable("ai analysis", fmt.Errorf("no text backend configured"))
	}

	app, err := s.catalog.Get(ctx, who, appID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are an expert app store reviewer for a Swahili app store. Analyze the following app submission based on its metadata.
Provide a concise summary for an administrator, highlighting potential strengths, weaknesses, and any red flags (e.g., vague description, suspicious category, mismatch between name and description).
The response MUST be in Swahili.

App Details:
- Name: %s
- Category: %s
- Short Description: %s
- Full Description: %s

Your analysis:`, app.Name, app.Category, app.ShortDescription, app.FullDescription)

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Warn("analysis generation failed")
		return "", apperrors.Unavailable("ai analysis", err)
	}
	return text, nil
}

// Recommend answers a shopper's free-text request with suggestions drawn
// from the entries the caller can see.
func (s *Service) Recommend(ctx context.Context, who profile.Identity, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperrors.Validation("query is required")
	}
	if s.gen == nil {
		return "", apperrors.Unavailable("ai recommendation", fmt.Errorf("no text backend configured"))
	}

	apps, err := s.catalog.List(ctx, who)
	if err != nil {
		return "", err
	}

	var info strings.Builder
	for _, app := range apps {
		fmt.Fprintf(&info, "- Jina: %s, Maelezo: %s (Kategoria: %s)\n", app.Name, app.ShortDescription, app.Category)
	}

	prompt := fmt.Sprintf(`You are a friendly AI assistant for a Swahili app store called "App Duka". Help users find the best app for their needs.
The response MUST be in Swahili. Be conversational and helpful.

Available apps:
%s

User's request: "%s"

Recommend suitable apps from the list. Explain why. If no app fits, politely say so.`, strings.TrimRight(info.String(), "\n"), query)

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Warn("recommendation generation failed")
		return "", apperrors.Unavailable("ai recommendation", err)
	}
	return text, nil
}
