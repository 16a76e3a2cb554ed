package app

import (
	advisorsvc "github.com/appduka/catalog/internal/app/services/advisor"
	authsvc "github.com/appduka/catalog/internal/app/services/auth"
	catalogsvc "github.com/appduka/catalog/internal/app/services/catalog"
	"github.com/appduka/catalog/internal/app/services/files"
	"github.com/appduka/catalog/internal/app/services/profiles"
	"github.com/appduka/catalog/internal/app/services/reviews"
	"github.com/appduka/catalog/internal/app/storage"
	"github.com/appduka/catalog/internal/app/storage/memory"
	"github.com/appduka/catalog/internal/logging"
	"github.com/appduka/catalog/internal/metrics"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Catalog  storage.CatalogStore
	Reviews  storage.ReviewStore
	Profiles storage.ProfileStore
	Objects  storage.ObjectStore
}

// Options carries the optional external dependencies of an Application.
type Options struct {
	// AuthProvider is the identity backend. Nil defaults to the in-memory
	// provider, which only makes sense for local runs and tests.
	AuthProvider authsvc.Provider
	// TextGenerator backs the advisory features; nil disables them.
	TextGenerator advisorsvc.TextGenerator
	// Metrics receives cleanup-failure counters; optional.
	Metrics *metrics.Metrics
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Stores Stores

	Files    *files.Service
	Catalog  *catalogsvc.Service
	Reviews  *reviews.Service
	Profiles *profiles.Service
	Auth     *authsvc.Service
	Advisor  *advisorsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) *Application {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Catalog == nil {
		stores.Catalog = mem
	}
	if stores.Reviews == nil {
		stores.Reviews = mem
	}
	if stores.Profiles == nil {
		stores.Profiles = mem
	}
	if stores.Objects == nil {
		stores.Objects = memory.NewObjectStore("memory://app_files/storage/v1/object/public/app_files")
	}
	if opts.AuthProvider == nil {
		opts.AuthProvider = authsvc.NewMemoryProvider()
	}

	fileSvc := files.New(stores.Objects, log, opts.Metrics)
	catalogService := catalogsvc.New(stores.Catalog, fileSvc, log)
	reviewService := reviews.New(stores.Reviews, log)
	profileService := profiles.New(stores.Profiles, log)
	authService := authsvc.New(opts.AuthProvider, profileService, log)
	advisorService := advisorsvc.New(opts.TextGenerator, catalogService, log)

	return &Application{
		log:      log,
		Stores:   stores,
		Files:    fileSvc,
		Catalog:  catalogService,
		Reviews:  reviewService,
		Profiles: profileService,
		Auth:     authService,
		Advisor:  advisorService,
	}
}
