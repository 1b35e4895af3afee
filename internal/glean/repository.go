package glean

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mozilla/glean-dictionary/internal/fetch"
)

// DefaultProbeInfoURL is the public probe-scraper output.
const DefaultProbeInfoURL = "https://probeinfo.telemetry.mozilla.org"

// Repository reads applications and their definitions from the probe-info
// service. All documents go through the run's fetch cache.
type Repository struct {
	cache             *fetch.Cache
	baseURL           string
	defaultDependency Library
	logger            *zap.Logger
}

// NewRepository creates a repository rooted at baseURL.
func NewRepository(cache *fetch.Cache, baseURL string, defaultDependency Library, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		cache:             cache,
		baseURL:           strings.TrimRight(baseURL, "/"),
		defaultDependency: defaultDependency,
		logger:            logger,
	}
}

func (r *Repository) appsURL() string {
	return r.baseURL + "/v2/glean/app-listings"
}

func (r *Repository) librariesURL() string {
	return r.baseURL + "/v2/glean/library-variants"
}

func (r *Repository) documentURL(v1Name, kind string) string {
	return fmt.Sprintf("%s/glean/%s/%s", r.baseURL, v1Name, kind)
}

// Apps returns every registered application id in registry order.
func (r *Repository) Apps(ctx context.Context) ([]App, error) {
	body, err := r.cache.Bytes(ctx, r.appsURL())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch app listings: %w", err)
	}
	var apps []App
	if err := json.Unmarshal(body, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode app listings: %w", err)
	}
	return apps, nil
}

// Libraries returns the library catalog.
func (r *Repository) Libraries(ctx context.Context) ([]Library, error) {
	var libraries []Library
	if err := r.cache.JSON(ctx, r.librariesURL(), &libraries); err != nil {
		return nil, fmt.Errorf("failed to fetch library variants: %w", err)
	}
	return libraries, nil
}

// Dependencies returns the libraries app draws definitions from, in the order
// its dependency manifest declares them. It never fails: when the manifest
// cannot be read or names no known library, the default dependency is used.
func (r *Repository) Dependencies(ctx context.Context, app App) []Library {
	fallback := func(reason string) []Library {
		r.logger.Info("Using default Glean dependencies",
			zap.String("app_id", app.AppID),
			zap.String("reason", reason))
		return []Library{r.defaultDependency}
	}

	if app.V1Name == "" {
		return fallback("no v1 name")
	}

	body, err := r.cache.Bytes(ctx, r.documentURL(app.V1Name, "dependencies"))
	if err != nil {
		return fallback(err.Error())
	}
	names, err := manifestKeys(body)
	if err != nil {
		return fallback(err.Error())
	}

	libraries, err := r.Libraries(ctx)
	if err != nil {
		return fallback(err.Error())
	}
	byDependencyName := make(map[string]Library, len(libraries))
	for _, lib := range libraries {
		byDependencyName[lib.DependencyName] = lib
	}

	var deps []Library
	for _, name := range names {
		if lib, ok := byDependencyName[name]; ok {
			deps = append(deps, lib)
		}
	}
	if len(deps) == 0 {
		return fallback("no known dependencies")
	}

	libraryNames := make([]string, len(deps))
	for i, d := range deps {
		libraryNames[i] = d.LibraryName
	}
	r.logger.Info("Found Glean dependencies",
		zap.String("app_id", app.AppID),
		zap.Strings("libraries", libraryNames))
	return deps
}

// manifest fetches and parses one manifest document.
func (r *Repository) manifest(ctx context.Context, v1Name, kind string) ([]Entry, error) {
	body, err := r.cache.Bytes(ctx, r.documentURL(v1Name, kind))
	if err != nil {
		return nil, err
	}
	return ParseManifest(body)
}

// layered gathers the app's own entries of kind followed by each dependency's,
// stamped with their origins, and merges them. A dependency that cannot be
// fetched is skipped; one that is fetched but malformed fails the call.
func (r *Repository) layered(ctx context.Context, app App, deps []Library, kind string) ([]Entry, error) {
	own, err := r.manifest(ctx, app.V1Name, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for %s: %w", kind, app.AppID, err)
	}
	entries := withOrigin(own, app.AppName)

	for _, dep := range deps {
		if dep.V1Name == "" {
			continue
		}
		body, err := r.cache.Bytes(ctx, r.documentURL(dep.V1Name, kind))
		if err != nil {
			r.logger.Warn("Skipping dependency",
				zap.String("app_id", app.AppID),
				zap.String("library", dep.LibraryName),
				zap.String("kind", kind),
				zap.Error(err))
			continue
		}
		depEntries, err := ParseManifest(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s of %s for %s: %w", kind, dep.LibraryName, app.AppID, err)
		}
		entries = append(entries, withOrigin(depEntries, dep.LibraryName)...)
	}

	return MergeLatest(entries)
}

// Pings returns the merged pings of app in first-insertion order.
func (r *Repository) Pings(ctx context.Context, app App) ([]*Ping, error) {
	entries, err := r.layered(ctx, app, r.Dependencies(ctx, app), "pings")
	if err != nil {
		return nil, err
	}

	pings := make([]*Ping, 0, len(entries))
	for _, e := range entries {
		p, err := NewPing(e.ID, e.Definition)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", app.AppID, err)
		}
		pings = append(pings, p)
	}
	return pings, nil
}

// Metrics returns the merged metrics of app with wildcard destinations
// expanded to the app's complete ping roster.
func (r *Repository) Metrics(ctx context.Context, app App) ([]*Metric, error) {
	deps := r.Dependencies(ctx, app)

	pingEntries, err := r.layered(ctx, app, deps, "pings")
	if err != nil {
		return nil, err
	}
	pingNames := make([]string, len(pingEntries))
	for i, e := range pingEntries {
		pingNames[i] = e.ID
	}

	entries, err := r.layered(ctx, app, deps, "metrics")
	if err != nil {
		return nil, err
	}

	metrics := make([]*Metric, 0, len(entries))
	for _, e := range entries {
		m, err := NewMetric(e.ID, e.Definition, pingNames)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", app.AppID, err)
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// Tags returns the tags declared by app itself. Applications that publish no
// tags document have none.
func (r *Repository) Tags(ctx context.Context, app App) ([]*Tag, error) {
	entries, err := r.manifest(ctx, app.V1Name, "tags")
	if fetch.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags for %s: %w", app.AppID, err)
	}

	tags := make([]*Tag, 0, len(entries))
	for _, e := range entries {
		t, err := NewTag(e.ID, e.Definition)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", app.AppID, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}
