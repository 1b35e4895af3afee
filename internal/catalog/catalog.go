// Package catalog assembles the per-application documents of the dictionary
// from the probe-info service and its auxiliary metadata sources.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mozilla/glean-dictionary/internal/annotations"
	"github.com/mozilla/glean-dictionary/internal/autoevents"
	"github.com/mozilla/glean-dictionary/internal/expiry"
	"github.com/mozilla/glean-dictionary/internal/fetch"
	"github.com/mozilla/glean-dictionary/internal/glean"
	"github.com/mozilla/glean-dictionary/internal/sampling"
	"github.com/mozilla/glean-dictionary/internal/search"
	"github.com/mozilla/glean-dictionary/internal/xref"
)

// Sources locates the auxiliary metadata documents.
type Sources struct {
	AnnotationsURL   string
	NamespacesURL    string
	ReleasesURL      string
	ExperimentsURL   string
	SchemasURL       string
	SchemasBrowseURL string
}

// DefaultSources returns the public locations of every source.
func DefaultSources() Sources {
	return Sources{
		AnnotationsURL:   annotations.DefaultIndexURL,
		NamespacesURL:    xref.DefaultNamespacesURL,
		ReleasesURL:      expiry.DefaultReleasesURL,
		ExperimentsURL:   sampling.DefaultExperimentsURL,
		SchemasURL:       xref.DefaultSchemasURL,
		SchemasBrowseURL: xref.DefaultSchemasBrowseURL,
	}
}

// Config holds configuration for catalog generation
type Config struct {
	Sources Sources

	// AppNames restricts the build to these application names. Empty means
	// every application.
	AppNames []string
}

// Emitter receives generated files at slash-separated relative paths.
type Emitter interface {
	WriteFile(rel string, data []byte) error
	WriteJSON(rel string, v any) error
	MkdirAll(rel string) error
}

// Progress is told about each application group as it is processed.
type Progress interface {
	Start(total int)
	Advance(label string)
	Finish()
}

type noProgress struct{}

func (noProgress) Start(int)      {}
func (noProgress) Advance(string) {}
func (noProgress) Finish()        {}

// Generator orchestrates catalog generation for one run.
type Generator struct {
	config   *Config
	cache    *fetch.Cache
	repo     *glean.Repository
	events   autoevents.Source
	logger   *zap.Logger
	progress Progress

	eventsOnce sync.Once
	eventRows  []autoevents.Row
}

// NewGenerator creates a generator. events may be nil, in which case no
// automatic events are documented.
func NewGenerator(config *Config, cache *fetch.Cache, repo *glean.Repository, events autoevents.Source, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config:   config,
		cache:    cache,
		repo:     repo,
		events:   events,
		logger:   logger,
		progress: noProgress{},
	}
}

// SetProgress installs a progress reporter.
func (g *Generator) SetProgress(p Progress) {
	if p == nil {
		p = noProgress{}
	}
	g.progress = p
}

// metadata is the auxiliary metadata shared by every application group.
type metadata struct {
	annotations annotations.Index
	namespaces  xref.Namespaces
	releases    *expiry.Releases
	sampling    sampling.Index
}

func (g *Generator) loadMetadata(ctx context.Context) (*metadata, error) {
	src := g.config.Sources
	md := &metadata{}

	body, err := g.cache.Bytes(ctx, src.AnnotationsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch annotations: %w", err)
	}
	if md.annotations, err = annotations.ParseIndex(body); err != nil {
		return nil, err
	}

	if body, err = g.cache.Bytes(ctx, src.NamespacesURL); err != nil {
		return nil, fmt.Errorf("failed to fetch looker namespaces: %w", err)
	}
	if md.namespaces, err = xref.ParseNamespaces(body); err != nil {
		return nil, err
	}

	if body, err = g.cache.Bytes(ctx, src.ReleasesURL); err != nil {
		return nil, fmt.Errorf("failed to fetch release history: %w", err)
	}
	if md.releases, err = expiry.ParseReleases(body); err != nil {
		return nil, err
	}

	if body, err = g.cache.Bytes(ctx, src.ExperimentsURL); err != nil {
		return nil, fmt.Errorf("failed to fetch experiments: %w", err)
	}
	experiments, err := sampling.ParseExperiments(body)
	if err != nil {
		return nil, err
	}
	md.sampling = sampling.Build(experiments)

	return md, nil
}

// autoEventRows returns the observed automatic events, queried at most once
// per run. A failing query documents no automatic events.
func (g *Generator) autoEventRows(ctx context.Context) []autoevents.Row {
	g.eventsOnce.Do(func() {
		if g.events == nil {
			return
		}
		rows, err := g.events.Rows(ctx)
		if err != nil {
			g.logger.Warn("Skipping automatic events", zap.Error(err))
			return
		}
		g.eventRows = rows
	})
	return g.eventRows
}

// Generate writes the catalog: per-application documents to data and the
// search functions to functions.
func (g *Generator) Generate(ctx context.Context, data, functions Emitter) error {
	md, err := g.loadMetadata(ctx)
	if err != nil {
		return err
	}

	apps, err := g.repo.Apps(ctx)
	if err != nil {
		return err
	}
	groups := groupApps(filterApps(apps, g.config.AppNames), g.logger)

	g.progress.Start(len(groups))
	summaries := make([]AppSummary, 0, len(groups))
	for _, group := range groups {
		g.logger.Info("Processing app",
			zap.String("app_name", group.name()),
			zap.Int("app_ids", len(group.apps)))

		b := newGroupBuilder(g, md, group, data)
		summary, metricDocs, err := b.build(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", group.name(), err)
		}
		summaries = append(summaries, summary)

		if err := writeSearch(functions, group.name(), metricDocs); err != nil {
			return fmt.Errorf("%s: %w", group.name(), err)
		}
		g.progress.Advance(group.name())
	}
	g.progress.Finish()

	sortAppSummaries(summaries)
	if err := data.WriteJSON("apps.json", summaries); err != nil {
		return err
	}
	return functions.WriteJSON("supported_glam_metric_types.json", xref.SupportedGLAMTypes())
}

// writeSearch renders the search function of an application, plus the
// combined search data for desktop.
func writeSearch(functions Emitter, appName string, docs []*metricDoc) error {
	entries := make([]search.Entry, len(docs))
	for i, d := range docs {
		entries[i] = search.Entry{
			Name:        d.fields.Name,
			Type:        d.typ,
			Description: d.fields.Description,
			Expires:     d.fields.Expires,
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var buf bytes.Buffer
	if err := search.Render(&buf, entries); err != nil {
		return err
	}
	if err := functions.WriteFile(search.FileName(appName), buf.Bytes()); err != nil {
		return err
	}

	if appName != search.FOGAppName {
		return nil
	}
	buf.Reset()
	if err := search.RenderFOG(&buf, entries); err != nil {
		return err
	}
	return functions.WriteFile(search.FOGFileName, buf.Bytes())
}
