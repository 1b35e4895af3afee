package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"go.uber.org/zap"

	"github.com/mozilla/glean-dictionary/internal/annotations"
	"github.com/mozilla/glean-dictionary/internal/autoevents"
	"github.com/mozilla/glean-dictionary/internal/expiry"
	"github.com/mozilla/glean-dictionary/internal/glean"
	"github.com/mozilla/glean-dictionary/internal/output"
	gdstrings "github.com/mozilla/glean-dictionary/internal/util/strings"
	"github.com/mozilla/glean-dictionary/internal/xref"
)

// Sub directories of an application directory.
const (
	appIDsDir  = "app_ids"
	pingsDir   = "pings"
	tablesDir  = "tables"
	metricsDir = "metrics"
)

// Destination pings with a fixed place in a metric's ping list.
var sendInPingsPriority = map[string]int{"metrics": 0, "deletion-request": 2}

type pingEntry struct {
	ping     *glean.Ping
	overlay  annotations.Overlay
	variants []PingVariant
}

// summary is the ping as listed in the app index.
func (e *pingEntry) summary() (object, error) {
	def, err := pingDefinition(e.ping)
	if err != nil {
		return nil, err
	}
	variants := e.variants
	if variants == nil {
		variants = []PingVariant{}
	}
	return flatten(def, pingSummaryFields{
		Tags:            e.overlay.Tags,
		Variants:        variants,
		HasAnnotation:   e.overlay.HasAnnotation,
		IncludeClientID: e.ping.IncludeClientID(),
	})
}

type metricEntry struct {
	metric  *glean.Metric
	summary MetricSummary
	doc     *metricDoc
}

// groupBuilder produces the documents of one application group.
type groupBuilder struct {
	gen   *Generator
	md    *metadata
	group *appGroup
	out   Emitter

	annotation annotations.Annotation
	vocabulary map[string]string
	appTags    []string

	pings       []*pingEntry
	pingsByID   map[string]*pingEntry
	metrics     []*metricEntry
	metricsByID map[string]*metricEntry
	docs        []*metricDoc
}

func newGroupBuilder(gen *Generator, md *metadata, group *appGroup, out Emitter) *groupBuilder {
	return &groupBuilder{
		gen:         gen,
		md:          md,
		group:       group,
		out:         out,
		annotation:  md.annotations.App(group.name()),
		vocabulary:  md.annotations.Vocabulary(group.name()),
		pingsByID:   make(map[string]*pingEntry),
		metricsByID: make(map[string]*metricEntry),
	}
}

func (b *groupBuilder) file(parts ...string) string {
	return path.Join(append([]string{b.group.name()}, parts...)...)
}

// build writes every document of the group and returns its summary and its
// full metric documents.
func (b *groupBuilder) build(ctx context.Context) (AppSummary, []*metricDoc, error) {
	for _, dir := range []string{appIDsDir, pingsDir, tablesDir, metricsDir} {
		if err := b.out.MkdirAll(b.file(dir)); err != nil {
			return AppSummary{}, nil, err
		}
	}

	summary := b.group.summary
	summary.AppOverlay = annotations.IncorporateApp(b.group.name(), b.annotation, false)
	b.appTags = summary.AppTags
	if b.appTags == nil {
		b.appTags = []string{}
	}

	if b.annotation.Logo != "" {
		if err := b.writeLogo(ctx); err != nil {
			return AppSummary{}, nil, err
		}
	}

	variant := func(app glean.App) xref.Variant {
		return xref.Variant{App: app, GroupSize: len(b.group.apps)}
	}

	for _, app := range b.group.apps {
		if err := b.addAppID(ctx, app, variant(app)); err != nil {
			return AppSummary{}, nil, fmt.Errorf("%s: %w", app.AppID, err)
		}
	}

	if err := b.writePings(); err != nil {
		return AppSummary{}, nil, err
	}

	listings := make([]listing, 0, len(b.metrics))
	for _, m := range b.metrics {
		listings = append(listings, m.summary)
	}
	listings = append(listings, b.addAutoEvents(ctx)...)

	for _, doc := range b.docs {
		sortVariantsForUsers(doc.fields.Variants, func(v MetricVariant) string { return v.Channel })
		if err := b.out.WriteJSON(b.file(metricsDir, output.MetricFileName(doc.fields.Name)), doc); err != nil {
			return AppSummary{}, nil, err
		}
	}

	if err := b.writeIndex(summary, listings); err != nil {
		return AppSummary{}, nil, err
	}
	return summary, b.docs, nil
}

func (b *groupBuilder) writeLogo(ctx context.Context) error {
	body, err := b.gen.cache.Bytes(ctx, b.annotation.Logo)
	if err != nil {
		return fmt.Errorf("failed to fetch logo: %w", err)
	}
	return b.out.WriteFile(b.file(annotations.LogoFilename(b.annotation.Logo)), body)
}

// addAppID merges one app id into the group: its tags, registry record,
// pings, tables and metrics.
func (b *groupBuilder) addAppID(ctx context.Context, app glean.App, v xref.Variant) error {
	tags, err := b.gen.repo.Tags(ctx, app)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if b.vocabulary[tag.ID] == "" {
			b.vocabulary[tag.ID] = tag.Description
		}
	}

	record, err := flatten(app, struct {
		AppTags []string `json:"app_tags"`
	}{b.appTags})
	if err != nil {
		return err
	}
	if err := b.out.WriteJSON(b.file(appIDsDir, output.AppIDFileName(app.AppID)), record); err != nil {
		return err
	}

	pings, err := b.gen.repo.Pings(ctx, app)
	if err != nil {
		return err
	}
	withClientID := make(map[string]bool)
	for _, p := range pings {
		entry, err := b.addPing(ctx, app, v, p)
		if err != nil {
			return err
		}
		if entry.ping.IncludeClientID() {
			withClientID[entry.ping.ID] = true
		}
	}

	metrics, err := b.gen.repo.Metrics(ctx, app)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		if err := b.addMetric(app, v, m, withClientID); err != nil {
			return err
		}
	}
	return nil
}

func (b *groupBuilder) addPing(ctx context.Context, app glean.App, v xref.Variant, p *glean.Ping) (*pingEntry, error) {
	entry, seen := b.pingsByID[p.ID]
	if !seen {
		entry = &pingEntry{
			ping:    p,
			overlay: annotations.Incorporate(p.Tags(), b.md.annotations.Ping(p.Origin, p.ID), false),
		}
		b.pingsByID[p.ID] = entry
		b.pings = append(b.pings, entry)
	}

	stable := xref.StableTableName(app.BQDatasetFamily, p.ID)
	pv := PingVariant{
		ID:          app.AppID,
		Description: app.ChannelLabel(),
		Table:       stable,
		Channel:     app.Channel(),
	}
	if !app.Deprecated {
		pv.LookerExplore = b.md.namespaces.ExploreForPing(v, p.ID)
	}
	entry.variants = append(entry.variants, pv)

	schemaPath := xref.SchemaPath(app.DocumentNamespace, p.ID)
	table := TableDoc{
		BQDefinition:     xref.SchemaURL(b.gen.config.Sources.SchemasBrowseURL, schemaPath),
		BQSchema:         b.schema(ctx, app, xref.SchemaURL(b.gen.config.Sources.SchemasURL, schemaPath)),
		LiveTable:        xref.LiveTableName(app.BQDatasetFamily, p.ID),
		Name:             p.ID,
		StableTable:      stable,
		AppID:            app.AppID,
		CanonicalAppName: app.CanonicalAppName,
		AppTags:          b.appTags,
	}
	rel := b.file(tablesDir, gdstrings.ResourcePath(app.AppID), output.PingFileName(p.ID))
	if err := b.out.WriteJSON(rel, table); err != nil {
		return nil, err
	}
	return entry, nil
}

// schema fetches a generated BigQuery schema. Missing or unreadable schemas
// are published as null.
func (b *groupBuilder) schema(ctx context.Context, app glean.App, rawURL string) json.RawMessage {
	body, err := b.gen.cache.Bytes(ctx, rawURL)
	if err == nil && !json.Valid(body) {
		err = fmt.Errorf("invalid JSON schema at %s", rawURL)
	}
	if err != nil {
		b.gen.logger.Warn("Missing BigQuery schema",
			zap.String("app_id", app.AppID),
			zap.Error(err))
		return json.RawMessage("null")
	}
	return body
}

func (b *groupBuilder) addMetric(app glean.App, v xref.Variant, m *glean.Metric, withClientID map[string]bool) error {
	entry, seen := b.metricsByID[m.ID]
	if !seen {
		var err error
		if entry, err = b.newMetricEntry(app, m); err != nil {
			return err
		}
		b.metricsByID[m.ID] = entry
		b.metrics = append(b.metrics, entry)
		b.docs = append(b.docs, entry.doc)
	}

	pingData := make(map[string]PingETL, len(m.SendInPings()))
	for _, ping := range m.SendInPings() {
		looker, err := b.md.namespaces.MetricLink(v, m, ping, withClientID[ping])
		if err != nil {
			return fmt.Errorf("metric %s: %w", m.ID, err)
		}
		pingData[ping] = PingETL{
			BigQueryTable: xref.StableTableName(app.BQDatasetFamily, ping),
			Looker:        looker,
			GLAMLink:      xref.GLAM(app.AppID, m, ping),
		}
	}

	entry.doc.fields.Variants = append(entry.doc.fields.Variants, MetricVariant{
		ID:          app.AppID,
		Channel:     app.Channel(),
		Description: app.ChannelLabel(),
		ETL: ETL{
			PingData:           pingData,
			BigQueryColumnName: xref.ColumnName(m),
		},
	})
	return nil
}

// newMetricEntry builds the summary and full document of a metric from the
// first app id that defines it.
func (b *groupBuilder) newMetricEntry(app glean.App, m *glean.Metric) (*metricEntry, error) {
	appName := b.group.name()
	ann := b.md.annotations.Metric(m.Origin, m.ID)
	def := m.Definition

	sampleInfo, sampledText := b.md.sampling.ForMetric(appName, m.ID, def.Disabled)
	expires := expiry.Mapped(def.Expires, appName, b.md.releases)
	expiryText := expiry.Text(def.Expires, appName, b.md.releases)
	latest := b.md.releases.Latest()

	summary := MetricSummary{
		Name:                   m.ID,
		Description:            m.Description(),
		InSource:               m.InSource,
		LatestFxReleaseVersion: latest,
		ExtraKeys:              def.ExtraKeys,
		Type:                   m.Type(),
		Expires:                expires,
		ExpiryText:             expiryText,
		Sampled:                sampleInfo != nil,
		SampledText:            sampledText,
		IsPartOfInfoSection:    m.BQPrefix == "client_info",
		Overlay:                annotations.Incorporate(m.Tags(), ann, false),
	}
	if m.Origin != appName {
		summary.Origin = m.Origin
	}

	definition, err := metricDefinition(m)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", m.ID, err)
	}
	full := annotations.Incorporate(m.Tags(), ann, true)
	doc := &metricDoc{
		definition: definition,
		typ:        m.Type(),
		fields: metricFields{
			Name:                   m.ID,
			Description:            m.Description(),
			Tags:                   annotations.ExpandTags(full.Tags, b.vocabulary),
			SendInPings:            sortSendInPings(m.SendInPings()),
			RepoURL:                app.URL,
			Variants:               []MetricVariant{},
			Expires:                expires,
			LatestFxReleaseVersion: latest,
			ExpiryText:             expiryText,
			CanonicalAppName:       app.CanonicalAppName,
			AppTags:                b.appTags,
			SamplingInfo:           sampleInfo,
			HasAnnotation:          full.HasAnnotation,
			Commentary:             full.Commentary,
			Warning:                full.Warning,
		},
	}
	if m.IsEvent() {
		category, name := xref.EventNameAndCategory(m.ID)
		doc.fields.EventInfo = &EventInfo{Name: name, Category: category}
	}

	return &metricEntry{metric: m, summary: summary, doc: doc}, nil
}

// sortSendInPings orders pings by name, with metrics first and
// deletion-request last.
func sortSendInPings(pings []string) []string {
	out := append([]string{}, pings...)
	sort.Strings(out)
	sort.SliceStable(out, func(i, j int) bool {
		return pingRank(out[i]) < pingRank(out[j])
	})
	return out
}

func pingRank(ping string) int {
	if rank, ok := sendInPingsPriority[ping]; ok {
		return rank
	}
	return 1
}

// addAutoEvents documents the automatic events of an application that
// records element clicks or page loads. Each event's document is cloned from
// the base metric it is recorded by.
func (b *groupBuilder) addAutoEvents(ctx context.Context) []listing {
	click := b.metricsByID[autoevents.ElementClickMetric]
	load := b.metricsByID[autoevents.PageLoadMetric]
	if click == nil && load == nil {
		return nil
	}

	var listings []listing
	for _, event := range autoevents.ForApp(b.group.name(), b.gen.autoEventRows(ctx)) {
		base := click
		if base == nil || (event.BaseMetric() == autoevents.PageLoadMetric && load != nil) {
			base = load
		}

		doc := base.doc.clone()
		doc.fields.Name = event.Name
		doc.fields.Description = event.Description
		if doc.fields.EventInfo == nil {
			doc.fields.EventInfo = &EventInfo{}
		}
		doc.fields.EventInfo.IsAuto = event.EventInfo.IsAuto
		doc.fields.EventInfo.AutoEventID = event.EventInfo.AutoEventID

		b.docs = append(b.docs, doc)
		listings = append(listings, autoEventSummary{event})
	}
	return listings
}

func (b *groupBuilder) writePings() error {
	for _, e := range b.pings {
		sortVariantsForUsers(e.variants, func(v PingVariant) string { return v.Channel })

		summary, err := e.summary()
		if err != nil {
			return fmt.Errorf("ping %s: %w", e.ping.ID, err)
		}

		members := []pingMember{}
		for _, m := range b.metrics {
			if e.ping.Carries(m.metric) {
				members = append(members, pingMember{MetricSummary: m.summary, Pings: m.metric.SendInPings()})
			}
		}

		full := annotations.Incorporate(e.ping.Tags(), b.md.annotations.Ping(e.ping.Origin, e.ping.ID), true)
		doc, err := flatten(summary, pingFields{
			Metrics:          members,
			TagDescriptions:  b.vocabulary,
			CanonicalAppName: b.group.summary.CanonicalAppName,
			AppTags:          b.appTags,
			HasAnnotation:    full.HasAnnotation,
			Commentary:       full.Commentary,
			Warning:          full.Warning,
			Tags:             annotations.ExpandTags(full.Tags, b.vocabulary),
		})
		if err != nil {
			return fmt.Errorf("ping %s: %w", e.ping.ID, err)
		}
		if err := b.out.WriteJSON(b.file(pingsDir, output.PingFileName(e.ping.ID)), doc); err != nil {
			return err
		}
	}
	return nil
}

func (b *groupBuilder) writeIndex(summary AppSummary, listings []listing) error {
	index := AppIndex{AppSummary: summary}
	index.AppOverlay = annotations.IncorporateApp(b.group.name(), b.annotation, true)

	pings := append([]*pingEntry(nil), b.pings...)
	sort.SliceStable(pings, func(i, j int) bool {
		return pings[i].ping.ID < pings[j].ping.ID
	})
	index.Pings = make([]object, 0, len(pings))
	for _, e := range pings {
		s, err := e.summary()
		if err != nil {
			return fmt.Errorf("ping %s: %w", e.ping.ID, err)
		}
		index.Pings = append(index.Pings, s)
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].listingName() < listings[j].listingName()
	})
	index.Metrics = make([]any, len(listings))
	for i, l := range listings {
		index.Metrics[i] = l
	}

	index.Tags = b.tagSummaries()
	return b.out.WriteJSON(b.file("index.json"), index)
}

// tagSummaries counts, for every tag of the vocabulary, the listed metrics
// carrying it.
func (b *groupBuilder) tagSummaries() []TagSummary {
	tags := make([]TagSummary, 0, len(b.vocabulary))
	for name, description := range b.vocabulary {
		count := 0
		for _, m := range b.metrics {
			for _, t := range m.summary.Tags {
				if t == name {
					count++
					break
				}
			}
		}
		tags = append(tags, TagSummary{Name: name, Description: description, MetricCount: count})
	}
	sortTags(tags)
	return tags
}
