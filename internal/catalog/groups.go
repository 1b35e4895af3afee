package catalog

import (
	"sort"

	"go.uber.org/zap"

	"github.com/mozilla/glean-dictionary/internal/glean"
)

// Metric definitions are taken from the first app id in this order, so that
// the latest definitions of pre-release channels win.
var metricChannelPriority = map[string]int{"nightly": 1, "beta": 2, "release": 3, "esr": 4}

// Variants are listed in the order users are most likely to care about.
var userChannelPriority = map[string]int{"release": 1, "beta": 2, "nightly": 3, "esr": 4}

// channelRank ranks channel by priority. Unknown channels rank last.
func channelRank(priority map[string]int, channel string) int {
	if rank, ok := priority[channel]; ok {
		return rank
	}
	return len(priority) + 1
}

// appGroup is every documented app id sharing one application name.
type appGroup struct {
	summary AppSummary
	apps    []glean.App
}

func (g *appGroup) name() string {
	return g.summary.AppName
}

// groupApps groups apps by application name in order of first appearance,
// skipping apps that opt out of documentation. Each group's app ids are
// ordered by metric channel priority, then with deprecated ids last.
func groupApps(apps []glean.App, logger *zap.Logger) []*appGroup {
	var groups []*appGroup
	byName := make(map[string]*appGroup)

	for _, app := range apps {
		if app.SkipDocumentation {
			continue
		}
		if _, known := metricChannelPriority[app.Channel()]; !known {
			logger.Warn("Unknown app channel",
				zap.String("app_id", app.AppID),
				zap.String("channel", app.Channel()))
		}

		g, ok := byName[app.AppName]
		if !ok {
			emails := app.NotificationEmails
			if emails == nil {
				emails = []string{}
			}
			g = &appGroup{summary: AppSummary{
				AppName:            app.AppName,
				AppDescription:     app.AppDescription,
				CanonicalAppName:   app.CanonicalAppName,
				Deprecated:         app.Deprecated,
				URL:                app.URL,
				NotificationEmails: emails,
			}}
			byName[app.AppName] = g
			groups = append(groups, g)
		}
		g.apps = append(g.apps, app)
	}

	for _, g := range groups {
		sort.SliceStable(g.apps, func(i, j int) bool {
			return channelRank(metricChannelPriority, g.apps[i].Channel()) <
				channelRank(metricChannelPriority, g.apps[j].Channel())
		})
		sort.SliceStable(g.apps, func(i, j int) bool {
			return !g.apps[i].Deprecated && g.apps[j].Deprecated
		})

		g.summary.AppIDs = make([]AppIDSummary, len(g.apps))
		prototype := true
		for i, app := range g.apps {
			g.summary.AppIDs[i] = AppIDSummary{
				Name:        app.AppID,
				Description: app.VariantDescription(),
				Channel:     app.Channel(),
				Deprecated:  app.Deprecated,
				Prototype:   app.Prototype,
			}
			prototype = prototype && app.Prototype
		}
		g.summary.Prototype = prototype
	}
	return groups
}

// filterApps keeps the apps whose application name is in names. An empty
// filter keeps everything.
func filterApps(apps []glean.App, names []string) []glean.App {
	if len(names) == 0 {
		return apps
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []glean.App
	for _, app := range apps {
		if wanted[app.AppName] {
			out = append(out, app)
		}
	}
	return out
}

// sortVariantsForUsers orders variants by user channel priority.
func sortVariantsForUsers[T any](variants []T, channel func(T) string) {
	sort.SliceStable(variants, func(i, j int) bool {
		return channelRank(userChannelPriority, channel(variants[i])) <
			channelRank(userChannelPriority, channel(variants[j]))
	})
}

// sortAppSummaries puts featured applications first, then orders by name.
func sortAppSummaries(summaries []AppSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AppName < summaries[j].AppName
	})
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Featured && !summaries[j].Featured
	})
}

// sortTags orders tags by name, with tags used by no metric last.
func sortTags(tags []TagSummary) {
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].MetricCount > 0 && tags[j].MetricCount == 0
	})
}
