// Package sampling derives per-metric sampling rates from running
// experiments that configure Glean metrics.
package sampling

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Default experiment sources.
const (
	DefaultExperimentsURL    = "https://experimenter.services.mozilla.com/api/v6/experiments/"
	ExperimenterLinkTemplate = "https://experimenter.services.mozilla.com/nimbus/%s/summary"
)

// NotSampled is the sampled text of metrics no experiment configures.
const NotSampled = "Not sampled"

const gleanFeature = "glean"

// Experiment is the subset of an experimenter record used here.
type Experiment struct {
	Slug               string       `json:"slug"`
	AppName            string       `json:"appName"`
	Channel            string       `json:"channel"`
	FeatureIDs         []string     `json:"featureIds"`
	StartDate          *string      `json:"startDate"`
	EndDate            *string      `json:"endDate"`
	IsEnrollmentPaused bool         `json:"isEnrollmentPaused"`
	Targeting          string       `json:"targeting"`
	BucketConfig       BucketConfig `json:"bucketConfig"`
	Branches           []Branch     `json:"branches"`
}

// BucketConfig is the enrolled share of the population.
type BucketConfig struct {
	Count float64 `json:"count"`
	Total float64 `json:"total"`
}

// Branch is one experiment branch.
type Branch struct {
	Features []Feature `json:"features"`
}

// Feature is one feature configuration within a branch.
type Feature struct {
	FeatureID string `json:"featureId"`
	Value     struct {
		GleanMetricConfiguration map[string]json.RawMessage `json:"gleanMetricConfiguration"`
	} `json:"value"`
}

// ParseExperiments decodes the experimenter list.
func ParseExperiments(data []byte) ([]Experiment, error) {
	var experiments []Experiment
	if err := json.Unmarshal(data, &experiments); err != nil {
		return nil, fmt.Errorf("failed to decode experiments: %w", err)
	}
	return experiments, nil
}

func (e Experiment) active() bool {
	hasGlean := false
	for _, id := range e.FeatureIDs {
		if id == gleanFeature {
			hasGlean = true
			break
		}
	}
	return hasGlean && (e.StartDate != nil || !e.IsEnrollmentPaused) && e.EndDate == nil
}

// Info describes how one metric is sampled on one channel.
type Info struct {
	SampleSize       float64 `json:"sample_size"`
	ExperimentID     string  `json:"experiment_id"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Targeting        string  `json:"targeting"`
	ExperimenterLink string  `json:"experimenter_link"`
	SampledText      string  `json:"sampled_text,omitempty"`
}

// Index maps app name to metric id to channel.
type Index map[string]map[string]map[string]Info

// Build indexes the metric configurations of every active experiment. Later
// experiments overwrite earlier ones for the same app, metric and channel.
func Build(experiments []Experiment) Index {
	idx := make(Index)
	for _, e := range experiments {
		if !e.active() {
			continue
		}

		var size float64
		if e.BucketConfig.Total != 0 {
			size = e.BucketConfig.Count / e.BucketConfig.Total
		}

		metrics, ok := idx[e.AppName]
		if !ok {
			metrics = make(map[string]map[string]Info)
			idx[e.AppName] = metrics
		}

		for _, branch := range e.Branches {
			for _, feature := range branch.Features {
				if feature.FeatureID != gleanFeature {
					continue
				}
				for metric := range feature.Value.GleanMetricConfiguration {
					channels, ok := metrics[metric]
					if !ok {
						channels = make(map[string]Info)
						metrics[metric] = channels
					}
					channels[e.Channel] = Info{
						SampleSize:       size,
						ExperimentID:     e.Slug,
						StartDate:        e.StartDate,
						EndDate:          e.EndDate,
						Targeting:        e.Targeting,
						ExperimenterLink: fmt.Sprintf(ExperimenterLinkTemplate, e.Slug),
					}
				}
			}
		}
	}
	return idx
}

// ForMetric returns the per-channel sampling of a metric with sampled texts
// filled in, plus the text shown in listings. A disabled metric is turned on
// for the sample; an enabled one is turned off. The listing text is that of
// the release channel, or of the first channel by name when release is not
// sampled.
func (idx Index) ForMetric(appName, metricID string, disabled bool) (map[string]Info, string) {
	channels := idx[appName][metricID]
	if len(channels) == 0 {
		return nil, NotSampled
	}

	state := "off"
	if disabled {
		state = "on"
	}

	out := make(map[string]Info, len(channels))
	names := make([]string, 0, len(channels))
	for channel, info := range channels {
		info.SampledText = FormatPercent(info.SampleSize*100) + "% " + state
		out[channel] = info
		names = append(names, channel)
	}
	sort.Strings(names)

	summary := out[names[0]].SampledText
	if release, ok := out["release"]; ok {
		summary = release.SampledText
	}
	return out, summary
}

// FormatPercent renders a float with at least one decimal, as in "50.0".
func FormatPercent(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
