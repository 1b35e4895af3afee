// Package autoevents lists the events Glean.js records automatically for
// web applications.
package autoevents

import (
	"context"
	"fmt"
	"strings"
)

// Base metrics that automatic events are documented after.
const (
	ElementClickMetric = "glean.element_click"
	PageLoadMetric     = "glean.page_load"
)

// Row is one automatic event name observed for an application.
type Row struct {
	App       string `bigquery:"app"`
	EventName string `bigquery:"event_name"`
}

// Source lists observed automatic events for every application.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// StaticSource serves a fixed set of rows.
type StaticSource []Row

// Rows implements Source.
func (s StaticSource) Rows(ctx context.Context) ([]Row, error) {
	return s, nil
}

// EventInfo marks an event as automatic.
type EventInfo struct {
	IsAuto      bool   `json:"is_auto"`
	AutoEventID string `json:"auto_event_id"`
}

// Event is the listing entry of one automatic event.
type Event struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Expiration  string    `json:"expiration"`
	Description string    `json:"description"`
	EventInfo   EventInfo `json:"event_info"`
}

// BaseMetric returns the metric whose documentation the event inherits.
func (e Event) BaseMetric() string {
	if strings.HasPrefix(e.Name, PageLoadMetric) {
		return PageLoadMetric
	}
	return ElementClickMetric
}

// ForApp returns the automatic events of app in row order. Names that are
// neither element clicks nor page loads are ignored.
func ForApp(app string, rows []Row) []Event {
	var events []Event
	for _, row := range rows {
		if row.App != app {
			continue
		}
		if e, ok := newEvent(row.EventName); ok {
			events = append(events, e)
		}
	}
	return events
}

func newEvent(name string) (Event, bool) {
	e := Event{
		Name:       name,
		Type:       "event",
		Expiration: "never",
		EventInfo:  EventInfo{IsAuto: true},
	}

	switch {
	case strings.HasPrefix(name, ElementClickMetric+"."):
		id := name[strings.LastIndex(name, ".")+1:]
		e.EventInfo.AutoEventID = id
		e.Description = fmt.Sprintf("An event triggered whenever the %s element is clicked on a page.", id)
	case strings.HasPrefix(name, PageLoadMetric+"[") && strings.HasSuffix(name, "]"):
		page := name[len(PageLoadMetric)+1 : len(name)-1]
		e.EventInfo.AutoEventID = strings.TrimPrefix(name, "glean.")
		e.Description = fmt.Sprintf("An event triggered whenever the page %s is loaded.", page)
	default:
		return Event{}, false
	}
	return e, true
}
