package autoevents

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// Defaults for the automatic events metadata table.
const (
	DefaultProject = "moz-fx-data-shared-prod"
	DefaultTable   = "moz-fx-data-shared-prod.glean_dictionary_derived.auto_events_metadata"
)

// BigQuerySource reads automatic events from the metadata table. The client
// is only created on first use so that builds without web applications never
// need credentials.
type BigQuerySource struct {
	project string
	table   string

	once   sync.Once
	client *bigquery.Client
	err    error
}

// NewBigQuerySource creates a source querying table in project.
func NewBigQuerySource(project, table string) *BigQuerySource {
	return &BigQuerySource{project: project, table: table}
}

func (s *BigQuerySource) connect(ctx context.Context) (*bigquery.Client, error) {
	s.once.Do(func() {
		s.client, s.err = bigquery.NewClient(ctx, s.project)
	})
	return s.client, s.err
}

// Rows implements Source.
func (s *BigQuerySource) Rows(ctx context.Context) ([]Row, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	q := client.Query(fmt.Sprintf("SELECT app, event_name FROM `%s`", s.table))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}

	var rows []Row
	for {
		var row Row
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the client, if one was created.
func (s *BigQuerySource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
