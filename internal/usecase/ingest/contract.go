package ingest

import (
	"context"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/index"
)

// SourceAdapter is a feed the coordinator polls each cycle.
type SourceAdapter interface {
	// Name tags metrics and logs for this feed.
	Name() string
	// Fetch returns the feed's current items as normalized documents.
	Fetch(ctx context.Context) ([]domain.Document, error)
}

// seenStore reports first sightings of document IDs (ISP).
type seenStore interface {
	CheckAndMark(ctx context.Context, id string) (bool, error)
}

// vectorIndex is the coordinator's view of the index (ISP).
type vectorIndex interface {
	Insert(doc domain.Document, vec []float32) error
	Len() int
	Stats() index.Stats
	Save(dir string) error
}

// alertSink receives alerts raised during processing (ISP).
type alertSink interface {
	Append(a domain.Alert)
}

// alertEngine evaluates a document against the alert rules (ISP).
type alertEngine interface {
	Evaluate(doc *domain.Document) []domain.Alert
}
