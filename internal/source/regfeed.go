package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// RegFeedAdapter pulls a regulator's RSS/Atom feed (SEC, CFTC, FINRA)
// and emits regulatory update documents.
type RegFeedAdapter struct {
	source string
	url    string
	client *http.Client
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewRegFeedAdapter creates an RSS adapter. source is the regulator
// tag, e.g. "SEC"; it becomes part of the document source and ID.
func NewRegFeedAdapter(source, url string, client *http.Client, logger *zap.Logger) *RegFeedAdapter {
	return &RegFeedAdapter{
		source: strings.ToUpper(source),
		url:    url,
		client: client,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Name implements the source adapter contract.
func (a *RegFeedAdapter) Name() string { return a.source + "_RSS" }

// Fetch downloads and parses the feed.
func (a *RegFeedAdapter) Fetch(ctx context.Context) ([]domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceFetch, err)
	}

	body, err := httpGet(a.client, req)
	if err != nil {
		return nil, err
	}

	feed, err := a.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", domain.ErrSourceFetch, err)
	}

	docs := make([]domain.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(docs) >= maxItemsPerFetch {
			break
		}
		if item.Title == "" && item.Description == "" {
			continue
		}

		ts := time.Now().UTC()
		if item.PublishedParsed != nil {
			ts = item.PublishedParsed.UTC()
		}

		docs = append(docs, domain.Document{
			ID:        linkID(a.source, item.Link),
			Source:    a.Name(),
			Text:      fmt.Sprintf("%s Regulatory Update: %s - %s", a.source, item.Title, item.Description),
			Link:      item.Link,
			Timestamp: ts,
			Type:      domain.TypeRegulatoryUpdate,
			Metadata: map[string]any{
				"title":      item.Title,
				"summary":    item.Description,
				"risk_level": assessRiskLevel(item.Title + " " + item.Description),
			},
		})
	}

	a.logger.Debug("Parsed regulatory feed",
		zap.String("source", a.source), zap.Int("documents", len(docs)))
	return docs, nil
}
