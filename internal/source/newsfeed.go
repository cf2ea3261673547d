package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// newsQueries are the standing searches run against the news API each
// cycle.
var newsQueries = []string{
	"sanctions cryptocurrency",
	"OFAC blockchain",
	"crypto fraud enforcement",
}

const newsPageSize = 5

// NewsFeedAdapter pulls regulatory news from a NewsData-compatible
// JSON API.
type NewsFeedAdapter struct {
	url    string
	apiKey string
	client *http.Client
	logger *zap.Logger
}

// NewNewsFeedAdapter creates the news adapter.
func NewNewsFeedAdapter(apiURL, apiKey string, client *http.Client, logger *zap.Logger) *NewsFeedAdapter {
	return &NewsFeedAdapter{url: apiURL, apiKey: apiKey, client: client, logger: logger}
}

// Name implements the source adapter contract.
func (a *NewsFeedAdapter) Name() string { return "NEWS_API" }

type newsResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		PubDate     string `json:"pubDate"`
		SourceID    string `json:"source_id"`
	} `json:"results"`
}

// Fetch runs every standing query and merges the results. Individual
// query failures are logged and skipped so one bad response does not
// lose the rest of the cycle.
func (a *NewsFeedAdapter) Fetch(ctx context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0)
	var lastErr error

	for _, query := range newsQueries {
		queryDocs, err := a.fetchQuery(ctx, query)
		if err != nil {
			a.logger.Warn("News query failed", zap.String("query", query), zap.Error(err))
			lastErr = err
			continue
		}
		docs = append(docs, queryDocs...)
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return docs, nil
}

func (a *NewsFeedAdapter) fetchQuery(ctx context.Context, query string) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("apikey", a.apiKey)
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("size", strconv.Itoa(newsPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceFetch, err)
	}

	body, err := httpGet(a.client, req)
	if err != nil {
		return nil, err
	}

	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse news response: %v", domain.ErrSourceFetch, err)
	}

	docs := make([]domain.Document, 0, len(resp.Results))
	for _, article := range resp.Results {
		if article.Title == "" && article.Description == "" {
			continue
		}

		ts := time.Now().UTC()
		if parsed, err := time.Parse("2006-01-02 15:04:05", article.PubDate); err == nil {
			ts = parsed.UTC()
		}

		newsSource := article.SourceID
		if newsSource == "" {
			newsSource = "unknown"
		}

		docs = append(docs, domain.Document{
			ID:        linkID("news", article.Link),
			Source:    a.Name(),
			Text:      fmt.Sprintf("Regulatory News: %s %s", article.Title, article.Description),
			Link:      article.Link,
			Timestamp: ts,
			Type:      domain.TypeRegulatoryNews,
			Metadata: map[string]any{
				"title":       article.Title,
				"description": article.Description,
				"query":       query,
				"news_source": newsSource,
				"risk_level":  assessRiskLevel(article.Title + " " + article.Description),
			},
		})
	}
	return docs, nil
}
