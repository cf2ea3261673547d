package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// SanctionsAdapter pulls the OFAC SDN list (CSV) and emits one
// sanction document per entry.
type SanctionsAdapter struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewSanctionsAdapter creates the OFAC SDN adapter.
func NewSanctionsAdapter(url string, client *http.Client, logger *zap.Logger) *SanctionsAdapter {
	return &SanctionsAdapter{url: url, client: client, logger: logger}
}

// Name implements the source adapter contract.
func (a *SanctionsAdapter) Name() string { return "OFAC_SDN" }

// Fetch downloads and parses the SDN list.
func (a *SanctionsAdapter) Fetch(ctx context.Context) ([]domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceFetch, err)
	}

	body, err := httpGet(a.client, req)
	if err != nil {
		return nil, err
	}

	return a.parse(body)
}

func (a *SanctionsAdapter) parse(body []byte) ([]domain.Document, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse SDN csv: %v", domain.ErrSourceFetch, err)
	}
	if len(rows) == 0 {
		return []domain.Document{}, nil
	}

	entCol, nameCol, titleCol := columnLayout(rows[0])
	start := 0
	if entCol >= 0 {
		start = 1 // header row present
	} else {
		// Headerless SDN export: ent_num, name, type, title, ...
		entCol, nameCol, titleCol = 0, 1, 3
	}

	docs := make([]domain.Document, 0)
	for _, row := range rows[start:] {
		if len(docs) >= maxItemsPerFetch {
			break
		}

		entNum := field(row, entCol)
		name := field(row, nameCol)
		title := field(row, titleCol)
		if entNum == "" || name == "" {
			continue
		}

		docs = append(docs, domain.Document{
			ID:        "ofac_sdn_" + entNum,
			Source:    a.Name(),
			Text:      fmt.Sprintf("OFAC SDN Entry: %s - %s", name, title),
			Link:      a.url,
			Timestamp: time.Now().UTC(),
			Type:      domain.TypeSanction,
			Metadata: map[string]any{
				"entity_number": entNum,
				"name":          name,
				"title":         title,
				"risk_level":    domain.RiskHigh,
			},
		})
	}

	a.logger.Debug("Parsed SDN list", zap.Int("documents", len(docs)))
	return docs, nil
}

// columnLayout finds the ent_num/name/title columns in a header row,
// returning -1 for entCol when no header is present.
func columnLayout(header []string) (entCol, nameCol, titleCol int) {
	entCol, nameCol, titleCol = -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "ent_num":
			entCol = i
		case "sdn_name", "name":
			nameCol = i
		case "title":
			titleCol = i
		}
	}
	return entCol, nameCol, titleCol
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if v == "-0-" { // OFAC null marker
		return ""
	}
	return v
}
