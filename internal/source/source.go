// Package source implements the feed adapters that pull external data
// into the pipeline. Each adapter normalizes its feed into documents
// with content-derived IDs so the dedup layer can recognize repeats
// across cycles.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// maxItemsPerFetch bounds how many items a single fetch admits from
// one feed. Regulatory feeds republish their full backlog, and the
// dedup layer discards repeats anyway.
const maxItemsPerFetch = 100

// linkID derives a stable document ID from a source tag and a link.
func linkID(source, link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%s_%s", strings.ToLower(source), hex.EncodeToString(h[:8]))
}

// httpGet fetches url and returns the body, wrapping transport and
// status failures with domain.ErrSourceFetch.
func httpGet(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrSourceFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrSourceFetch, err)
	}
	return body, nil
}

// highRiskKeywords and mediumRiskKeywords drive the content risk tag
// attached to feed documents.
var (
	highRiskKeywords = []string{
		"enforcement", "penalty", "fine", "violation", "sanctions",
		"fraud", "investigation", "cease and desist", "suspension",
	}
	mediumRiskKeywords = []string{
		"guidance", "rule", "regulation", "compliance", "warning",
		"advisory", "notice", "requirement",
	}
)

// assessRiskLevel tags content by keyword scan.
func assessRiskLevel(content string) string {
	lower := strings.ToLower(content)
	for _, kw := range highRiskKeywords {
		if strings.Contains(lower, kw) {
			return domain.RiskHigh
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(lower, kw) {
			return domain.RiskMedium
		}
	}
	return domain.RiskLow
}
