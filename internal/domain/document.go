package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document type tags produced by the source adapters.
const (
	TypeSanction          = "sanction"
	TypeRegulatoryUpdate  = "regulatory_update"
	TypeRegulatoryNews    = "regulatory_news"
	TypeNews              = "news"
	TypeWalletTransaction = "wallet_transaction"
)

// Risk levels carried in Document.Metadata["risk_level"].
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Document is a normalized item emitted by a source adapter.
// The ID is content-derived and stable: re-ingesting the same logical
// item yields the same ID, which is what the dedup path relies on.
type Document struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Text      string         `json:"text"`
	Link      string         `json:"link,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate checks the fields the pipeline cannot work without.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedDocument)
	}
	if d.Text == "" {
		return fmt.Errorf("%w: missing text (id=%s)", ErrMalformedDocument, d.ID)
	}
	if d.Source == "" {
		return fmt.Errorf("%w: missing source (id=%s)", ErrMalformedDocument, d.ID)
	}
	return nil
}

// RiskLevel returns the metadata risk_level tag, or "low" when absent.
func (d *Document) RiskLevel() string {
	if d.Metadata == nil {
		return RiskLow
	}
	if lvl, ok := d.Metadata["risk_level"].(string); ok && lvl != "" {
		return strings.ToLower(lvl)
	}
	return RiskLow
}

// MetaString returns a string metadata field, or "" when absent.
func (d *Document) MetaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[key].(string)
	return s
}

// MetaFloat returns a numeric metadata field, accepting the numeric
// shapes JSON decoding produces.
func (d *Document) MetaFloat(key string) float64 {
	if d.Metadata == nil {
		return 0
	}
	switch v := d.Metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// RiskScoreForLevel maps a risk_level tag into its numeric band:
// critical=90+, high=70-89, medium=40-69, low=<40.
func RiskScoreForLevel(level string) int {
	switch strings.ToLower(level) {
	case RiskCritical:
		return 90
	case RiskHigh:
		return 75
	case RiskMedium:
		return 50
	default:
		return 25
	}
}
