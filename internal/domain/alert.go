package domain

import (
	"time"
	"unicode/utf8"
)

// AlertType identifies the rule that produced an alert.
type AlertType string

// Alert types emitted by the alerting engine.
const (
	AlertSanctionsMatch       AlertType = "SANCTIONS_MATCH"
	AlertSanctionsUpdate      AlertType = "SANCTIONS_UPDATE"
	AlertHighValueTransaction AlertType = "HIGH_VALUE_TRANSACTION"
	AlertEnforcementAction    AlertType = "ENFORCEMENT_ACTION"
	AlertRegulatoryNews       AlertType = "REGULATORY_NEWS"
)

// Severity orders alerts by urgency.
type Severity string

// Alert severities, most urgent first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// maxEvidenceLen bounds the evidence excerpt stored on an alert.
const maxEvidenceLen = 500

// Alert is an immutable risk finding tied to one source document and,
// for target-match rules, one monitored wallet. The ID is deterministic
// (rule prefix + document id + wallet), so re-evaluating the same
// document produces alerts with identical IDs.
type Alert struct {
	ID             string    `json:"id"`
	Type           AlertType `json:"type"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	SourceDocument string    `json:"source_document"`
	Source         string    `json:"source"`
	Evidence       string    `json:"evidence"`
	RiskScore      int       `json:"risk_score"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewAlert builds an alert from a document, clamping the risk score to
// [0,100] and truncating the evidence excerpt.
func NewAlert(id string, typ AlertType, severity Severity, description string, doc *Document, wallet string, score int) Alert {
	return Alert{
		ID:             id,
		Type:           typ,
		Severity:       severity,
		Description:    description,
		WalletAddress:  wallet,
		SourceDocument: doc.ID,
		Source:         doc.Source,
		Evidence:       truncate(doc.Text, maxEvidenceLen),
		RiskScore:      clampScore(score),
		Timestamp:      time.Now().UTC(),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// truncate cuts s to at most n bytes, backing off to a rune boundary
// so the excerpt stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
