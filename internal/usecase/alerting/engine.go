// Package alerting evaluates ingested documents against the monitored
// target set and emits risk alerts.
package alerting

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
)

// addressPattern matches EVM wallet addresses embedded in free text.
var addressPattern = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)

// enforcementKeywords flag documents describing regulatory enforcement.
var enforcementKeywords = []string{
	"enforcement", "penalty", "fine", "violation",
	"investigation", "prosecution", "lawsuit", "cease and desist",
}

// Engine applies the alert rules to one document at a time. Rules run
// in a fixed order so alert output is deterministic for a given
// document and target set.
type Engine struct {
	targets      *domain.TargetSet
	thresholdETH float64
	logger       *zap.Logger
}

// New creates an alert engine over the shared target set.
// thresholdETH is the high-value transaction cutoff.
func New(targets *domain.TargetSet, thresholdETH float64, logger *zap.Logger) *Engine {
	return &Engine{targets: targets, thresholdETH: thresholdETH, logger: logger}
}

// Evaluate runs every rule against doc and returns the alerts raised.
// A document can raise several alerts (for example a sanctions entry
// naming two monitored wallets). A clean document returns an empty
// slice.
func (e *Engine) Evaluate(doc *domain.Document) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	alerts = append(alerts, e.sanctionsAlerts(doc)...)
	alerts = append(alerts, e.transactionAlerts(doc)...)
	alerts = append(alerts, e.enforcementAlerts(doc)...)
	alerts = append(alerts, e.newsAlerts(doc)...)

	for _, a := range alerts {
		metrics.AlertsGeneratedTotal.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		e.logger.Info("Alert generated",
			zap.String("alert_id", a.ID),
			zap.String("type", string(a.Type)),
			zap.String("severity", string(a.Severity)),
			zap.Int("risk_score", a.RiskScore),
			zap.String("document", doc.ID),
		)
	}
	return alerts
}

// sanctionsAlerts emits one CRITICAL match per monitored wallet named in
// sanctions data, or one HIGH update alert when no target is named.
func (e *Engine) sanctionsAlerts(doc *domain.Document) []domain.Alert {
	if !isSanctionsRelated(doc) {
		return nil
	}

	matches := e.matchedTargets(doc.Text)
	if len(matches) == 0 {
		score := 70
		if doc.RiskLevel() == domain.RiskCritical {
			score = 90
		}
		return []domain.Alert{domain.NewAlert(
			"sanction_general_"+doc.ID,
			domain.AlertSanctionsUpdate,
			domain.SeverityHigh,
			fmt.Sprintf("New sanctions data from %s", doc.Source),
			doc, "", score,
		)}
	}

	alerts := make([]domain.Alert, 0, len(matches))
	for _, wallet := range matches {
		alerts = append(alerts, domain.NewAlert(
			fmt.Sprintf("sanction_alert_%s_%s", doc.ID, wallet),
			domain.AlertSanctionsMatch,
			domain.SeverityCritical,
			fmt.Sprintf("Wallet %s mentioned in %s sanctions data", wallet, doc.Source),
			doc, wallet, 95,
		))
	}
	return alerts
}

// transactionAlerts flags ledger transactions above the value threshold.
// A monitored wallet on either endpoint escalates to CRITICAL.
func (e *Engine) transactionAlerts(doc *domain.Document) []domain.Alert {
	if doc.Type != domain.TypeWalletTransaction {
		return nil
	}

	valueETH := doc.MetaFloat("value_eth")
	if valueETH <= e.thresholdETH {
		return nil
	}

	from := strings.ToLower(doc.MetaString("from_address"))
	to := strings.ToLower(doc.MetaString("to_address"))

	wallet := ""
	if e.targets.Contains(from) {
		wallet = from
	} else if e.targets.Contains(to) {
		wallet = to
	}

	severity, score := domain.SeverityHigh, 65
	if wallet != "" {
		severity, score = domain.SeverityCritical, 85
	}

	return []domain.Alert{domain.NewAlert(
		"high_value_tx_"+doc.ID,
		domain.AlertHighValueTransaction,
		severity,
		fmt.Sprintf("Transaction of %.4f ETH detected", valueETH),
		doc, wallet, score,
	)}
}

// enforcementAlerts emits one CRITICAL alert per monitored wallet named
// in enforcement-related text.
func (e *Engine) enforcementAlerts(doc *domain.Document) []domain.Alert {
	if !isEnforcementRelated(doc.Text) {
		return nil
	}

	matches := e.matchedTargets(doc.Text)
	alerts := make([]domain.Alert, 0, len(matches))
	for _, wallet := range matches {
		alerts = append(alerts, domain.NewAlert(
			fmt.Sprintf("enforcement_alert_%s_%s", doc.ID, wallet),
			domain.AlertEnforcementAction,
			domain.SeverityCritical,
			fmt.Sprintf("Wallet %s mentioned in regulatory enforcement", wallet),
			doc, wallet, 90,
		))
	}
	return alerts
}

// newsAlerts flags news-like documents tagged high or critical risk.
func (e *Engine) newsAlerts(doc *domain.Document) []domain.Alert {
	switch doc.Type {
	case domain.TypeRegulatoryNews, domain.TypeNews, domain.TypeRegulatoryUpdate:
	default:
		return nil
	}

	level := doc.RiskLevel()
	if level != domain.RiskHigh && level != domain.RiskCritical {
		return nil
	}

	severity, score := domain.SeverityHigh, 80
	if level == domain.RiskCritical {
		severity, score = domain.SeverityCritical, 95
	}

	newsSource := doc.MetaString("news_source")
	if newsSource == "" {
		newsSource = "unknown"
	}

	return []domain.Alert{domain.NewAlert(
		"news_alert_"+doc.ID,
		domain.AlertRegulatoryNews,
		severity,
		fmt.Sprintf("Important regulatory news from %s", newsSource),
		doc, "", score,
	)}
}

// matchedTargets extracts wallet addresses from text and keeps those in
// the monitored set, lower-cased.
func (e *Engine) matchedTargets(text string) []string {
	seen := make(map[string]struct{})
	var matches []string
	for _, addr := range addressPattern.FindAllString(text, -1) {
		lower := strings.ToLower(addr)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		if e.targets.Contains(lower) {
			matches = append(matches, lower)
		}
	}
	return matches
}

func isSanctionsRelated(doc *domain.Document) bool {
	return strings.HasPrefix(strings.ToUpper(doc.Source), "OFAC") ||
		doc.Type == domain.TypeSanction ||
		strings.Contains(strings.ToLower(doc.Text), "sanction")
}

func isEnforcementRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range enforcementKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClassifyRisk maps a numeric score into its risk band.
func ClassifyRisk(score int) string {
	switch {
	case score >= 90:
		return domain.RiskCritical
	case score >= 70:
		return domain.RiskHigh
	case score >= 40:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
