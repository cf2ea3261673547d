package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

const (
	// maxWalletsPerCycle bounds API usage against the ledger explorer.
	maxWalletsPerCycle = 3
	txPageSize         = 10
)

// weiPerETH converts transaction values; ledger APIs report wei.
var weiPerETH = new(big.Float).SetFloat64(1e18)

// LedgerAdapter pulls recent transactions for monitored wallets from
// an Etherscan-compatible API.
type LedgerAdapter struct {
	url     string
	apiKey  string
	targets *domain.TargetSet
	client  *http.Client
	logger  *zap.Logger
}

// NewLedgerAdapter creates the ledger adapter over the shared target
// set. New targets are picked up on the next fetch without restart.
func NewLedgerAdapter(apiURL, apiKey string, targets *domain.TargetSet, client *http.Client, logger *zap.Logger) *LedgerAdapter {
	return &LedgerAdapter{url: apiURL, apiKey: apiKey, targets: targets, client: client, logger: logger}
}

// Name implements the source adapter contract.
func (a *LedgerAdapter) Name() string { return "ETHERSCAN_API" }

type txListResponse struct {
	Status string `json:"status"`
	Result []struct {
		Hash      string `json:"hash"`
		From      string `json:"from"`
		To        string `json:"to"`
		Value     string `json:"value"`
		TimeStamp string `json:"timeStamp"`
	} `json:"result"`
}

// Fetch polls recent transactions for each monitored wallet.
func (a *LedgerAdapter) Fetch(ctx context.Context) ([]domain.Document, error) {
	wallets := a.targets.List()
	if len(wallets) > maxWalletsPerCycle {
		wallets = wallets[:maxWalletsPerCycle]
	}

	docs := make([]domain.Document, 0)
	var lastErr error

	for _, wallet := range wallets {
		walletDocs, err := a.fetchWallet(ctx, wallet)
		if err != nil {
			a.logger.Warn("Wallet transaction fetch failed",
				zap.String("wallet", wallet), zap.Error(err))
			lastErr = err
			continue
		}
		docs = append(docs, walletDocs...)
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return docs, nil
}

func (a *LedgerAdapter) fetchWallet(ctx context.Context, wallet string) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", wallet)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(txPageSize))
	params.Set("sort", "desc")
	params.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceFetch, err)
	}

	body, err := httpGet(a.client, req)
	if err != nil {
		return nil, err
	}

	var resp txListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse txlist response: %v", domain.ErrSourceFetch, err)
	}
	// Status "0" means no transactions or a soft API error; neither is
	// worth failing the cycle over.
	if resp.Status != "1" {
		return []domain.Document{}, nil
	}

	docs := make([]domain.Document, 0, len(resp.Result))
	for _, tx := range resp.Result {
		if tx.Hash == "" {
			continue
		}

		valueETH := weiToETH(tx.Value)

		ts := time.Now().UTC()
		if unix, err := strconv.ParseInt(tx.TimeStamp, 10, 64); err == nil {
			ts = time.Unix(unix, 0).UTC()
		}

		riskLevel := domain.RiskMedium
		if valueETH > 100 {
			riskLevel = domain.RiskHigh
		}

		docs = append(docs, domain.Document{
			ID:        "etherscan_tx_" + tx.Hash,
			Source:    a.Name(),
			Text:      fmt.Sprintf("Ethereum Transaction: %s -> %s (%.4f ETH)", tx.From, tx.To, valueETH),
			Link:      "https://etherscan.io/tx/" + tx.Hash,
			Timestamp: ts,
			Type:      domain.TypeWalletTransaction,
			Metadata: map[string]any{
				"hash":          tx.Hash,
				"from_address":  tx.From,
				"to_address":    tx.To,
				"value_eth":     valueETH,
				"target_wallet": wallet,
				"onchain_match": true,
				"risk_level":    riskLevel,
			},
		})
	}
	return docs, nil
}

// weiToETH converts a decimal wei string. Values exceed uint64, so the
// conversion goes through big.Float.
func weiToETH(wei string) float64 {
	v, ok := new(big.Float).SetString(wei)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(v, weiPerETH).Float64()
	return eth
}
