package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

const sdnCSV = `ent_num,SDN_Name,SDN_Type,Title,Program
12345,ACME TRADING LLC,Entity,Director,CYBER2
12346,JOHN DOE,Individual,-0-,SDGT
,MISSING ENT,Entity,-0-,SDGT
`

func TestSanctionsAdapterParsesCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sdnCSV))
	}))
	defer srv.Close()

	a := NewSanctionsAdapter(srv.URL, srv.Client(), zap.NewNop())
	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	d := docs[0]
	if d.ID != "ofac_sdn_12345" {
		t.Errorf("unexpected id: %s", d.ID)
	}
	if d.Type != domain.TypeSanction || d.Source != "OFAC_SDN" {
		t.Errorf("unexpected type/source: %s/%s", d.Type, d.Source)
	}
	if d.Text != "OFAC SDN Entry: ACME TRADING LLC - Director" {
		t.Errorf("unexpected text: %q", d.Text)
	}
	if d.RiskLevel() != domain.RiskHigh {
		t.Errorf("sanctions entries must be tagged high risk, got %s", d.RiskLevel())
	}

	// -0- is the OFAC null marker.
	if docs[1].Text != "OFAC SDN Entry: JOHN DOE - " {
		t.Errorf("null marker not stripped: %q", docs[1].Text)
	}
}

func TestSanctionsAdapterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewSanctionsAdapter(srv.URL, srv.Client(), zap.NewNop())
	_, err := a.Fetch(context.Background())
	if !errors.Is(err, domain.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>SEC Press Releases</title>
<item>
  <title>SEC Charges Exchange With Fraud</title>
  <description>Enforcement action and penalty announced</description>
  <link>https://sec.example/item/1</link>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
<item>
  <title>Staff Guidance on Custody</title>
  <description>New compliance guidance published</description>
  <link>https://sec.example/item/2</link>
</item>
</channel></rss>`

func TestRegFeedAdapterParsesRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	a := NewRegFeedAdapter("SEC", srv.URL, srv.Client(), zap.NewNop())
	if a.Name() != "SEC_RSS" {
		t.Fatalf("unexpected name: %s", a.Name())
	}

	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	d := docs[0]
	if d.Type != domain.TypeRegulatoryUpdate {
		t.Errorf("unexpected type: %s", d.Type)
	}
	if d.RiskLevel() != domain.RiskHigh {
		t.Errorf("enforcement item must be high risk, got %s", d.RiskLevel())
	}
	if docs[1].RiskLevel() != domain.RiskMedium {
		t.Errorf("guidance item must be medium risk, got %s", docs[1].RiskLevel())
	}

	// Same link, same ID across fetches.
	docs2, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].ID != docs2[0].ID {
		t.Errorf("IDs not stable: %s != %s", docs[0].ID, docs2[0].ID)
	}
}

const newsJSON = `{"results":[
  {"title":"Sanctions imposed on mixer","description":"OFAC enforcement action",
   "link":"https://news.example/a","pubDate":"2026-08-30 12:00:00","source_id":"wire"},
  {"title":"","description":"","link":"https://news.example/empty"}
]}`

func TestNewsFeedAdapterParsesJSON(t *testing.T) {
	var gotQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.Query().Get("q"))
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("missing api key")
		}
		_, _ = w.Write([]byte(newsJSON))
	}))
	defer srv.Close()

	a := NewNewsFeedAdapter(srv.URL, "test-key", srv.Client(), zap.NewNop())
	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One non-empty article per standing query.
	if len(docs) != len(newsQueries) {
		t.Fatalf("expected %d documents, got %d", len(newsQueries), len(docs))
	}
	if len(gotQueries) != len(newsQueries) {
		t.Fatalf("expected %d queries, got %d", len(newsQueries), len(gotQueries))
	}

	d := docs[0]
	if d.Type != domain.TypeRegulatoryNews {
		t.Errorf("unexpected type: %s", d.Type)
	}
	if d.RiskLevel() != domain.RiskHigh {
		t.Errorf("sanctions news must be high risk, got %s", d.RiskLevel())
	}
	if d.MetaString("news_source") != "wire" {
		t.Errorf("unexpected news_source: %s", d.MetaString("news_source"))
	}
}

func TestNewsFeedAdapterAllQueriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewNewsFeedAdapter(srv.URL, "test-key", srv.Client(), zap.NewNop())
	_, err := a.Fetch(context.Background())
	if !errors.Is(err, domain.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
}

const txListJSON = `{"status":"1","result":[
  {"hash":"0xdeadbeef","from":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
   "to":"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
   "value":"150000000000000000000","timeStamp":"1756512000"}
]}`

func TestLedgerAdapterParsesTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "txlist" {
			t.Errorf("unexpected action: %s", r.URL.Query().Get("action"))
		}
		_, _ = w.Write([]byte(txListJSON))
	}))
	defer srv.Close()

	targets := domain.NewTargetSet()
	targets.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	a := NewLedgerAdapter(srv.URL, "key", targets, srv.Client(), zap.NewNop())
	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	d := docs[0]
	if d.ID != "etherscan_tx_0xdeadbeef" {
		t.Errorf("unexpected id: %s", d.ID)
	}
	if d.Type != domain.TypeWalletTransaction {
		t.Errorf("unexpected type: %s", d.Type)
	}
	if got := d.MetaFloat("value_eth"); got != 150 {
		t.Errorf("expected 150 ETH, got %f", got)
	}
	if d.RiskLevel() != domain.RiskHigh {
		t.Errorf("150 ETH must be high risk, got %s", d.RiskLevel())
	}
}

func TestLedgerAdapterNoTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected without targets")
	}))
	defer srv.Close()

	a := NewLedgerAdapter(srv.URL, "key", domain.NewTargetSet(), srv.Client(), zap.NewNop())
	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestLedgerAdapterSoftError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","result":[]}`))
	}))
	defer srv.Close()

	targets := domain.NewTargetSet()
	targets.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	a := NewLedgerAdapter(srv.URL, "key", targets, srv.Client(), zap.NewNop())
	docs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("soft API error must not fail the fetch: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestWeiToETH(t *testing.T) {
	if got := weiToETH("1000000000000000000"); got != 1 {
		t.Errorf("expected 1 ETH, got %f", got)
	}
	if got := weiToETH("not-a-number"); got != 0 {
		t.Errorf("expected 0 for garbage, got %f", got)
	}
}
