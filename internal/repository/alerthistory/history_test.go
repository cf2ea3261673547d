package alerthistory

import (
	"fmt"
	"testing"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

func mkAlert(i int, wallet string) domain.Alert {
	return domain.Alert{
		ID:            fmt.Sprintf("alert-%d", i),
		Type:          domain.AlertRegulatoryNews,
		Severity:      domain.SeverityHigh,
		WalletAddress: wallet,
	}
}

func TestRecentNewestFirst(t *testing.T) {
	h := New(10)
	for i := 0; i < 3; i++ {
		h.Append(mkAlert(i, ""))
	}

	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(got))
	}
	if got[0].ID != "alert-2" || got[2].ID != "alert-0" {
		t.Fatalf("unexpected order: %s .. %s", got[0].ID, got[2].ID)
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	h := New(3)
	for i := 0; i < 5; i++ {
		h.Append(mkAlert(i, ""))
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 retained, got %d", h.Len())
	}
	if h.TotalAppended() != 5 {
		t.Fatalf("expected 5 appended, got %d", h.TotalAppended())
	}

	got := h.Recent(0)
	if got[0].ID != "alert-4" || got[2].ID != "alert-2" {
		t.Fatalf("oldest alerts were not evicted: %s .. %s", got[0].ID, got[2].ID)
	}
}

func TestRecentLimit(t *testing.T) {
	h := New(10)
	for i := 0; i < 6; i++ {
		h.Append(mkAlert(i, ""))
	}

	got := h.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].ID != "alert-5" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestByTargetCaseInsensitive(t *testing.T) {
	h := New(10)
	h.Append(mkAlert(0, "0xAbCdEf1234567890aBcDeF1234567890abcdef12"))
	h.Append(mkAlert(1, "0x1111111111111111111111111111111111111111"))
	h.Append(mkAlert(2, "0xabcdef1234567890abcdef1234567890abcdef12"))

	got := h.ByTarget("0xABCDEF1234567890ABCDEF1234567890ABCDEF12", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "alert-2" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestByTargetLimit(t *testing.T) {
	h := New(10)
	addr := "0xabcdef1234567890abcdef1234567890abcdef12"
	for i := 0; i < 5; i++ {
		h.Append(mkAlert(i, addr))
	}

	got := h.ByTarget(addr, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches with limit 2, got %d", len(got))
	}
	if got[0].ID != "alert-4" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestByTargetNoMatch(t *testing.T) {
	h := New(10)
	h.Append(mkAlert(0, "0x1111111111111111111111111111111111111111"))

	got := h.ByTarget("0x2222222222222222222222222222222222222222", 0)
	if got == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestZeroCapacityFallsBack(t *testing.T) {
	h := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		h.Append(mkAlert(i, ""))
	}
	if h.Len() != DefaultCapacity {
		t.Fatalf("expected %d retained, got %d", DefaultCapacity, h.Len())
	}
}
