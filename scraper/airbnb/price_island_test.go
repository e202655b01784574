package airbnb

import (
	"strings"
	"testing"

	"github.com/Aoneken/price-monitor-sub000/models"
)

const quotePage = `<html><head><script>window.__DATA__ = {"foo":{"bar":1},` +
	`"productPriceBreakdown":{"priceBreakdown":{` +
	`"total":{"total":{"amountMicros":150000000,"amountFormatted":"$ 150.00"}},` +
	`"priceItems":[{"nestedPriceItems":[` +
	`{"localizedTitle":"2 noches x $60.00","total":{"amountMicros":120000000,"amountFormatted":"$ 120.00"}},` +
	`{"localizedTitle":"Tarifa de servicio","total":{"amountMicros":30000000,"amountFormatted":"$ 30.00"}},` +
	`{"localizedTitle":"Descuento {especial} \"promo\"","total":{}}` +
	`]}]}},"trailing":true}</script></head></html>`

func TestExtractPriceIsland(t *testing.T) {
	island, ok := ExtractPriceIsland(quotePage)
	if !ok {
		t.Fatal("island not found")
	}
	if !strings.HasPrefix(island, `{"priceBreakdown"`) {
		t.Errorf("island starts with %q", island[:30])
	}
	// Balanced against the full object, not cut short by braces or
	// escaped quotes inside string literals.
	if !strings.HasSuffix(island, `]}]}}`) {
		t.Errorf("island ends with %q", island[len(island)-20:])
	}
	if strings.Contains(island, "trailing") {
		t.Error("island leaked past the closing brace")
	}
}

func TestExtractPriceIslandMissing(t *testing.T) {
	if _, ok := ExtractPriceIsland("<html>no prices here</html>"); ok {
		t.Error("expected no island in a page without the marker")
	}
}

func TestParseQuoteIsland(t *testing.T) {
	island, ok := ExtractPriceIsland(quotePage)
	if !ok {
		t.Fatal("island not found")
	}

	result := ParseQuoteIsland(island, 2)
	if result.Err != "" {
		t.Fatalf("unexpected error %q", result.Err)
	}
	if result.Total != 150.0 {
		t.Errorf("total: got %.2f, want 150.00", result.Total)
	}
	if result.PerNight != 75.0 {
		t.Errorf("perNight: got %.2f, want 75.00", result.PerNight)
	}

	want := []string{
		"base_fmt=$120.00",
		"service_fmt=$30.00",
		"base_total=120.00",
		"service_total=30.00",
		"total_fmt=$150.00",
	}
	if len(result.Notes) != len(want) {
		t.Fatalf("notes: got %v, want %v", result.Notes, want)
	}
	for i := range want {
		if result.Notes[i] != want[i] {
			t.Errorf("note %d: got %q, want %q", i, result.Notes[i], want[i])
		}
	}
}

func TestParseQuoteIslandOuterBreakdown(t *testing.T) {
	island := `{"total":{"total":{"amountMicros":"90000000"}},"priceItems":[]}`
	result := ParseQuoteIsland(island, 3)
	if result.Err != "" {
		t.Fatalf("unexpected error %q", result.Err)
	}
	if result.Total != 90.0 || result.PerNight != 30.0 {
		t.Errorf("got total=%.2f perNight=%.2f, want 90.00/30.00", result.Total, result.PerNight)
	}
}

func TestParseQuoteIslandTotalMissing(t *testing.T) {
	island := `{"priceBreakdown":{"total":{"total":{"amountFormatted":"$1.00"}}}}`
	result := ParseQuoteIsland(island, 1)
	if result.Err != models.ErrBookingTotalMissing {
		t.Errorf("err: got %q, want %q", result.Err, models.ErrBookingTotalMissing)
	}
}
