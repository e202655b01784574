package airbnb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Aoneken/price-monitor-sub000/models"
)

const breakdownMarker = `"productPriceBreakdown":`

// spaceStripper removes regular and non-breaking spaces from formatted
// amounts before they are folded into notes.
var spaceStripper = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ExtractPriceIsland locates the first productPriceBreakdown token in the
// page body and returns the immediately following balanced JSON object.
// The scan is linear from the marker onward and respects string literals,
// so quotes and braces inside strings do not unbalance the match.
func ExtractPriceIsland(body string) (string, bool) {
	idx := strings.Index(body, breakdownMarker)
	if idx < 0 {
		return "", false
	}

	rest := body[idx+len(breakdownMarker):]
	start := strings.IndexByte(rest, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[start : i+1], true
			}
		}
	}
	return "", false
}

type moneyJSON struct {
	AmountMicros    any    `json:"amountMicros"`
	AmountFormatted string `json:"amountFormatted"`
}

type breakdownJSON struct {
	PriceBreakdown *breakdownJSON `json:"priceBreakdown"`
	Total          *struct {
		Total *moneyJSON `json:"total"`
	} `json:"total"`
	PriceItems []struct {
		NestedPriceItems []struct {
			LocalizedTitle string     `json:"localizedTitle"`
			Total          *moneyJSON `json:"total"`
		} `json:"nestedPriceItems"`
	} `json:"priceItems"`
}

// ParseQuoteIsland turns an extracted price-breakdown object into a
// QuoteResult. The inner priceBreakdown is preferred when present; the
// stay total comes from total.total.amountMicros.
func ParseQuoteIsland(island string, nights int) models.QuoteResult {
	var outer breakdownJSON
	if err := json.Unmarshal([]byte(island), &outer); err != nil {
		return models.QuoteResult{Err: models.ErrBookingPriceNotFound}
	}

	b := &outer
	if outer.PriceBreakdown != nil {
		b = outer.PriceBreakdown
	}

	if b.Total == nil || b.Total.Total == nil {
		return models.QuoteResult{Err: models.ErrBookingTotalMissing}
	}
	micros, ok := microsFrom(b.Total.Total.AmountMicros)
	if !ok {
		return models.QuoteResult{Err: models.ErrBookingTotalMissing}
	}

	if nights < 1 {
		nights = 1
	}
	total := float64(micros) / 1_000_000
	result := models.QuoteResult{
		Total:    total,
		PerNight: total / float64(nights),
	}

	var baseTotal, serviceTotal *float64
	for _, item := range b.PriceItems {
		for _, nested := range item.NestedPriceItems {
			if nested.Total == nil {
				continue
			}
			m, ok := microsFrom(nested.Total.AmountMicros)
			if !ok {
				continue
			}
			amount := float64(m) / 1_000_000
			title := strings.ToLower(nested.LocalizedTitle)

			switch {
			case strings.Contains(title, "servicio") || strings.Contains(title, "service"):
				serviceTotal = &amount
				if f := nested.Total.AmountFormatted; f != "" {
					result.Notes = append(result.Notes, "service_fmt="+spaceStripper.Replace(f))
				}
			case strings.Contains(title, "noche") || strings.Contains(title, "night"):
				baseTotal = &amount
				if f := nested.Total.AmountFormatted; f != "" {
					result.Notes = append(result.Notes, "base_fmt="+spaceStripper.Replace(f))
				}
			}
		}
	}

	if baseTotal != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("base_total=%.2f", *baseTotal))
	}
	if serviceTotal != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("service_total=%.2f", *serviceTotal))
	}
	if f := b.Total.Total.AmountFormatted; f != "" {
		result.Notes = append(result.Notes, "total_fmt="+spaceStripper.Replace(f))
	}

	return result
}

// microsFrom coerces an amountMicros value that may arrive as a JSON
// number or string into an integer micro amount.
func microsFrom(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
