package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Aoneken/price-monitor-sub000/models"
)

var rangeTokenRe = regexp.MustCompile(`^(\d+)-(\d+)$`)

// SelectListings resolves a selection expression against the catalog.
// The expression splits on commas and whitespace; each token is tried,
// in order, as: the literal all/todos, a 1-based index, an N-M index
// range, an exact listing id, and finally a case-insensitive substring
// of the display name. Substring matches must be unambiguous. Results
// are deduplicated by listing id, first occurrence order preserved.
func SelectListings(listings []models.Listing, expr string) ([]models.Listing, error) {
	tokens := strings.FieldsFunc(expr, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return nil, fmt.Errorf("selection: empty expression")
	}

	var selected []models.Listing
	seen := make(map[string]struct{})
	add := func(l models.Listing) {
		if _, dup := seen[l.ID]; dup {
			return
		}
		seen[l.ID] = struct{}{}
		selected = append(selected, l)
	}

	for _, token := range tokens {
		if strings.EqualFold(token, "all") || strings.EqualFold(token, "todos") {
			for _, l := range listings {
				add(l)
			}
			continue
		}

		if n, err := strconv.Atoi(token); err == nil {
			if n < 1 || n > len(listings) {
				return nil, fmt.Errorf("selection: index %d out of range 1-%d", n, len(listings))
			}
			add(listings[n-1])
			continue
		}

		if m := rangeTokenRe.FindStringSubmatch(token); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if lo < 1 || hi < lo || hi > len(listings) {
				return nil, fmt.Errorf("selection: range %q out of bounds 1-%d", token, len(listings))
			}
			for i := lo; i <= hi; i++ {
				add(listings[i-1])
			}
			continue
		}

		if l, ok := findByID(listings, token); ok {
			add(l)
			continue
		}

		matches := findByName(listings, token)
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("selection: no listing matches %q", token)
		case 1:
			add(matches[0])
		default:
			return nil, fmt.Errorf("selection: %q is ambiguous (%d matches)", token, len(matches))
		}
	}

	return selected, nil
}

func findByID(listings []models.Listing, id string) (models.Listing, bool) {
	for _, l := range listings {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

func findByName(listings []models.Listing, needle string) []models.Listing {
	needle = strings.ToLower(needle)
	var matches []models.Listing
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Name), needle) {
			matches = append(matches, l)
		}
	}
	return matches
}
