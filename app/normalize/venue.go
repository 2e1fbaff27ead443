package normalize

import (
	"strings"

	"github.com/blrtoday/eventpipe/app/event"
)

// Venue-name strings longer than this are treated as mis-scraped
// descriptions rather than venue names.
const maxVenueNameLen = 80

// looksLikeVenueName reports whether text is a plausible venue name:
// not a placeholder, not over-long, and free of marketing jargon that
// marks a misclassified activity title.
func (n *Normalizer) looksLikeVenueName(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if n.lexicon.isPlaceholder(t) {
		return false
	}
	if len(t) > maxVenueNameLen {
		return false
	}
	if n.lexicon.hasMarketingWord(t) {
		return false
	}
	return true
}

// composeAddress joins venue name, address fragment, and city into a
// single human-readable string, each present only once. Duplicate city
// mentions ("Bangalore, Bangalore") collapse to a single trailing one.
func (n *Normalizer) composeAddress(venueName, address, city string) string {
	var parts []string
	if venueName != "" {
		parts = append(parts, venueName)
	}
	if address != "" {
		parts = append(parts, address)
	}
	composed := strings.Join(parts, ", ")

	if city == "" {
		return composed
	}
	return n.dedupeCity(composed, city)
}

// dedupeCity strips every city-variant mention from a comma-separated
// address and re-appends the canonical city once at the end.
func (n *Normalizer) dedupeCity(address, city string) string {
	if address == "" {
		return city
	}

	var cleaned []string
	for _, part := range strings.Split(address, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n.lexicon.isCityVariant(part) {
			continue
		}
		cleaned = append(cleaned, part)
	}
	cleaned = append(cleaned, city)
	return strings.Join(cleaned, ", ")
}

// scoreConfidence scans a composed address for signals: a 3+ digit
// street-number run, a regional postal code, or a location noun all
// mark a geocodable address. A string that carries none but is more
// than the bare city still gets medium; city-only or empty is low.
func (n *Normalizer) scoreConfidence(address, city string) event.Confidence {
	if address == "" {
		return event.ConfidenceLow
	}

	a := strings.ToLower(strings.TrimSpace(address))
	if city != "" && a == strings.ToLower(city) {
		return event.ConfidenceLow
	}

	if n.signalRe.MatchString(a) {
		return event.ConfidenceHigh
	}

	return event.ConfidenceMedium
}

// resolveVenue classifies the raw venue fields and produces the
// resolved address string plus its confidence. It never fails: absent
// information degrades to a city-only, low-confidence result.
func (n *Normalizer) resolveVenue(venueName, address, city string) (string, event.Confidence) {
	venueName = strings.TrimSpace(venueName)
	address = strings.TrimSpace(address)

	if !n.looksLikeVenueName(venueName) {
		venueName = ""
	}

	composed := n.composeAddress(venueName, address, city)
	if composed == "" {
		return "", event.ConfidenceLow
	}

	return composed, n.scoreConfidence(composed, city)
}
