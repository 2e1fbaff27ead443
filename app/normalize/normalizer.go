package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/blrtoday/eventpipe/app/event"
)

// Normalizer turns one source's raw records into canonical records.
// It is a pure transformation: malformed fields degrade to empty
// values or low confidence, never to an error. Safe for concurrent
// use; sources run in parallel over one instance.
type Normalizer struct {
	lexicon  Lexicon
	signalRe *regexp.Regexp
}

func New(lexicon Lexicon) *Normalizer {
	return &Normalizer{
		lexicon:  lexicon,
		signalRe: lexicon.signalPattern(),
	}
}

// Run normalizes all raw records of one source. defaultCity fills in
// the city for records that lack one.
func (n *Normalizer) Run(source, defaultCity string, raws []event.RawRecord) []event.Record {
	// A Caser is stateful and not safe for concurrent use, so each
	// Run gets its own.
	titler := cases.Title(language.English)

	records := make([]event.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, n.normalizeRecord(titler, source, defaultCity, raw))
	}
	return records
}

func (n *Normalizer) normalizeRecord(titler cases.Caser, source, defaultCity string, raw event.RawRecord) event.Record {
	city := cleanText(raw.City)
	if city == "" {
		city = cleanText(defaultCity)
	}
	if city != "" {
		city = titler.String(strings.ToLower(city))
	}

	if source == "" {
		source = strings.TrimSpace(raw.Source)
	}

	rec := event.Record{
		EventID:       cleanText(raw.EventID),
		EventKey:      n.eventKey(source, raw),
		EventName:     cleanText(raw.EventName),
		EventURL:      cleanText(raw.EventURL),
		Source:        source,
		StartDate:     NormalizeDate(raw.StartDate),
		StartTime:     NormalizeTime(raw.StartTime),
		EndDate:       NormalizeDate(raw.EndDate),
		EndTime:       NormalizeTime(raw.EndTime),
		VenueName:     cleanText(raw.VenueName),
		VenueAddress:  cleanText(raw.VenueAddress),
		OrganizerName: cleanText(raw.OrganizerName),
		Categories:    cleanList(raw.Categories),
		Description:   cleanText(raw.Description),
		TicketPrice:   cleanText(raw.TicketPrice),
		TicketURL:     cleanText(raw.TicketURL),
		City:          city,
		LastUpdated:   strings.TrimSpace(raw.LastUpdated),
	}

	if rec.EventURL == "" {
		rec.EventURL = cleanText(raw.SourceURL)
	}

	rec.ResolvedVenueAddress, rec.AddressConfidence = n.resolveVenue(rec.VenueName, rec.VenueAddress, rec.City)

	return rec
}

// eventKey derives the per-source-unique key. Collectors that already
// stamp one keep it; otherwise it is source:source_id. A record with
// neither stays keyless and is dropped later by the consolidator.
func (n *Normalizer) eventKey(source string, raw event.RawRecord) string {
	if key := strings.TrimSpace(raw.EventKey); key != "" {
		return key
	}
	id := strings.TrimSpace(raw.EventID)
	if source == "" || id == "" {
		return ""
	}
	return source + ":" + id
}

// cleanText trims whitespace and applies NFC normalization so that
// visually identical scraped strings compare equal downstream.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanList(values []string) []string {
	var cleaned []string
	for _, v := range values {
		if v = cleanText(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
