package consolidate

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/blrtoday/eventpipe/app/event"
)

// tieBreak is one step of the merge precedence. cmp returns a negative
// value when a wins, positive when b wins, zero to fall through to the
// next rule. Keeping the rules in an ordered list makes the precedence
// auditable and testable rule-by-rule.
type tieBreak struct {
	name string
	cmp  func(a, b event.Record) int
}

// generalPrecedence decides the overall surviving record: the more
// complete one, then the more recently scraped one, then the earlier
// one in input order (stable).
var generalPrecedence = []tieBreak{
	{
		name: "completeness",
		cmp: func(a, b event.Record) int {
			return b.Completeness() - a.Completeness()
		},
	},
	{
		name: "recency",
		cmp: func(a, b event.Record) int {
			at, bt := parseLastUpdated(a.LastUpdated), parseLastUpdated(b.LastUpdated)
			switch {
			case at.After(bt):
				return -1
			case bt.After(at):
				return 1
			default:
				return 0
			}
		},
	},
}

// pickGeneral reports whether a wins the general precedence. a is the
// earlier record and wins all ties.
func pickGeneral(a, b event.Record) bool {
	for _, rule := range generalPrecedence {
		if c := rule.cmp(a, b); c < 0 {
			return true
		} else if c > 0 {
			return false
		}
	}
	return true
}

// pickAddress returns the record whose address-derived fields survive:
// higher address confidence wins, ties fall back to the general winner.
func pickAddress(a, b event.Record) event.Record {
	ar, br := event.ConfidenceRank(a.AddressConfidence), event.ConfidenceRank(b.AddressConfidence)
	switch {
	case ar > br:
		return a
	case br > ar:
		return b
	case pickGeneral(a, b):
		return a
	default:
		return b
	}
}

// merge collapses two records that share a dedup anchor. The general
// winner is the base: its key, provenance, and non-address fields
// survive; address-derived fields come from the higher-confidence
// record; fields the winner left empty are filled from the loser.
func merge(a, b event.Record) event.Record {
	winner, loser := a, b
	if !pickGeneral(a, b) {
		winner, loser = b, a
	}

	out := winner

	addr := pickAddress(a, b)
	out.VenueName = addr.VenueName
	out.VenueAddress = addr.VenueAddress
	out.ResolvedVenueAddress = addr.ResolvedVenueAddress
	out.AddressConfidence = addr.AddressConfidence
	if addr.City != "" {
		out.City = addr.City
	}

	fillEmpty(&out, loser)
	return out
}

// fillEmpty copies other's non-empty fields into the empty slots of
// dst. Non-null always beats null regardless of precedence.
func fillEmpty(dst *event.Record, other event.Record) {
	pairs := []struct {
		dst *string
		src string
	}{
		{&dst.EventID, other.EventID},
		{&dst.EventName, other.EventName},
		{&dst.EventURL, other.EventURL},
		{&dst.StartDate, other.StartDate},
		{&dst.StartTime, other.StartTime},
		{&dst.EndDate, other.EndDate},
		{&dst.EndTime, other.EndTime},
		{&dst.VenueName, other.VenueName},
		{&dst.VenueAddress, other.VenueAddress},
		{&dst.ResolvedVenueAddress, other.ResolvedVenueAddress},
		{&dst.OrganizerName, other.OrganizerName},
		{&dst.Description, other.Description},
		{&dst.TicketPrice, other.TicketPrice},
		{&dst.TicketURL, other.TicketURL},
		{&dst.City, other.City},
		{&dst.LastUpdated, other.LastUpdated},
	}
	for _, p := range pairs {
		if *p.dst == "" {
			*p.dst = p.src
		}
	}

	if len(dst.Categories) == 0 {
		dst.Categories = other.Categories
	}
	if dst.AddressConfidence == "" {
		dst.AddressConfidence = other.AddressConfidence
		if dst.AddressConfidence == "" {
			dst.AddressConfidence = event.ConfidenceLow
		}
	}
}

// parseLastUpdated reads the scrape timestamp leniently; collectors
// emit slightly different ISO-8601 shapes. Unparseable input ranks as
// the zero time so it never wins a recency comparison.
func parseLastUpdated(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t
	}
	return time.Time{}
}
