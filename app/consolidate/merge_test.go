package consolidate

import (
	"testing"

	"github.com/blrtoday/eventpipe/app/event"
)

func TestMerge_CompletenessWins(t *testing.T) {
	sparse := event.Record{
		EventKey:  "a:1",
		EventName: "Gig",
	}
	full := event.Record{
		EventKey:      "b:1",
		EventName:     "Gig at Fandom",
		StartDate:     "2026-03-14",
		StartTime:     "19:00",
		VenueName:     "Fandom",
		OrganizerName: "BLR Collective",
	}

	out := merge(sparse, full)
	if out.EventKey != "b:1" {
		t.Errorf("More complete record should be the base, got key %q", out.EventKey)
	}
	if out.EventName != "Gig at Fandom" {
		t.Errorf("Expected winner's name, got %q", out.EventName)
	}
}

func TestMerge_RecencyBreaksCompletenessTie(t *testing.T) {
	older := event.Record{
		EventKey:    "a:1",
		EventName:   "Gig",
		Description: "old copy",
		LastUpdated: "2026-03-01T10:00:00Z",
	}
	newer := event.Record{
		EventKey:    "b:1",
		EventName:   "Gig",
		Description: "new copy",
		LastUpdated: "2026-03-10T10:00:00Z",
	}

	out := merge(older, newer)
	if out.Description != "new copy" {
		t.Errorf("More recently scraped record should win, got %q", out.Description)
	}
}

func TestMerge_FirstWinsFullTie(t *testing.T) {
	a := event.Record{EventKey: "a:1", EventName: "Gig", Description: "first"}
	b := event.Record{EventKey: "b:1", EventName: "Gig", Description: "second"}

	out := merge(a, b)
	if out.Description != "first" {
		t.Errorf("Earlier record should win a full tie, got %q", out.Description)
	}
}

func TestMerge_AddressConfidenceOverridesGeneralWinner(t *testing.T) {
	// The general winner is more complete, but the loser carries a
	// higher-confidence address; address fields follow confidence.
	winner := event.Record{
		EventKey:             "a:1",
		EventName:            "Gig",
		StartDate:            "2026-03-14",
		StartTime:            "19:00",
		Description:          "full listing",
		ResolvedVenueAddress: "Bengaluru",
		AddressConfidence:    event.ConfidenceLow,
	}
	loser := event.Record{
		EventKey:             "b:1",
		EventName:            "Gig",
		VenueName:            "Fandom",
		VenueAddress:         "Gilly's Redefined, 100 Feet Road",
		ResolvedVenueAddress: "Fandom, Gilly's Redefined, 100 Feet Road, Bengaluru",
		AddressConfidence:    event.ConfidenceHigh,
	}

	out := merge(winner, loser)
	if out.EventKey != "a:1" {
		t.Errorf("General winner should stay the base, got %q", out.EventKey)
	}
	if out.AddressConfidence != event.ConfidenceHigh {
		t.Errorf("Expected high-confidence address to survive, got %s", out.AddressConfidence)
	}
	if out.ResolvedVenueAddress != "Fandom, Gilly's Redefined, 100 Feet Road, Bengaluru" {
		t.Errorf("Expected loser's resolved address, got %q", out.ResolvedVenueAddress)
	}
}

func TestMerge_FillsEmptyFieldsFromLoser(t *testing.T) {
	winner := event.Record{
		EventKey:    "a:1",
		EventName:   "Gig",
		StartDate:   "2026-03-14",
		StartTime:   "19:00",
		Description: "full listing",
	}
	loser := event.Record{
		EventKey:    "b:1",
		EventName:   "Gig",
		TicketPrice: "499",
		TicketURL:   "https://tickets.example/1",
		Categories:  []string{"music"},
	}

	out := merge(winner, loser)
	if out.EventKey != "a:1" {
		t.Errorf("More complete record should be the base, got %q", out.EventKey)
	}
	if out.TicketPrice != "499" {
		t.Errorf("Empty ticket price should fill from loser, got %q", out.TicketPrice)
	}
	if out.TicketURL != "https://tickets.example/1" {
		t.Errorf("Empty ticket URL should fill from loser, got %q", out.TicketURL)
	}
	if len(out.Categories) != 1 || out.Categories[0] != "music" {
		t.Errorf("Empty categories should fill from loser, got %v", out.Categories)
	}
}

func TestParseLastUpdated(t *testing.T) {
	if !parseLastUpdated("").IsZero() {
		t.Error("Empty timestamp should parse as zero time")
	}
	if !parseLastUpdated("not a time").IsZero() {
		t.Error("Garbage timestamp should parse as zero time")
	}
	if parseLastUpdated("2026-03-14T19:00:00Z").IsZero() {
		t.Error("RFC3339 timestamp should parse")
	}
	if parseLastUpdated("2026-03-14 19:00:00").IsZero() {
		t.Error("Lenient timestamp should parse")
	}
}
