package normalize

import (
	"testing"

	"github.com/blrtoday/eventpipe/app/event"
)

func TestNormalizer_Run_BasicRecord(t *testing.T) {
	n := New(DefaultLexicon())

	raws := []event.RawRecord{
		{
			EventID:      "ae-123",
			EventName:    "  Indie Night  ",
			EventURL:     "https://allevents.in/e/ae-123",
			StartDate:    "March 14, 2026",
			StartTime:    "7 pm onwards",
			VenueName:    "Fandom",
			VenueAddress: "Gilly's Redefined, Koramangala",
			City:         "bangalore",
		},
	}

	records := n.Run("allevents", "Bengaluru", raws)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.EventName != "Indie Night" {
		t.Errorf("Expected trimmed name, got %q", rec.EventName)
	}
	if rec.EventKey != "allevents:ae-123" {
		t.Errorf("Expected derived event key, got %q", rec.EventKey)
	}
	if rec.StartDate != "2026-03-14" {
		t.Errorf("Expected normalized date, got %q", rec.StartDate)
	}
	if rec.StartTime != "19:00" {
		t.Errorf("Expected normalized time, got %q", rec.StartTime)
	}
	if rec.City != "Bangalore" {
		t.Errorf("Expected title-cased record city, got %q", rec.City)
	}
	if rec.Source != "allevents" {
		t.Errorf("Expected source stamped, got %q", rec.Source)
	}
}

func TestNormalizer_Run_CityDefault(t *testing.T) {
	n := New(DefaultLexicon())

	records := n.Run("eventbrite", "Bengaluru", []event.RawRecord{
		{EventID: "eb-1", EventName: "Talk", EventURL: "https://e.example/1"},
	})

	if records[0].City != "Bengaluru" {
		t.Errorf("Expected default city fill, got %q", records[0].City)
	}
}

func TestNormalizer_Run_URLFallback(t *testing.T) {
	n := New(DefaultLexicon())

	records := n.Run("eventbrite", "Bengaluru", []event.RawRecord{
		{EventID: "eb-2", EventName: "Talk", SourceURL: "https://e.example/listing/2"},
	})

	if records[0].EventURL != "https://e.example/listing/2" {
		t.Errorf("Expected source_url fallback, got %q", records[0].EventURL)
	}
}

func TestNormalizer_Run_PreservesExistingKey(t *testing.T) {
	n := New(DefaultLexicon())

	records := n.Run("allevents", "Bengaluru", []event.RawRecord{
		{EventID: "ae-9", EventKey: "collector-key-9", EventName: "Gig"},
	})

	if records[0].EventKey != "collector-key-9" {
		t.Errorf("Collector-stamped key must win, got %q", records[0].EventKey)
	}
}

func TestNormalizer_Run_KeylessRecord(t *testing.T) {
	n := New(DefaultLexicon())

	// No id and no key: stays keyless, the consolidator drops it later.
	records := n.Run("allevents", "Bengaluru", []event.RawRecord{
		{EventName: "Mystery"},
	})

	if records[0].EventKey != "" {
		t.Errorf("Expected empty key, got %q", records[0].EventKey)
	}
}

func TestNormalizer_Run_UnparseableFieldsDegrade(t *testing.T) {
	n := New(DefaultLexicon())

	records := n.Run("allevents", "Bengaluru", []event.RawRecord{
		{
			EventID:   "ae-7",
			EventName: "Sunset Jam",
			StartDate: "whenever",
			StartTime: "noon onwards",
		},
	})

	rec := records[0]
	if rec.StartDate != "" {
		t.Errorf("Unparseable date should be empty, got %q", rec.StartDate)
	}
	if rec.StartTime != "" {
		t.Errorf("Unparseable time should be empty, got %q", rec.StartTime)
	}
	if rec.AddressConfidence != event.ConfidenceLow {
		t.Errorf("City-only record should be low confidence, got %s", rec.AddressConfidence)
	}
}
