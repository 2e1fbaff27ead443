package consolidate

import (
	"reflect"
	"testing"

	"github.com/blrtoday/eventpipe/app/event"
)

func TestConsolidator_Run_CollapsesByKey(t *testing.T) {
	c := NewConsolidator()

	records := []event.Record{
		{EventKey: "allevents:1", EventURL: "https://a.example/1", EventName: "Gig", StartDate: "2026-03-14"},
		{EventKey: "allevents:1", EventURL: "https://a.example/1", EventName: "Gig", StartDate: "2026-03-14", VenueName: "Fandom"},
	}

	master, stats := c.Run(records)

	if len(master) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(master))
	}
	if stats.Collapsed != 1 {
		t.Errorf("Expected 1 collapsed, got %d", stats.Collapsed)
	}
	// The more complete record survives.
	if master[0].VenueName != "Fandom" {
		t.Errorf("Expected venue from more complete record, got %q", master[0].VenueName)
	}
}

func TestConsolidator_Run_CollapsesByURL(t *testing.T) {
	c := NewConsolidator()

	// Same listing reached through two sources sharing the ticket URL.
	records := []event.Record{
		{EventKey: "allevents:1", EventURL: "https://tickets.example/9", EventName: "Gig", StartDate: "2026-03-14"},
		{EventKey: "eventbrite:7", EventURL: "https://tickets.example/9", EventName: "Gig", StartDate: "2026-03-14", OrganizerName: "Third Wave"},
	}

	master, stats := c.Run(records)

	if len(master) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(master))
	}
	if stats.Collapsed != 1 {
		t.Errorf("Expected 1 collapsed, got %d", stats.Collapsed)
	}
	if master[0].OrganizerName != "Third Wave" {
		t.Errorf("Expected organizer filled from merged record, got %q", master[0].OrganizerName)
	}
}

func TestConsolidator_Run_DropsKeylessRecords(t *testing.T) {
	c := NewConsolidator()

	records := []event.Record{
		{EventName: "Mystery", EventURL: "https://a.example/x"},
		{EventKey: "allevents:2", EventURL: "https://a.example/2", EventName: "Kept"},
	}

	master, stats := c.Run(records)

	if len(master) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(master))
	}
	if stats.Dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", stats.Dropped)
	}
	if master[0].EventName != "Kept" {
		t.Errorf("Wrong record survived: %q", master[0].EventName)
	}
}

func TestConsolidator_Run_URLlessRecordsStandAlone(t *testing.T) {
	c := NewConsolidator()

	records := []event.Record{
		{EventKey: "allevents:1", EventName: "A"},
		{EventKey: "allevents:2", EventName: "B"},
	}

	master, _ := c.Run(records)

	if len(master) != 2 {
		t.Fatalf("URL-less records must not collapse together, got %d", len(master))
	}
}

func TestConsolidator_Run_Deterministic(t *testing.T) {
	c := NewConsolidator()

	records := []event.Record{
		{EventKey: "b:2", EventURL: "https://b.example/2", StartDate: "2026-04-01"},
		{EventKey: "a:1", EventURL: "https://a.example/1", StartDate: "2026-03-14"},
		{EventKey: "c:3", EventURL: "https://c.example/3", StartDate: "2026-03-14"},
	}

	first, _ := c.Run(records)
	second, _ := c.Run(records)

	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated runs over identical input must produce identical output")
	}

	// Sorted by start date, then URL.
	if first[0].EventKey != "a:1" || first[1].EventKey != "c:3" || first[2].EventKey != "b:2" {
		t.Errorf("Unexpected order: %s, %s, %s", first[0].EventKey, first[1].EventKey, first[2].EventKey)
	}
}

func TestConsolidator_Run_Stats(t *testing.T) {
	c := NewConsolidator()

	records := []event.Record{
		{EventKey: "a:1", EventURL: "https://a.example/1"},
		{EventKey: "a:1", EventURL: "https://a.example/1"},
		{EventName: "keyless"},
	}

	_, stats := c.Run(records)

	if stats.Input != 3 || stats.Dropped != 1 || stats.Collapsed != 1 || stats.Output != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
