package load

import (
	"context"
	"testing"

	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/event"
)

func TestLoader_Run_CrossSourceDuplicateAgainstStore(t *testing.T) {
	store := &fakeStore{
		dedupIndex: []database.DedupRow{
			{
				URL:       "https://other.example/stored",
				Lat:       12.97,
				Long:      77.59,
				StartDate: "2026-03-14T19:00:00",
				Name:      "Indie Night at Fandom",
			},
		},
	}
	loader := NewLoader(&fakeGeocoder{}, store, Options{CrossSourceDedup: true})

	// Same venue coordinates, same evening, near-identical name, but a
	// different listing URL.
	summary, err := loader.Run(context.Background(), []event.Record{
		masterRecord("eb:1", "https://e.example/1", "Indie Night Fandom"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Skipped != 1 || summary.Inserted != 0 {
		t.Errorf("Expected the batch row to be dropped, got %+v", summary)
	}
	if summary.CrossDupes != 1 {
		t.Errorf("Expected the drop to be counted as a cross dupe, got %+v", summary)
	}
}

func TestLoader_Run_CrossSourceDedupDisabledByDefault(t *testing.T) {
	store := &fakeStore{
		dedupIndex: []database.DedupRow{
			{URL: "https://other.example/stored", Lat: 12.97, Long: 77.59,
				StartDate: "2026-03-14T19:00:00", Name: "Indie Night at Fandom"},
		},
	}
	loader := NewLoader(&fakeGeocoder{}, store, Options{})

	summary, err := loader.Run(context.Background(), []event.Record{
		masterRecord("eb:1", "https://e.example/1", "Indie Night Fandom"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Inserted != 1 || summary.CrossDupes != 0 {
		t.Errorf("Dedup pass must be opt-in, got %+v", summary)
	}
}

func TestLoader_Run_WithinBatchDuplicate(t *testing.T) {
	store := &fakeStore{}
	loader := NewLoader(&fakeGeocoder{}, store, Options{CrossSourceDedup: true})

	summary, err := loader.Run(context.Background(), []event.Record{
		masterRecord("a:1", "https://a.example/1", "Indie Night at Fandom"),
		masterRecord("e:1", "https://e.example/1", "Indie Night Fandom"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Inserted != 1 || summary.Skipped != 1 || summary.CrossDupes != 1 {
		t.Errorf("Expected one kept and one dropped, got %+v", summary)
	}
	// The earlier row wins.
	if len(store.upserts) != 1 || store.upserts[0].URL != "https://a.example/1" {
		t.Errorf("Wrong row survived: %+v", store.upserts)
	}
}

func TestIsDuplicate(t *testing.T) {
	base := dedupRef{
		url:   "https://a.example/1",
		lat:   12.9700,
		long:  77.5900,
		start: "2026-03-14T19:00:00",
		name:  "Indie Night at Fandom",
	}

	tests := []struct {
		name     string
		other    dedupRef
		expected bool
	}{
		{
			"near duplicate",
			dedupRef{url: "https://b.example/2", lat: 12.9701, long: 77.5901,
				start: "2026-03-14T19:30:00", name: "Indie Night Fandom"},
			true,
		},
		{
			"same url is not our concern",
			dedupRef{url: "https://a.example/1", lat: 12.9700, long: 77.5900,
				start: "2026-03-14T19:00:00", name: "Indie Night at Fandom"},
			false,
		},
		{
			"too far away",
			dedupRef{url: "https://b.example/2", lat: 12.9900, long: 77.5900,
				start: "2026-03-14T19:00:00", name: "Indie Night at Fandom"},
			false,
		},
		{
			"start times too far apart",
			dedupRef{url: "https://b.example/2", lat: 12.9700, long: 77.5900,
				start: "2026-03-14T10:00:00", name: "Indie Night at Fandom"},
			false,
		},
		{
			"unrelated names",
			dedupRef{url: "https://b.example/2", lat: 12.9700, long: 77.5900,
				start: "2026-03-14T19:00:00", name: "Morning Yoga Class"},
			false,
		},
		{
			"blank name falls through to geo and time",
			dedupRef{url: "https://b.example/2", lat: 12.9700, long: 77.5900,
				start: "2026-03-14T19:00:00", name: ""},
			true,
		},
	}

	for _, tt := range tests {
		if got := isDuplicate(base, tt.other); got != tt.expected {
			t.Errorf("%s: isDuplicate = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestHaversine(t *testing.T) {
	// Cubbon Park to MG Road metro, roughly 1.1 km.
	d := haversine(12.9763, 77.5929, 12.9757, 77.6033)
	if d < 1000 || d > 1300 {
		t.Errorf("Unexpected distance: %.0f m", d)
	}

	if haversine(12.97, 77.59, 12.97, 77.59) != 0 {
		t.Error("Identical points should be 0 m apart")
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"Indie Night at Fandom", "Indie Night Fandom", 0.99, 1.0},
		{"Indie Night at Fandom", "Morning Yoga Class", 0.0, 0.01},
		{"", "Anything", 0.99, 1.0},
		{"The at of", "Something Else", 0.99, 1.0},
	}

	for _, tt := range tests {
		got := nameSimilarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("nameSimilarity(%q, %q) = %.2f, expected in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestGridNeighborLookup(t *testing.T) {
	b := make(dedupBucket)

	// Two points within 500 m but in adjacent grid cells.
	stored := dedupRef{url: "https://a.example/1", lat: 12.9749, long: 77.59,
		start: "2026-03-14T19:00:00", name: "Gig"}
	b.add(stored)

	query := dedupRef{url: "https://b.example/2", lat: 12.9751, long: 77.59,
		start: "2026-03-14T19:00:00", name: "Gig"}

	if _, ok := b.findMatch(query); !ok {
		t.Error("Neighbor-cell candidate should be found")
	}

	// Same place, different date: no match.
	otherDate := query
	otherDate.start = "2026-03-15T19:00:00"
	if _, ok := b.findMatch(otherDate); ok {
		t.Error("Different calendar date must not match")
	}
}
