package normalize

import (
	"testing"

	"github.com/blrtoday/eventpipe/app/event"
)

func TestResolveVenue_FullAddress(t *testing.T) {
	n := New(DefaultLexicon())

	addr, conf := n.resolveVenue(
		"Microsoft India Office",
		"One Microsoft, Outer Ring Road, Devarabeesanahalli",
		"Bangalore")

	expected := "Microsoft India Office, One Microsoft, Outer Ring Road, Devarabeesanahalli, Bangalore"
	if addr != expected {
		t.Errorf("Expected address %q, got %q", expected, addr)
	}
	if conf != event.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", conf)
	}
}

func TestResolveVenue_MarketingTitleAsVenue(t *testing.T) {
	n := New(DefaultLexicon())

	// A scraped activity title in the venue field must not survive as
	// a venue name, and a city-only address scores low.
	addr, conf := n.resolveVenue("Learn Data Science Workshop", "Bangalore", "Bangalore")

	if addr != "Bangalore" {
		t.Errorf("Expected city-only address, got %q", addr)
	}
	if conf != event.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", conf)
	}
}

func TestResolveVenue_PlaceholderVenue(t *testing.T) {
	n := New(DefaultLexicon())

	for _, placeholder := range []string{"TBA", "venue", "Online", "n/a"} {
		addr, _ := n.resolveVenue(placeholder, "", "Bengaluru")
		if addr != "Bengaluru" {
			t.Errorf("Placeholder %q should resolve to city only, got %q", placeholder, addr)
		}
	}
}

func TestResolveVenue_NoInformation(t *testing.T) {
	n := New(DefaultLexicon())

	addr, conf := n.resolveVenue("", "", "")
	if addr != "" {
		t.Errorf("Expected empty address, got %q", addr)
	}
	if conf != event.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", conf)
	}
}

func TestResolveVenue_MediumConfidence(t *testing.T) {
	n := New(DefaultLexicon())

	// A named venue without any digit, noun, or postal signal.
	addr, conf := n.resolveVenue("The Humming Tree", "", "Bengaluru")
	if addr != "The Humming Tree, Bengaluru" {
		t.Errorf("Unexpected address %q", addr)
	}
	if conf != event.ConfidenceMedium {
		t.Errorf("Expected medium confidence, got %s", conf)
	}
}

func TestResolveVenue_PostalCodeSignal(t *testing.T) {
	n := New(DefaultLexicon())

	_, conf := n.resolveVenue("Bangalore Palace", "Vasanth Nagar 560052", "Bengaluru")
	if conf != event.ConfidenceHigh {
		t.Errorf("Postal code should score high confidence, got %s", conf)
	}
}

func TestDedupeCity(t *testing.T) {
	n := New(DefaultLexicon())

	tests := []struct {
		address  string
		city     string
		expected string
	}{
		{"Koramangala, Bangalore", "Bengaluru", "Koramangala, Bengaluru"},
		{"Indiranagar, Bangalore, Bengaluru", "Bengaluru", "Indiranagar, Bengaluru"},
		{"", "Bengaluru", "Bengaluru"},
		{"HSR Layout", "Bengaluru", "HSR Layout, Bengaluru"},
	}

	for _, tt := range tests {
		got := n.dedupeCity(tt.address, tt.city)
		if got != tt.expected {
			t.Errorf("dedupeCity(%q, %q) = %q, expected %q", tt.address, tt.city, got, tt.expected)
		}
	}
}

func TestLooksLikeVenueName_OverlongText(t *testing.T) {
	n := New(DefaultLexicon())

	long := "Join us for an evening of music and food at the rooftop cafe near the lake with panoramic views of the entire city skyline"
	if n.looksLikeVenueName(long) {
		t.Error("Over-long text should not pass as a venue name")
	}
	if !n.looksLikeVenueName("Cubbon Hall") {
		t.Error("Plain venue name should pass")
	}
}
