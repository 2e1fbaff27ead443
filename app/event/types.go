package event

// Confidence is the tri-level trust score attached to a resolved
// venue/address string.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RawRecord is one loosely-typed scraped record as emitted by a source
// collector. Every field is optional; collectors disagree about which
// ones they can fill in.
type RawRecord struct {
	EventID       string   `json:"event_id"`
	EventName     string   `json:"event_name"`
	EventURL      string   `json:"event_url"`
	SourceURL     string   `json:"source_url"`
	TicketURL     string   `json:"ticket_url"`
	TicketPrice   string   `json:"ticket_price"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	StartDate     string   `json:"start_date"`
	StartTime     string   `json:"start_time"`
	EndDate       string   `json:"end_date"`
	EndTime       string   `json:"end_time"`
	VenueName     string   `json:"venue_name"`
	VenueAddress  string   `json:"venue_address"`
	OrganizerName string   `json:"organizer_name"`
	City          string   `json:"city"`
	Source        string   `json:"source"`
	LastUpdated   string   `json:"last_updated"`
	EventKey      string   `json:"event_key"`
}

// Record is the canonical event shape shared by the normalize and
// consolidate stages. The same JSON layout is written to the stage
// checkpoint files, so a run can resume from either intermediate.
//
// Empty string means "absent"; the normalizer never fails a record,
// it degrades fields to empty instead.
type Record struct {
	EventID              string     `json:"event_id"`
	EventKey             string     `json:"event_key"`
	EventName            string     `json:"event_name"`
	EventURL             string     `json:"event_url"`
	Source               string     `json:"source"`
	StartDate            string     `json:"start_date"`
	StartTime            string     `json:"start_time"`
	EndDate              string     `json:"end_date"`
	EndTime              string     `json:"end_time"`
	VenueName            string     `json:"venue_name"`
	VenueAddress         string     `json:"venue_address"`
	ResolvedVenueAddress string     `json:"resolved_venue_address"`
	AddressConfidence    Confidence `json:"address_confidence"`
	OrganizerName        string     `json:"organizer_name"`
	Categories           []string   `json:"categories"`
	Description          string     `json:"description"`
	TicketPrice          string     `json:"ticket_price"`
	TicketURL            string     `json:"ticket_url"`
	City                 string     `json:"city"`
	LastUpdated          string     `json:"last_updated"`
}

// Completeness counts the non-empty canonical fields of a record. The
// consolidator uses it as a merge tie-break.
func (r Record) Completeness() int {
	fields := []string{
		r.EventID, r.EventName, r.EventURL,
		r.StartDate, r.StartTime, r.EndDate, r.EndTime,
		r.VenueName, r.VenueAddress, r.ResolvedVenueAddress,
		r.OrganizerName, r.Description, r.TicketPrice, r.TicketURL,
		r.City,
	}

	count := 0
	for _, f := range fields {
		if f != "" {
			count++
		}
	}
	if len(r.Categories) > 0 {
		count++
	}
	return count
}

// ConfidenceRank maps a confidence level to a comparable weight.
// Unknown values rank below low so malformed checkpoint data never
// wins a merge.
func ConfidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}
