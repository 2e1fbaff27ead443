package database

// Event is one stored catalog row. Date columns hold ISO-8601 text;
// SQLite has no native timestamp type and the map UI consumes strings
// anyway.
type Event struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	URL               string  `json:"url"`
	Image             string  `json:"image,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date,omitempty"`
	Venue             string  `json:"venue,omitempty"`
	Address           string  `json:"address,omitempty"`
	Lat               float64 `json:"lat"`
	Long              float64 `json:"long"`
	Organizer         string  `json:"organizer,omitempty"`
	Category          string  `json:"category,omitempty"`
	Source            string  `json:"source"`
	AddressConfidence string  `json:"address_confidence"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// DedupRow is the lightweight projection the cross-source dedup pass
// indexes existing rows by.
type DedupRow struct {
	URL       string
	Lat       float64
	Long      float64
	StartDate string
	Name      string
}

// EventFilter narrows a catalog query. Zero values mean "no bound".
type EventFilter struct {
	From    string // inclusive lower bound on start_date (YYYY-MM-DD)
	To      string // inclusive upper bound on start_date
	MinLat  float64
	MaxLat  float64
	MinLong float64
	MaxLong float64
	HasBBox bool
	Limit   int
}
