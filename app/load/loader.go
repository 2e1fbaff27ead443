package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/event"
	"github.com/blrtoday/eventpipe/app/geocode"
)

// Summary reports what one load pass did with the master set. The
// counts always satisfy Inserted+Updated+Skipped+Failed == Input.
type Summary struct {
	Input      int
	Geocoded   int // geocoding API calls that resolved coordinates
	CacheHits  int
	Inserted   int
	Updated    int
	Skipped    int
	Failed     int
	CrossDupes int // near-duplicates dropped by the cross-source pass (counted in Skipped)
}

// Options tune one load run.
type Options struct {
	// SkipGeocoding disables API calls; records without coordinates
	// are skipped.
	SkipGeocoding bool

	// CrossSourceDedup enables the geo+time near-duplicate pass
	// against already-stored rows before upserting.
	CrossSourceDedup bool

	// RegionContext is appended to geocode queries to anchor them
	// ("Bengaluru, Karnataka, India").
	RegionContext string

	// WorkerCount bounds concurrent geocoding calls.
	WorkerCount int
}

// Loader resolves master records to coordinates and upserts them into
// the store, idempotently and with per-record failure isolation.
type Loader struct {
	geocoder Geocoder
	store    EventStore
	opts     Options
}

func NewLoader(geocoder Geocoder, store EventStore, opts Options) *Loader {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	return &Loader{geocoder: geocoder, store: store, opts: opts}
}

type rowStatus int

const (
	rowReady rowStatus = iota
	rowSkipped
	rowFailed
)

type preparedRow struct {
	status rowStatus
	reason string
	row    database.Event
}

// Run loads the master set. Geocoding runs on a bounded worker pool;
// upserts run sequentially since SQLite has a single writer anyway.
// A non-nil error means the run was aborted (context cancellation or
// a fatal store failure); the summary still reflects work done so far.
func (l *Loader) Run(ctx context.Context, master []event.Record) (*Summary, error) {
	summary := &Summary{Input: len(master)}
	if len(master) == 0 {
		return summary, nil
	}

	cache := newGeocodeCache()
	prepared := make([]preparedRow, len(master))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < l.opts.WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				prepared[i] = l.prepare(ctx, master[i], cache)
			}
		}()
	}

	for i := range master {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	summary.Geocoded = cache.resolved
	summary.CacheHits = cache.hits

	if l.opts.CrossSourceDedup {
		dropped, err := l.markCrossSourceDuplicates(prepared)
		if err != nil {
			return summary, err
		}
		summary.CrossDupes = dropped
	}

	for i, p := range prepared {
		switch p.status {
		case rowSkipped:
			slog.Warn("Skipping record", "event_url", master[i].EventURL, "reason", p.reason)
			summary.Skipped++
			continue
		case rowFailed:
			slog.Error("Record failed", "event_url", master[i].EventURL, "reason", p.reason)
			summary.Failed++
			continue
		}

		inserted, err := l.store.UpsertEvent(p.row)
		if err != nil {
			slog.Error("Failed to upsert event", "event_url", p.row.URL, "error", err)
			summary.Failed++
			continue
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}

	return summary, nil
}

// prepare builds one storable row: eligibility checks first, then
// coordinate resolution through the per-run cache.
func (l *Loader) prepare(ctx context.Context, rec event.Record, cache *geocodeCache) preparedRow {
	if rec.EventName == "" {
		return preparedRow{status: rowSkipped, reason: "missing event name"}
	}
	if rec.EventURL == "" {
		return preparedRow{status: rowSkipped, reason: "missing event url"}
	}

	query := l.geocodeQuery(rec)
	if query == "" {
		return preparedRow{status: rowSkipped, reason: "no geocodable address"}
	}
	if l.opts.SkipGeocoding {
		return preparedRow{status: rowSkipped, reason: "geocoding disabled"}
	}

	res, err := cache.lookup(ctx, l.geocoder, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			return preparedRow{status: rowSkipped, reason: "address unresolvable: " + query}
		}
		if ctx.Err() != nil {
			return preparedRow{status: rowFailed, reason: "cancelled"}
		}
		return preparedRow{status: rowFailed, reason: fmt.Sprintf("geocoding failed: %v", err)}
	}

	return preparedRow{status: rowReady, row: l.buildRow(rec, res)}
}

func (l *Loader) buildRow(rec event.Record, coords *geocode.Result) database.Event {
	address := rec.ResolvedVenueAddress
	if address == "" {
		address = rec.VenueAddress
	}

	return database.Event{
		Name:              rec.EventName,
		Description:       rec.Description,
		URL:               rec.EventURL,
		StartDate:         combineDateTime(rec.StartDate, rec.StartTime),
		EndDate:           combineDateTime(rec.EndDate, rec.EndTime),
		Venue:             rec.VenueName,
		Address:           address,
		Lat:               coords.Lat,
		Long:              coords.Long,
		Organizer:         rec.OrganizerName,
		Category:          strings.Join(rec.Categories, ", "),
		Source:            rec.Source,
		AddressConfidence: string(rec.AddressConfidence),
	}
}

// geocodeQuery composes the lookup string. Low-confidence addresses
// are still geocoded; confidence informs trust downstream, not skip.
// Online-only events have nothing to geocode.
func (l *Loader) geocodeQuery(rec event.Record) string {
	address := rec.ResolvedVenueAddress
	if address == "" {
		address = strings.TrimSpace(strings.Join(nonEmpty(rec.VenueName, rec.VenueAddress), ", "))
	}
	if address == "" {
		return ""
	}
	if looksOnline(address) || looksOnline(rec.VenueName) {
		return ""
	}
	if l.opts.RegionContext != "" {
		return address + ", " + l.opts.RegionContext
	}
	return address
}

var onlineMarkers = []string{"online", "zoom", "google meet", "webinar", "virtual"}

func looksOnline(text string) bool {
	t := strings.ToLower(text)
	for _, marker := range onlineMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

// combineDateTime joins a normalized date and time into an ISO-8601
// timestamp string. A date without a time anchors at midnight.
func combineDateTime(date, timeOfDay string) string {
	if date == "" {
		return ""
	}
	if timeOfDay == "" {
		timeOfDay = "00:00"
	}
	return date + "T" + timeOfDay + ":00"
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

// geocodeCache memoizes address lookups for one run, successes and
// failures both, so repeated addresses cost one API call. Concurrent
// lookups for the same address collapse into a single in-flight call.
type geocodeCache struct {
	mu       sync.Mutex
	flight   singleflight.Group
	results  map[string]*geocode.Result
	errs     map[string]error
	hits     int
	resolved int
}

func newGeocodeCache() *geocodeCache {
	return &geocodeCache{
		results: make(map[string]*geocode.Result),
		errs:    make(map[string]error),
	}
}

func (c *geocodeCache) lookup(ctx context.Context, geocoder Geocoder, query string) (*geocode.Result, error) {
	c.mu.Lock()
	if res, ok := c.results[query]; ok {
		c.hits++
		c.mu.Unlock()
		return res, nil
	}
	if err, ok := c.errs[query]; ok {
		c.hits++
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	v, err, shared := c.flight.Do(query, func() (any, error) {
		res, err := geocoder.Geocode(ctx, query)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			// Do not cache cancellations; a resumed run should retry.
			if ctx.Err() == nil {
				c.errs[query] = err
			}
			return nil, err
		}
		c.results[query] = res
		c.resolved++
		return res, nil
	})

	if shared {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}
	return v.(*geocode.Result), nil
}
