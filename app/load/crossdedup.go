package load

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
)

// Cross-source near-duplicate detection: the same real-world event
// listed by two sources under different URLs. Candidate pairs are
// blocked by ~500 m grid cell and calendar date, then scored on
// haversine distance, start-time proximity, and name-token overlap.
// Stored rows always win; within a batch the earlier row wins.

const (
	// Grid cell size in degrees. At Bangalore's latitude 0.005° is
	// roughly 550 m on both axes.
	gridStep = 0.005

	maxDistanceMeters = 500
	maxTimeDiff       = time.Hour
	minNameSimilarity = 0.3

	earthRadiusMeters = 6_371_000
)

type gridKey struct {
	row, col int
}

type dedupRef struct {
	url   string
	lat   float64
	long  float64
	start string
	name  string
}

type bucketKey struct {
	cell gridKey
	date string
}

type dedupBucket map[bucketKey][]dedupRef

// markCrossSourceDuplicates flags ready rows that near-duplicate an
// already-stored row or an earlier row in this batch, and returns how
// many rows it flagged. Flagged rows become skips; the upsert's url
// conflict handling covers exact URL matches already.
func (l *Loader) markCrossSourceDuplicates(prepared []preparedRow) (int, error) {
	existing, err := l.store.GetDedupIndex()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch dedup index: %w", err)
	}

	index := make(dedupBucket)
	for _, row := range existing {
		ref := dedupRef{url: row.URL, lat: row.Lat, long: row.Long, start: row.StartDate, name: row.Name}
		index.add(ref)
	}

	dropped := 0
	accepted := make(dedupBucket)
	for i := range prepared {
		if prepared[i].status != rowReady {
			continue
		}
		row := prepared[i].row
		ref := dedupRef{url: row.URL, lat: row.Lat, long: row.Long, start: row.StartDate, name: row.Name}

		if match, ok := index.findMatch(ref); ok {
			slog.Info("Dropping cross-source duplicate",
				"event_url", ref.url, "duplicate_of", match.url)
			prepared[i] = preparedRow{status: rowSkipped, reason: "cross-source duplicate of " + match.url}
			dropped++
			continue
		}
		if match, ok := accepted.findMatch(ref); ok {
			slog.Info("Dropping within-batch duplicate",
				"event_url", ref.url, "duplicate_of", match.url)
			prepared[i] = preparedRow{status: rowSkipped, reason: "cross-source duplicate of " + match.url}
			dropped++
			continue
		}

		accepted.add(ref)
	}

	return dropped, nil
}

func (b dedupBucket) add(ref dedupRef) {
	k := bucketKey{cellOf(ref.lat, ref.long), dateOf(ref.start)}
	b[k] = append(b[k], ref)
}

// findMatch scans the ref's cell and its 8 neighbours on the same
// calendar date.
func (b dedupBucket) findMatch(ref dedupRef) (dedupRef, bool) {
	cell := cellOf(ref.lat, ref.long)
	date := dateOf(ref.start)

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			neighbor := gridKey{cell.row + dr, cell.col + dc}
			for _, candidate := range b[bucketKey{neighbor, date}] {
				if isDuplicate(ref, candidate) {
					return candidate, true
				}
			}
		}
	}
	return dedupRef{}, false
}

func isDuplicate(a, b dedupRef) bool {
	// Exact URL matches are the upsert's job, not ours.
	if a.url != "" && b.url != "" && a.url == b.url {
		return false
	}
	if haversine(a.lat, a.long, b.lat, b.long) > maxDistanceMeters {
		return false
	}
	if diff, ok := startTimeDiff(a.start, b.start); ok && diff > maxTimeDiff {
		return false
	}
	return nameSimilarity(a.name, b.name) >= minNameSimilarity
}

func cellOf(lat, long float64) gridKey {
	return gridKey{
		row: int(math.Floor(lat / gridStep)),
		col: int(math.Floor(long / gridStep)),
	}
}

// dateOf extracts YYYY-MM-DD from an ISO timestamp string.
func dateOf(start string) string {
	if t, ok := parseISO(start); ok {
		return t.Format("2006-01-02")
	}
	return ""
}

func startTimeDiff(a, b string) (time.Duration, bool) {
	at, aok := parseISO(a)
	bt, bok := parseISO(b)
	if !aok || !bok {
		return 0, false
	}
	diff := at.Sub(bt)
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

func parseISO(ts string) (time.Time, bool) {
	clean := strings.TrimSuffix(strings.TrimSuffix(ts, "Z"), "+00:00")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// haversine returns the great-circle distance in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var nameStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "at": true, "in": true, "on": true,
	"of": true, "for": true, "and": true, "to": true, "with": true,
	"by": true, "is": true, "it": true, "this": true, "that": true,
	"from": true, "or": true, "as": true,
}

func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(name), -1) {
		if !nameStopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// nameSimilarity is the Jaccard similarity of the two names' token
// sets. Empty or all-stopword names compare as matching so blank names
// from a sloppy collector still fall through to the geo+time checks.
func nameSimilarity(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 1.0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}
