package pipeline

import (
	"log/slog"
	"time"
)

// SourceReport counts one source's normalize stage.
type SourceReport struct {
	Source     string `json:"source"`
	Processed  int    `json:"processed"`
	Normalized int    `json:"normalized"`
}

// Report summarizes one full pipeline run. Operators read it to see
// how much of the catalog is trustworthy after the run; the counts
// satisfy Loaded+Skipped+Failed == Consolidated whenever the load
// stage ran to completion.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Sources []SourceReport `json:"sources"`

	Processed    int `json:"processed"`
	Normalized   int `json:"normalized"`
	Dropped      int `json:"dropped"`
	Deduplicated int `json:"deduplicated"`
	Consolidated int `json:"consolidated"`

	Geocoded   int `json:"geocoded"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Loaded     int `json:"loaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	CrossDupes int `json:"cross_dupes"`
}

// Log emits the run summary as one structured record per stage.
func (r *Report) Log() {
	slog.Info("Run summary: normalize",
		"run_id", r.RunID,
		"sources", len(r.Sources),
		"processed", r.Processed,
		"normalized", r.Normalized)
	slog.Info("Run summary: consolidate",
		"run_id", r.RunID,
		"dropped", r.Dropped,
		"deduplicated", r.Deduplicated,
		"consolidated", r.Consolidated)
	slog.Info("Run summary: load",
		"run_id", r.RunID,
		"geocoded", r.Geocoded,
		"inserted", r.Inserted,
		"updated", r.Updated,
		"loaded", r.Loaded,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"cross_dupes", r.CrossDupes,
		"duration", r.Duration.String())
}
