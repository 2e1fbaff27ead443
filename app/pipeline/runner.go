package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blrtoday/eventpipe/app/consolidate"
	"github.com/blrtoday/eventpipe/app/event"
	"github.com/blrtoday/eventpipe/app/normalize"
	"github.com/blrtoday/eventpipe/app/sources"
)

// Checkpoint file layout under the data dir. Raw collector output
// lives at the data dir root; each completed stage writes its output
// here so an aborted run can resume from the last finished stage.
const (
	checkpointDir  = "cleaned_data"
	masterFileName = "events_master.json"
)

// Options select which stages a run executes. A skipped stage reads
// its predecessor's checkpoint from disk instead of recomputing it.
type Options struct {
	SkipNormalize   bool
	SkipConsolidate bool
	SkipLoad        bool
}

// Runner drives the batch pipeline: per-source normalize, cross-source
// consolidate, then the side-effecting load. Stages are strictly
// ordered; within the normalize stage sources are independent and run
// concurrently.
type Runner struct {
	configCache  *sources.ConfigCache
	normalizer   *normalize.Normalizer
	consolidator *consolidate.Consolidator
	loader       Loader
	dataDir      string
	opts         Options
}

func NewRunner(configCache *sources.ConfigCache, normalizer *normalize.Normalizer,
	consolidator *consolidate.Consolidator, loader Loader, dataDir string, opts Options) *Runner {
	return &Runner{
		configCache:  configCache,
		normalizer:   normalizer,
		consolidator: consolidator,
		loader:       loader,
		dataDir:      dataDir,
		opts:         opts,
	}
}

// Run executes the pipeline end to end and always returns a report,
// even on a fatal error, so operators see how far the run got.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	slog.Info("Pipeline run started", "run_id", report.RunID)

	normalized, err := r.normalizeStage(ctx, report)
	if err != nil {
		return report, fmt.Errorf("normalize stage: %w", err)
	}

	master, err := r.consolidateStage(normalized, report)
	if err != nil {
		return report, fmt.Errorf("consolidate stage: %w", err)
	}

	if r.opts.SkipLoad {
		slog.Info("Load stage skipped", "run_id", report.RunID)
		report.Log()
		return report, nil
	}

	summary, err := r.loader.Run(ctx, master)
	if summary != nil {
		report.Geocoded = summary.Geocoded
		report.Inserted = summary.Inserted
		report.Updated = summary.Updated
		report.Loaded = summary.Inserted + summary.Updated
		report.Skipped = summary.Skipped
		report.Failed = summary.Failed
		report.CrossDupes = summary.CrossDupes
	}
	if err != nil {
		return report, fmt.Errorf("load stage: %w", err)
	}

	report.Log()
	return report, nil
}

// normalizeStage reads each enabled source's raw records and runs the
// normalizer over them, one worker per source. Per-source failures are
// isolated; the stage is fatal only when no source input is readable.
func (r *Runner) normalizeStage(ctx context.Context, report *Report) (map[string][]event.Record, error) {
	configs := r.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		return nil, fmt.Errorf("no enabled sources configured")
	}

	if r.opts.SkipNormalize {
		return r.resumeNormalized(configs, report)
	}

	normalized := make(map[string][]event.Record, len(configs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	readable := 0

	for _, config := range configs {
		wg.Add(1)
		go func(config *sources.Config) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			raws, err := r.readRawRecords(config)
			if err != nil {
				slog.Warn("Failed to read source input, skipping source",
					"source", config.Name, "input", config.Settings.Input, "error", err)
				return
			}

			records := r.normalizer.Run(config.Name, config.Settings.City, raws)

			if err := writeRecords(r.checkpointPath(config.Name), records); err != nil {
				slog.Warn("Failed to write source checkpoint", "source", config.Name, "error", err)
			}

			mu.Lock()
			defer mu.Unlock()
			readable++
			normalized[config.Name] = records
			report.Sources = append(report.Sources, SourceReport{
				Source:     config.Name,
				Processed:  len(raws),
				Normalized: len(records),
			})
			report.Processed += len(raws)
			report.Normalized += len(records)
		}(config)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if readable == 0 {
		return nil, fmt.Errorf("no source input could be read")
	}

	return normalized, nil
}

// resumeNormalized loads the per-source checkpoints left by a previous
// run instead of re-normalizing.
func (r *Runner) resumeNormalized(configs []*sources.Config, report *Report) (map[string][]event.Record, error) {
	normalized := make(map[string][]event.Record, len(configs))
	readable := 0

	for _, config := range configs {
		records, err := readRecords(r.checkpointPath(config.Name))
		if err != nil {
			slog.Warn("Failed to read source checkpoint, skipping source",
				"source", config.Name, "error", err)
			continue
		}
		readable++
		normalized[config.Name] = records
		report.Sources = append(report.Sources, SourceReport{
			Source:     config.Name,
			Processed:  len(records),
			Normalized: len(records),
		})
		report.Processed += len(records)
		report.Normalized += len(records)
	}

	if readable == 0 {
		return nil, fmt.Errorf("no source checkpoint could be read")
	}
	return normalized, nil
}

func (r *Runner) consolidateStage(normalized map[string][]event.Record, report *Report) ([]event.Record, error) {
	if r.opts.SkipConsolidate {
		master, err := readRecords(r.masterPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read master checkpoint: %w", err)
		}
		report.Consolidated = len(master)
		return master, nil
	}

	// Concatenate sources in stable name order so output is deterministic.
	var all []event.Record
	for _, config := range r.configCache.GetEnabledConfigs() {
		all = append(all, normalized[config.Name]...)
	}

	master, stats := r.consolidator.Run(all)
	report.Dropped = stats.Dropped
	report.Deduplicated = stats.Collapsed
	report.Consolidated = stats.Output

	if err := writeRecords(r.masterPath(), master); err != nil {
		return nil, fmt.Errorf("failed to write master checkpoint: %w", err)
	}

	return master, nil
}

func (r *Runner) readRawRecords(config *sources.Config) ([]event.RawRecord, error) {
	data, err := os.ReadFile(filepath.Join(r.dataDir, config.Settings.Input))
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var raws []event.RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	return raws, nil
}

func (r *Runner) checkpointPath(sourceName string) string {
	return filepath.Join(r.dataDir, checkpointDir, sourceName+"_cleaned.json")
}

func (r *Runner) masterPath() string {
	return filepath.Join(r.dataDir, checkpointDir, masterFileName)
}

func readRecords(path string) ([]event.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var records []event.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return records, nil
}

func writeRecords(path string, records []event.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	// Write-then-rename keeps a crashed run from leaving a truncated
	// checkpoint behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize checkpoint: %w", err)
	}
	return nil
}
