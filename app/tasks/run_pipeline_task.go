package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type RunPipelineTask struct {
	Task
	runner PipelineRunner
}

func NewRunPipelineTask(trigger string, runner PipelineRunner) *RunPipelineTask {
	return &RunPipelineTask{
		Task:   NewTask(TaskTypeRunPipeline, trigger),
		runner: runner,
	}
}

func (t *RunPipelineTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "RunPipeline",
		"trigger", t.Trigger,
		"run_id", report.RunID,
		"duration", t.GetDuration(),
		"consolidated", report.Consolidated,
		"loaded", report.Loaded,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return nil
}
