package tasks

import (
	"context"

	"github.com/blrtoday/eventpipe/app/pipeline"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// PipelineRunner is what pipeline tasks execute against.
type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

var _ PipelineRunner = (*pipeline.Runner)(nil)
