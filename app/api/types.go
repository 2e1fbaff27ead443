package api

import (
	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/sources"
	"github.com/blrtoday/eventpipe/app/tasks"
)

type EventStoreInterface interface {
	GetEvents(filter database.EventFilter) ([]database.Event, error)
	GetEventCount() (int, error)
	GetSourceCounts() (map[string]int, error)
}

var _ EventStoreInterface = (*database.EventRepository)(nil)

type Handler struct {
	eventRepo   EventStoreInterface
	configCache *sources.ConfigCache
	runner      tasks.PipelineRunner
	scheduler   tasks.TaskSchedulerInterface
}
