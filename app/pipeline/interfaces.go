package pipeline

import (
	"context"

	"github.com/blrtoday/eventpipe/app/event"
	"github.com/blrtoday/eventpipe/app/load"
)

type Loader interface {
	Run(ctx context.Context, master []event.Record) (*load.Summary, error)
}

var _ Loader = (*load.Loader)(nil)
