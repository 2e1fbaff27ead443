package load

import (
	"context"

	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/geocode"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

var _ Geocoder = (*geocode.Client)(nil)

type EventStore interface {
	UpsertEvent(ev database.Event) (bool, error)
	GetDedupIndex() ([]database.DedupRow, error)
}

var _ EventStore = (*database.EventRepository)(nil)
