package news

import (
	"context"
	"time"
)

// Article is the raw record shape every connector normalizes to.
type Article struct {
	Title       string
	Description string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Connector fetches raw records from one external source type.
// A connector isolates its own per-endpoint failures; an error return
// means the whole source contributed nothing this cycle.
type Connector interface {
	Fetch(ctx context.Context) ([]Article, error)
	Name() string
}
