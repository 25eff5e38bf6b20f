package feedback

import "context"

// Repository port for the append-only feedback log
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Latest(ctx context.Context, limit int) ([]*Event, error)
}
