package sessions

import (
	"context"
	"time"
)

// Repo defines persistence operations for wizard sessions.
type Repo interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
	// DeleteIdle removes sessions not updated since cutoff and returns their ids.
	DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error)
}
