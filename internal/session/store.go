package session

import (
	"CommentUI/internal/models"
	"context"
)

// Store keeps one ViewState per browser session.
// Load returns a fresh ViewState for unknown sessions. Returned values are copies.
type Store interface {
	Load(ctx context.Context, id string) (*models.ViewState, error)
	Save(ctx context.Context, id string, state *models.ViewState) error
	Close() error
}
