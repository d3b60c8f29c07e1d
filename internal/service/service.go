package service

import (
	"CommentUI/internal/models"
	"CommentUI/internal/repository"
	"CommentUI/internal/session"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"hash/fnv"
	"sync"
)

const (
	msgLoadFailed   = "Failed to load comments"
	msgAddFailed    = "Failed to add comment"
	msgUpdateFailed = "Failed to update comment"
	msgDeleteFailed = "Failed to delete comment"

	msgAdded   = "Comment added successfully"
	msgReplied = "Reply added successfully"
	msgUpdated = "Comment updated successfully"
	msgDeleted = "Comment deleted successfully"

	lockStripes = 64
)

// ErrCommentNotFound is returned when an action targets an id that is not in the session's tree.
var ErrCommentNotFound = errors.New("comment not found")

type Repository interface {
	List(ctx context.Context) (json.RawMessage, error)
	Create(ctx context.Context, draft models.Draft, parent string) (*models.Comment, error)
	Update(ctx context.Context, id string, draft models.Draft, existing *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Service owns the per-session comment list: fetching, reconciliation after mutations,
// and the edit/delete state of individual items.
//
// API calls are never made while a session lock is held, so two mutations of the same
// session race and the one that resolves last wins.
type Service struct {
	repo  Repository
	store session.Store
	log   *zap.Logger
	locks [lockStripes]sync.Mutex
}

func NewService(repo Repository, store session.Store, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		log:   log.Named("service"),
	}
}

// View returns the session's state for rendering, fetching the list first when it is not mounted.
// Pending flashes are handed out once and cleared. A mounted session with nothing to hand out is
// not written back.
func (s *Service) View(ctx context.Context, sid string) (*models.ViewState, error) {
	current, err := s.snapshot(ctx, sid)
	if err != nil {
		return nil, err
	}
	if current.Mounted && len(current.Flashes) == 0 {
		return current, nil
	}

	var fetched []*models.Comment
	var fetchErr error
	if !current.Mounted {
		fetched, fetchErr = s.fetch(ctx)
	}

	var view *models.ViewState
	_, err = s.mutate(ctx, sid, func(state *models.ViewState) error {
		// A create during the fetch moved the refresh key; that result is already stale.
		if !current.Mounted && !state.Mounted && state.RefreshKey == current.RefreshKey {
			s.applyFetch(state, fetched, fetchErr)
		}
		view = state.Clone()
		state.Flashes = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Retry remounts the list, forcing a fresh fetch on the next View.
func (s *Service) Retry(ctx context.Context, sid string) error {
	_, err := s.mutate(ctx, sid, func(state *models.ViewState) error {
		state.Mounted = false
		return nil
	})
	return err
}

// Create posts a comment (or a reply when parent is set). On success the refresh key moves
// forward and the list is remounted.
func (s *Service) Create(ctx context.Context, sid string, draft models.Draft, parent string) (*models.Comment, error) {
	if parent != "" {
		state, err := s.snapshot(ctx, sid)
		if err != nil {
			return nil, err
		}
		if Find(state.Comments, parent) == nil {
			return nil, fmt.Errorf("reply to %s: %w", parent, ErrCommentNotFound)
		}
	}

	created, err := s.repo.Create(ctx, draft, parent)
	if err != nil {
		s.log.Error("Failed to create comment", zap.Error(err), zap.String("parent", parent))
		s.flash(ctx, sid, models.FlashError, msgAddFailed)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	_, err = s.mutate(ctx, sid, func(state *models.ViewState) error {
		state.RefreshKey++
		state.Mounted = false
		msg := msgAdded
		if parent != "" {
			msg = msgReplied
		}
		state.Flashes = append(state.Flashes, models.Flash{Kind: models.FlashSuccess, Message: msg})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Created comment", zap.String("id", created.ID), zap.String("parent", parent))
	return created, nil
}

// StartEdit switches the item to its edit form.
func (s *Service) StartEdit(ctx context.Context, sid, id string) (*models.Comment, error) {
	var target *models.Comment
	_, err := s.mutate(ctx, sid, func(state *models.ViewState) error {
		c := Find(state.Comments, id)
		if c == nil {
			return ErrCommentNotFound
		}
		state.Editing[id] = true
		target = c.Clone()
		return nil
	})
	return target, err
}

// CancelEdit returns the item to viewing.
func (s *Service) CancelEdit(ctx context.Context, sid, id string) error {
	_, err := s.mutate(ctx, sid, func(state *models.ViewState) error {
		delete(state.Editing, id)
		return nil
	})
	return err
}

// Comment returns a copy of comment id from the session's tree.
func (s *Service) Comment(ctx context.Context, sid, id string) (*models.Comment, error) {
	state, err := s.snapshot(ctx, sid)
	if err != nil {
		return nil, err
	}
	c := Find(state.Comments, id)
	if c == nil {
		return nil, ErrCommentNotFound
	}
	return c.Clone(), nil
}

// Update sends the draft for comment id and, once the API accepts it, replaces that comment
// wherever it sits in the tree. On failure the tree is left untouched and the item stays in edit mode.
func (s *Service) Update(ctx context.Context, sid, id string, draft models.Draft) (*models.Comment, error) {
	existing, err := s.Comment(ctx, sid, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, draft, existing)
	if err != nil {
		s.log.Error("Failed to update comment", zap.String("id", id), zap.Error(err))
		s.flash(ctx, sid, models.FlashError, msgUpdateFailed)
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	_, err = s.mutate(ctx, sid, func(state *models.ViewState) error {
		if !Replace(state.Comments, id, updated.Clone()) {
			s.log.Warn("Updated comment no longer in tree", zap.String("id", id))
		}
		delete(state.Editing, id)
		state.Flashes = append(state.Flashes, models.Flash{Kind: models.FlashSuccess, Message: msgUpdated})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete marks comment id as deleting, calls the API, and removes it (with its replies) from the tree
// on success. On failure the deleting mark is cleared.
func (s *Service) Delete(ctx context.Context, sid, id string) error {
	_, err := s.mutate(ctx, sid, func(state *models.ViewState) error {
		if Find(state.Comments, id) == nil {
			return ErrCommentNotFound
		}
		state.Deleting[id] = true
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete comment", zap.String("id", id), zap.Error(err))
		_, _ = s.mutate(ctx, sid, func(state *models.ViewState) error {
			delete(state.Deleting, id)
			state.Flashes = append(state.Flashes, models.Flash{Kind: models.FlashError, Message: msgDeleteFailed})
			return nil
		})
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	_, err = s.mutate(ctx, sid, func(state *models.ViewState) error {
		state.Comments, _ = Remove(state.Comments, id)
		delete(state.Deleting, id)
		delete(state.Editing, id)
		state.Flashes = append(state.Flashes, models.Flash{Kind: models.FlashSuccess, Message: msgDeleted})
		return nil
	})
	return err
}

func (s *Service) fetch(ctx context.Context) ([]*models.Comment, error) {
	raw, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := Normalize(raw)
	if err != nil {
		s.log.Error("Unexpected data format", zap.Error(err))
		return nil, err
	}
	s.log.Debug("Fetched comments", zap.Int("count", Count(comments)))
	return comments, nil
}

func (s *Service) applyFetch(state *models.ViewState, comments []*models.Comment, err error) {
	state.Mounted = true
	if err != nil {
		state.FetchError = repository.Message(err)
		state.Flashes = append(state.Flashes, models.Flash{Kind: models.FlashError, Message: msgLoadFailed})
		return
	}
	state.Comments = comments
	state.FetchError = ""
	state.Editing = map[string]bool{}
	state.Deleting = map[string]bool{}
}

func (s *Service) flash(ctx context.Context, sid string, kind models.FlashKind, msg string) {
	_, err := s.mutate(ctx, sid, func(state *models.ViewState) error {
		state.Flashes = append(state.Flashes, models.Flash{Kind: kind, Message: msg})
		return nil
	})
	if err != nil {
		s.log.Error("Failed to queue flash", zap.Error(err))
	}
}

func (s *Service) snapshot(ctx context.Context, sid string) (*models.ViewState, error) {
	state, err := s.store.Load(ctx, sid)
	if err != nil {
		s.log.Error("Failed to load session", zap.String("session", sid), zap.Error(err))
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return state, nil
}

// mutate applies fn to the session's state under the session lock and saves it.
func (s *Service) mutate(ctx context.Context, sid string, fn func(*models.ViewState) error) (*models.ViewState, error) {
	mu := &s.locks[stripe(sid)]
	mu.Lock()
	defer mu.Unlock()

	state, err := s.snapshot(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sid, state); err != nil {
		s.log.Error("Failed to save session", zap.String("session", sid), zap.Error(err))
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

func stripe(sid string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(sid))
	return h.Sum32() % lockStripes
}
