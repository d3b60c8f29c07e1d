package session

import (
	"CommentUI/internal/models"
	"context"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
	"time"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	s, err := NewRedisStore(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	id := uuid.New().String()
	state := models.NewViewState()
	state.Comments = []*models.Comment{{ID: "1", Text: "root", Replies: []*models.Comment{{ID: "2", Parent: "1"}}}}
	state.Deleting["2"] = true
	require.NoError(t, s.Save(ctx, id, state))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	assert.Equal(t, "1", loaded.Comments[0].Replies[0].Parent)
	assert.True(t, loaded.Deleting["2"])
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "::::", time.Minute)
	assert.Error(t, err)
}
