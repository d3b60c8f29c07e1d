package service

import (
	"CommentUI/internal/models"
	"context"
	"encoding/json"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, draft models.Draft, parent string) (*models.Comment, error) {
	args := m.Called(ctx, draft, parent)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, draft models.Draft, existing *models.Comment) (*models.Comment, error) {
	args := m.Called(ctx, id, draft, existing)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
