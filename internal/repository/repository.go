package repository

import (
	"CommentUI/internal/models"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	listPath   = "/comments/all"
	createPath = "/comments/post"
	updatePath = "/comments/update/"
	deletePath = "/comments/delete/"

	maxLoggedBody = 4 << 10
)

// Author identifies who new comments are posted as.
type Author struct {
	Name   string
	UserID int64
}

// Repository talks to the external comments API. Every call is a single attempt.
type Repository struct {
	root   string
	client *http.Client
	author Author
	now    func() time.Time
	log    *zap.Logger
}

// NewRepository builds a client for the API rooted at apiRoot (base URL plus prefix).
// A zero timeout leaves the transport default in place.
func NewRepository(apiRoot string, timeout time.Duration, author Author, log *zap.Logger) (*Repository, error) {
	u, err := url.Parse(apiRoot)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", apiRoot)
	}
	return &Repository{
		root:   strings.TrimSuffix(apiRoot, "/"),
		client: &http.Client{Timeout: timeout},
		author: author,
		now:    time.Now,
		log:    log.Named("repository"),
	}, nil
}

// List returns the raw list payload. The caller normalises envelope shapes.
func (r *Repository) List(ctx context.Context) (json.RawMessage, error) {
	body, err := r.do(ctx, "list comments", http.MethodGet, listPath, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		r.log.Error("Empty list response")
		return nil, ErrUnexpectedFormat
	}
	return json.RawMessage(body), nil
}

// Create posts a new comment, or a reply when parent is not empty.
func (r *Repository) Create(ctx context.Context, draft models.Draft, parent string) (*models.Comment, error) {
	req := models.PostCommentRequest{
		UserID: r.author.UserID,
		Author: r.author.Name,
		Text:   draft.Text,
		Image:  draft.Image,
		Parent: parent,
	}
	body, err := r.do(ctx, "create comment", http.MethodPost, createPath, req)
	if err != nil {
		return nil, err
	}

	created := &models.Comment{}
	if err := json.Unmarshal(body, created); err == nil && created.ID != "" && created.Text != "" {
		return created, nil
	}

	var ack models.MutationResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		r.log.Error("Failed to decode create response", zap.Error(err), zap.ByteString("body", truncate(body)))
		return nil, fmt.Errorf("create comment: %w", ErrUnexpectedFormat)
	}
	return &models.Comment{
		ID:     ack.Identifier(),
		Parent: parent,
		Author: r.author.Name,
		Text:   draft.Text,
		Date:   r.now().UTC().Format(time.RFC3339),
		Likes:  0,
		Image:  draft.Image,
	}, nil
}

// Update changes text and image of comment id and returns existing merged with the response.
func (r *Repository) Update(ctx context.Context, id string, draft models.Draft, existing *models.Comment) (*models.Comment, error) {
	req := models.UpdateCommentRequest{Text: draft.Text, Image: draft.Image}
	body, err := r.do(ctx, "update comment", http.MethodPut, updatePath+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	if updated == nil {
		updated = &models.Comment{ID: id}
	}
	updated.Text = draft.Text
	updated.Image = draft.Image

	if len(bytes.TrimSpace(body)) == 0 {
		return updated, nil
	}
	var ack models.MutationResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		r.log.Error("Failed to decode update response", zap.Error(err), zap.ByteString("body", truncate(body)))
		return nil, fmt.Errorf("update comment: %w", ErrUnexpectedFormat)
	}
	if ack.Text != nil {
		updated.Text = *ack.Text
	}
	if ack.Image != nil {
		updated.Image = *ack.Image
	}
	return updated, nil
}

// Delete removes comment id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.do(ctx, "delete comment", http.MethodDelete, deletePath+url.PathEscape(id), nil)
	return err
}

func (r *Repository) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.root+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.log.Debug("Calling comments api", zap.String("op", op), zap.String("method", method), zap.String("url", req.URL.String()))
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Error("No response received", zap.String("op", op), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Error("Failed to read response body", zap.String("op", op), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Error("Comments api returned an error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Any("headers", resp.Header),
			zap.ByteString("body", truncate(body)),
		)
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Header: resp.Header, Body: string(truncate(body))}
	}
	return body, nil
}

func truncate(b []byte) []byte {
	if len(b) > maxLoggedBody {
		return b[:maxLoggedBody]
	}
	return b
}
