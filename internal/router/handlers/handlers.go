package handlers

import (
	"CommentUI/internal/form"
	"CommentUI/internal/models"
	"CommentUI/internal/router/middleware"
	"CommentUI/internal/service"
	"CommentUI/internal/web"
	"bytes"
	"context"
	"errors"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
	"net/url"
	"strings"
)

const pageTitle = "Comments"

type CommentHandler struct {
	service *service.Service
	render  *web.Renderer
	log     *zap.Logger
}

func NewCommentHandler(service *service.Service, render *web.Renderer, log *zap.Logger) *CommentHandler {
	return &CommentHandler{service: service, render: render, log: log.Named("handlers")}
}

// Home renders the create form and the comment list, loading the list first when needed.
func (h *CommentHandler) Home(c *ginext.Context) {
	h.renderHome(c, http.StatusOK, form.New(logger(c)), nil)
}

func (h *CommentHandler) CreateComment(c *ginext.Context) {
	log := logger(c)
	log.Debug("Creating comment")
	f := form.New(log)
	f.Draft = draftFrom(c)

	err := f.Submit(c.Request.Context(), func(ctx context.Context, d models.Draft) error {
		_, err := h.service.Create(ctx, sessionID(c), d, "")
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		h.renderHome(c, http.StatusUnprocessableEntity, f, nil)
	case err != nil:
		h.renderHome(c, http.StatusBadGateway, f, nil)
	default:
		log.Debug("Created comment")
		redirect(c, "/")
	}
}

// Retry is the "Try again" button of the error panel.
func (h *CommentHandler) Retry(c *ginext.Context) {
	if err := h.service.Retry(c.Request.Context(), sessionID(c)); err != nil {
		h.renderError(c, http.StatusInternalServerError, "Failed to reload comments", err)
		return
	}
	redirect(c, "/")
}

func (h *CommentHandler) EditComment(c *ginext.Context) {
	id := c.Param("id")
	if _, err := h.service.StartEdit(c.Request.Context(), sessionID(c), id); err != nil {
		h.renderLookupError(c, id, err)
		return
	}
	redirect(c, anchor(id))
}

func (h *CommentHandler) CancelEdit(c *ginext.Context) {
	id := c.Param("id")
	if err := h.service.CancelEdit(c.Request.Context(), sessionID(c), id); err != nil {
		h.renderError(c, http.StatusInternalServerError, "Failed to cancel editing", err)
		return
	}
	redirect(c, anchor(id))
}

func (h *CommentHandler) UpdateComment(c *ginext.Context) {
	log := logger(c)
	id := c.Param("id")
	sid := sessionID(c)
	log.Debug("Updating comment", zap.String("id", id))

	existing, err := h.service.Comment(c.Request.Context(), sid, id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}
	f := form.NewEdit(existing, log)
	f.Draft = draftFrom(c)

	err = f.Submit(c.Request.Context(), func(ctx context.Context, d models.Draft) error {
		_, err := h.service.Update(ctx, sid, id, d)
		return err
	})
	if err == nil {
		log.Debug("Updated comment", zap.String("id", id))
		redirect(c, anchor(id))
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, form.ErrInvalid) {
		status = http.StatusUnprocessableEntity
	}
	// Keep the item in edit mode so the rejected draft is shown in place.
	if _, editErr := h.service.StartEdit(c.Request.Context(), sid, id); editErr != nil {
		h.renderLookupError(c, id, editErr)
		return
	}
	h.renderHome(c, status, form.New(log), map[string]*form.Form{id: f})
}

// ConfirmDelete asks before anything is sent to the API.
func (h *CommentHandler) ConfirmDelete(c *ginext.Context) {
	id := c.Param("id")
	comment, err := h.service.Comment(c.Request.Context(), sessionID(c), id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}
	h.renderHTML(c, http.StatusOK, "confirm_delete", web.ConfirmPage{Title: pageTitle, Comment: comment})
}

func (h *CommentHandler) DeleteComment(c *ginext.Context) {
	log := logger(c)
	id := c.Param("id")
	log.Debug("Deleting comment", zap.String("id", id))

	err := h.service.Delete(c.Request.Context(), sessionID(c), id)
	if errors.Is(err, service.ErrCommentNotFound) {
		h.renderLookupError(c, id, err)
		return
	}
	if err != nil {
		// The failure is already queued as a flash for the next page.
		log.Error("Failed to delete comment", zap.String("id", id), zap.Error(err))
	}
	redirect(c, "/")
}

func (h *CommentHandler) ReplyForm(c *ginext.Context) {
	id := c.Param("id")
	parent, err := h.service.Comment(c.Request.Context(), sessionID(c), id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}
	h.renderReply(c, http.StatusOK, parent, form.New(logger(c)))
}

func (h *CommentHandler) CreateReply(c *ginext.Context) {
	log := logger(c)
	parentID := c.Param("id")
	sid := sessionID(c)
	log.Debug("Creating reply", zap.String("parent", parentID))

	parent, err := h.service.Comment(c.Request.Context(), sid, parentID)
	if err != nil {
		h.renderLookupError(c, parentID, err)
		return
	}
	f := form.New(log)
	f.Draft = draftFrom(c)

	var created *models.Comment
	err = f.Submit(c.Request.Context(), func(ctx context.Context, d models.Draft) error {
		var err error
		created, err = h.service.Create(ctx, sid, d, parentID)
		return err
	})
	switch {
	case errors.Is(err, form.ErrInvalid):
		h.renderReply(c, http.StatusUnprocessableEntity, parent, f)
	case err != nil:
		h.renderReply(c, http.StatusBadGateway, parent, f)
	default:
		target := "/"
		if created.ID != "" {
			target = anchor(created.ID)
		}
		redirect(c, target)
	}
}

func (h *CommentHandler) Health(c *ginext.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *CommentHandler) NotFound(c *ginext.Context) {
	h.renderError(c, http.StatusNotFound, "Page not found", nil)
}

func (h *CommentHandler) renderHome(c *ginext.Context, status int, create *form.Form, edits map[string]*form.Form) {
	log := logger(c)
	view, err := h.service.View(c.Request.Context(), sessionID(c))
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, "Failed to load your session", err)
		return
	}
	page := web.Page{
		Title:      pageTitle,
		Flashes:    view.Flashes,
		CreateForm: web.NewCreateForm(create),
		Loading:    !view.Mounted,
		FetchError: view.FetchError,
		Items:      web.BuildItems(view, edits, log),
		Total:      service.Count(view.Comments),
	}
	h.renderHTML(c, status, "home", page)
}

func (h *CommentHandler) renderReply(c *ginext.Context, status int, parent *models.Comment, f *form.Form) {
	var flashes []models.Flash
	if status != http.StatusOK {
		view, err := h.service.View(c.Request.Context(), sessionID(c))
		if err == nil {
			flashes = view.Flashes
		}
	}
	h.renderHTML(c, status, "reply", web.ReplyPage{
		Title:   pageTitle,
		Flashes: flashes,
		Parent:  parent,
		Form:    web.NewReplyForm(parent.ID, f),
	})
}

func (h *CommentHandler) renderLookupError(c *ginext.Context, id string, err error) {
	if errors.Is(err, service.ErrCommentNotFound) {
		logger(c).Warn("Comment not found", zap.String("id", id))
		h.renderError(c, http.StatusNotFound, "Comment not found", nil)
		return
	}
	h.renderError(c, http.StatusInternalServerError, "Failed to load your session", err)
}

func (h *CommentHandler) renderError(c *ginext.Context, status int, msg string, err error) {
	if err != nil {
		logger(c).Error(msg, zap.Error(err))
	}
	h.renderHTML(c, status, "error", web.ErrorPage{Title: pageTitle, Status: status, Message: msg})
}

func (h *CommentHandler) renderHTML(c *ginext.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.render.Render(&buf, name, data); err != nil {
		logger(c).Error("Failed to render page", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func draftFrom(c *ginext.Context) models.Draft {
	return models.Draft{
		Text:  c.PostForm("text"),
		Image: strings.TrimSpace(c.PostForm("image")),
	}
}

func redirect(c *ginext.Context, target string) {
	c.Redirect(http.StatusSeeOther, target)
}

func anchor(id string) string {
	return "/#comment-" + url.PathEscape(id)
}

func sessionID(c *ginext.Context) string {
	return c.MustGet(middleware.SessionKey).(string)
}

func logger(c *ginext.Context) *zap.Logger {
	return c.MustGet(middleware.LoggerKey).(*zap.Logger)
}
