package web

import (
	"CommentUI/internal/form"
	"CommentUI/internal/models"
	"go.uber.org/zap"
	"net/url"
)

// FormView is one comment form as rendered.
type FormView struct {
	Title        string
	Action       string
	Method       string
	SubmitLabel  string
	CancelAction string
	// CancelPost submits CancelAction as its own POST form instead of following a link.
	CancelPost bool
	Form       *form.Form
}

// Item is one comment and, recursively, its replies.
type Item struct {
	Comment  *models.Comment
	Depth    int
	Editing  bool
	Deleting bool
	EditForm *FormView
	Replies  []Item
}

// Page is the data of the home page.
type Page struct {
	Title      string
	Flashes    []models.Flash
	CreateForm *FormView
	Loading    bool
	FetchError string
	Items      []Item
	Total      int
}

// ConfirmPage asks before a delete.
type ConfirmPage struct {
	Title   string
	Comment *models.Comment
}

// ReplyPage shows the parent and a reply form.
type ReplyPage struct {
	Title   string
	Flashes []models.Flash
	Parent  *models.Comment
	Form    *FormView
}

// ErrorPage is shown when a request cannot be served at all.
type ErrorPage struct {
	Title   string
	Status  int
	Message string
}

func NewCreateForm(f *form.Form) *FormView {
	return &FormView{Title: "Add a Comment", Action: "/comments", SubmitLabel: "Post", Form: f}
}

func NewReplyForm(parentID string, f *form.Form) *FormView {
	return &FormView{
		Title:        "Reply",
		Action:       "/comments/" + url.PathEscape(parentID) + "/replies",
		SubmitLabel:  "Reply",
		CancelAction: "/",
		Form:         f,
	}
}

func NewEditForm(id string, f *form.Form) *FormView {
	return &FormView{
		Title:        "Edit Comment",
		Action:       "/comments/" + url.PathEscape(id),
		Method:       "PUT",
		SubmitLabel:  "Update",
		CancelAction: "/comments/" + url.PathEscape(id) + "/cancel",
		CancelPost:   true,
		Form:         f,
	}
}

// BuildItems turns the session's tree into renderable items. forms overrides the edit form of an
// item, which is how a rejected edit is shown again with its field errors.
func BuildItems(state *models.ViewState, forms map[string]*form.Form, log *zap.Logger) []Item {
	return buildItems(state.Comments, 0, state, forms, log)
}

func buildItems(list []*models.Comment, depth int, state *models.ViewState, forms map[string]*form.Form, log *zap.Logger) []Item {
	if len(list) == 0 {
		return nil
	}
	items := make([]Item, 0, len(list))
	for _, c := range list {
		item := Item{
			Comment:  c,
			Depth:    depth,
			Editing:  state.Editing[c.ID],
			Deleting: state.Deleting[c.ID],
			Replies:  buildItems(c.Replies, depth+1, state, forms, log),
		}
		if item.Editing {
			f, ok := forms[c.ID]
			if !ok {
				f = form.NewEdit(c, log)
			}
			item.EditForm = NewEditForm(c.ID, f)
		}
		items = append(items, item)
	}
	return items
}
