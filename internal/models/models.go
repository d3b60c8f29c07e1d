package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Comment is the canonical threaded comment shape.
type Comment struct {
	ID      string     `json:"id,omitempty"`
	Parent  string     `json:"parent,omitempty"`
	Author  string     `json:"author"`
	Text    string     `json:"text"`
	Date    string     `json:"date"`
	Likes   int        `json:"likes"`
	Image   string     `json:"image,omitempty"`
	Replies []*Comment `json:"replies,omitempty"`
}

// wireComment accepts the older payload revisions: comment_id instead of id,
// numeric identifiers and a null image.
type wireComment struct {
	ID        flexID     `json:"id"`
	CommentID flexID     `json:"comment_id"`
	Parent    flexID     `json:"parent"`
	ParentID  flexID     `json:"parent_id"`
	Author    string     `json:"author"`
	Text      string     `json:"text"`
	Date      string     `json:"date"`
	Likes     int        `json:"likes"`
	Image     *string    `json:"image"`
	Replies   []*Comment `json:"replies"`
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var w wireComment
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Comment{
		ID:      string(w.ID),
		Parent:  string(w.Parent),
		Author:  w.Author,
		Text:    w.Text,
		Date:    w.Date,
		Likes:   w.Likes,
		Replies: w.Replies,
	}
	if c.ID == "" {
		c.ID = string(w.CommentID)
	}
	if c.Parent == "" {
		c.Parent = string(w.ParentID)
	}
	if w.Image != nil {
		c.Image = *w.Image
	}
	if c.Likes < 0 {
		c.Likes = 0
	}
	return nil
}

// Clone returns a deep copy of the comment and its replies.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := *c
	if c.Replies != nil {
		out.Replies = make([]*Comment, len(c.Replies))
		for i, r := range c.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return &out
}

// flexID decodes a JSON string or number into a string identifier.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

// Draft is the text/image pair being composed or edited.
type Draft struct {
	Text  string `json:"text" form:"text" validate:"notblank"`
	Image string `json:"image" form:"image" validate:"omitempty,url"`
}

// PostCommentRequest is the body of a create call.
type PostCommentRequest struct {
	UserID int64  `json:"user_id,omitempty"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Image  string `json:"image"`
	Parent string `json:"parent,omitempty"`
}

// UpdateCommentRequest is the body of an update call.
type UpdateCommentRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// MutationResponse is the short acknowledgement some API revisions answer with.
type MutationResponse struct {
	Message   string  `json:"message"`
	ID        flexID  `json:"id"`
	CommentID flexID  `json:"comment_id"`
	Text      *string `json:"text"`
	Image     *string `json:"image"`
}

// Identifier returns whichever identifier field the response carried.
func (m MutationResponse) Identifier() string {
	if m.ID != "" {
		return string(m.ID)
	}
	return string(m.CommentID)
}

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a transient notification shown once on the next page render.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// ViewState is the per-session client cache of the comment tree plus item UI state.
type ViewState struct {
	Comments   []*Comment      `json:"comments"`
	Mounted    bool            `json:"mounted"`
	FetchError string          `json:"fetch_error,omitempty"`
	RefreshKey uint64          `json:"refresh_key"`
	Editing    map[string]bool `json:"editing,omitempty"`
	Deleting   map[string]bool `json:"deleting,omitempty"`
	Flashes    []Flash         `json:"flashes,omitempty"`
}

func NewViewState() *ViewState {
	return &ViewState{
		Editing:  map[string]bool{},
		Deleting: map[string]bool{},
	}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *ViewState) Clone() *ViewState {
	if s == nil {
		return nil
	}
	out := &ViewState{
		Mounted:    s.Mounted,
		FetchError: s.FetchError,
		RefreshKey: s.RefreshKey,
		Editing:    make(map[string]bool, len(s.Editing)),
		Deleting:   make(map[string]bool, len(s.Deleting)),
	}
	if s.Comments != nil {
		out.Comments = make([]*Comment, len(s.Comments))
		for i, c := range s.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	for k, v := range s.Editing {
		out.Editing[k] = v
	}
	for k, v := range s.Deleting {
		out.Deleting[k] = v
	}
	if s.Flashes != nil {
		out.Flashes = append([]Flash(nil), s.Flashes...)
	}
	return out
}
