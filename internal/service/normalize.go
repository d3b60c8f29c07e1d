package service

import (
	"CommentUI/internal/models"
	"CommentUI/internal/repository"
	"bytes"
	"encoding/json"
	"fmt"
)

// envelopeFields are the wrapper keys the API has been seen to nest the list under, in lookup order.
var envelopeFields = []string{"data", "comments"}

// Normalize accepts a bare array of comments or an object wrapping one, and returns the comment tree.
// Any other shape is repository.ErrUnexpectedFormat.
func Normalize(raw json.RawMessage) ([]*models.Comment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, repository.ErrUnexpectedFormat
	}

	var list []*models.Comment
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrUnexpectedFormat, err)
		}
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrUnexpectedFormat, err)
		}
		found := false
		for _, field := range envelopeFields {
			inner := bytes.TrimSpace(envelope[field])
			if len(inner) == 0 || inner[0] != '[' {
				continue
			}
			if err := json.Unmarshal(inner, &list); err != nil {
				return nil, fmt.Errorf("%w: %v", repository.ErrUnexpectedFormat, err)
			}
			found = true
			break
		}
		if !found {
			return nil, repository.ErrUnexpectedFormat
		}
	default:
		return nil, repository.ErrUnexpectedFormat
	}

	nested := Nest(list)
	if nested == nil {
		nested = []*models.Comment{}
	}
	return nested, nil
}
