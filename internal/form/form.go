package form

import (
	"CommentUI/internal/models"
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"strings"
	"sync"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateInvalid    State = "invalid"
)

const (
	FieldText  = "text"
	FieldImage = "image"

	MsgTextRequired = "Comment text is required"
	MsgImageURL     = "Please enter a valid URL"
)

// ErrInvalid is returned by Submit when validation fails; the submit callback is not called.
var ErrInvalid = errors.New("comment draft is invalid")

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks a draft and returns per-field messages. An empty result means the draft is valid.
func Validate(d models.Draft) FieldErrors {
	errs := FieldErrors{}
	err := draftValidator().Struct(d)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[FieldText] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Text":
			errs[FieldText] = MsgTextRequired
		case "Image":
			errs[FieldImage] = MsgImageURL
		}
	}
	return errs
}

// SubmitFunc receives a validated draft.
type SubmitFunc func(ctx context.Context, d models.Draft) error

// Form is the state of one comment form: create, reply or edit.
type Form struct {
	Draft    models.Draft
	Errors   FieldErrors
	State    State
	Editing  bool
	Disabled bool

	log *zap.Logger
}

func New(log *zap.Logger) *Form {
	return &Form{State: StateIdle, Errors: FieldErrors{}, log: log.Named("form")}
}

// NewEdit seeds the form with the comment being edited.
func NewEdit(c *models.Comment, log *zap.Logger) *Form {
	f := New(log)
	f.Editing = true
	if c != nil {
		f.Draft = models.Draft{Text: c.Text, Image: c.Image}
	}
	return f
}

// Submit validates the draft and, when valid, hands it to fn. Inputs stay disabled while fn runs.
// On success a create form is cleared; on failure the draft is kept so the user can retry.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	f.State = StateValidating
	errs := Validate(f.Draft)
	if len(errs) > 0 {
		f.State = StateInvalid
		f.Errors = errs
		f.log.Debug("Draft rejected", zap.Any("errors", errs))
		f.State = StateIdle
		return ErrInvalid
	}

	f.Errors = FieldErrors{}
	f.State = StateSubmitting
	f.Disabled = true
	err := fn(ctx, f.Draft)
	f.Disabled = false
	f.State = StateIdle

	if err != nil {
		f.log.Error("Error submitting form", zap.Error(err))
		return err
	}
	if !f.Editing {
		f.Draft = models.Draft{}
	}
	return nil
}

// HasErrors reports whether the last submit left field errors.
func (f *Form) HasErrors() bool {
	return len(f.Errors) > 0
}
