package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	perrors "github.com/jmgilman/go/errors"

	"github.com/goliatone/go-profileform/pkg/model"
	"github.com/goliatone/go-profileform/pkg/openapi"
	"github.com/goliatone/go-profileform/pkg/store"
	"github.com/goliatone/go-profileform/pkg/validation"
)

// Saver persists accepted profiles.
type Saver interface {
	Save(ctx context.Context, profile model.Profile) (model.StoredProfile, error)
}

// Option customises an Action.
type Option func(*Action)

// WithForm overrides the form model submissions are validated against.
func WithForm(form model.FormModel) Option {
	return func(a *Action) {
		a.form = form
		a.formSet = true
	}
}

// WithValidator injects the validator.
func WithValidator(v *validation.Validator) Option {
	return func(a *Action) {
		if v != nil {
			a.validator = v
		}
	}
}

// WithGuards appends guards evaluated in order before validation.
func WithGuards(guards ...Guard) Option {
	return func(a *Action) {
		for _, g := range guards {
			if g != nil {
				a.guards = append(a.guards, g)
			}
		}
	}
}

// WithClock overrides the clock stamping successful submissions.
func WithClock(now func() time.Time) Option {
	return func(a *Action) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger used for failures and accepted submissions.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Action) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Action is the server action behind the profile form. It is safe for
// concurrent use when its Saver is.
type Action struct {
	saver     Saver
	form      model.FormModel
	formSet   bool
	validator *validation.Validator
	guards    []Guard
	now       func() time.Time
	logger    *slog.Logger
}

// New constructs an Action persisting through saver. Without WithForm the
// embedded profile form model is used.
func New(saver Saver, options ...Option) (*Action, error) {
	if saver == nil {
		return nil, errors.New("action: saver is required")
	}
	a := &Action{
		saver:     saver,
		validator: validation.New(),
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	if !a.formSet {
		form, err := openapi.ProfileForm(context.Background())
		if err != nil {
			return nil, fmt.Errorf("action: load form model: %w", err)
		}
		a.form = form
	}
	return a, nil
}

// Form returns the form model submissions are validated against.
func (a *Action) Form() model.FormModel {
	return a.form
}

// SubmitValues runs the action for bare form values with no request
// metadata.
func (a *Action) SubmitValues(ctx context.Context, values url.Values) Result {
	return a.Submit(ctx, Request{Values: values})
}

// Submit runs the action pipeline and returns exactly one typed result.
// Panics are recovered and reported as unknown failures.
func (a *Action) Submit(ctx context.Context, req Request) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := perrors.Newf(perrors.CodeInternal, "panic: %v", recovered)
			a.logger.ErrorContext(ctx, "profile submission panicked", "code", err.Code(), "error", err)
			result = UnknownFailure(GenericMessage)
		}
	}()

	stored, err := a.run(ctx, req)
	if err != nil {
		result = Classify(err)
		a.logFailure(ctx, result, err)
		return result
	}

	at := stored.CreatedAt
	if at.IsZero() {
		at = a.now()
	}
	a.logger.InfoContext(ctx, "profile submitted", "submission_id", stored.ID)
	return Succeeded(stored.ID, at)
}

func (a *Action) run(ctx context.Context, req Request) (model.StoredProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredProfile{}, perrors.Wrap(err, perrors.CodeUnknown, "submission cancelled")
	}

	values := decode(req.Values)

	for _, guard := range a.guards {
		if err := guard.Check(ctx, req); err != nil {
			return model.StoredProfile{}, err
		}
	}

	if fields := a.validator.Validate(a.form, values.validationInput()); len(fields) > 0 {
		return model.StoredProfile{}, NewValidationError(fields)
	}

	profile, err := values.profile()
	if err != nil {
		return model.StoredProfile{}, err
	}

	if err := ctx.Err(); err != nil {
		return model.StoredProfile{}, perrors.Wrap(err, perrors.CodeUnknown, "submission cancelled")
	}

	stored, err := a.saver.Save(ctx, profile)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return model.StoredProfile{}, NewValidationError(map[string][]string{
				model.FieldEmail: {DuplicateEmail},
			})
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.StoredProfile{}, perrors.Wrap(err, perrors.CodeUnknown, "submission cancelled")
		}
		return model.StoredProfile{}, perrors.Wrap(err, databaseCode(err), DatabaseMessage)
	}
	return stored, nil
}

func (a *Action) logFailure(ctx context.Context, result Result, err error) {
	attrs := []any{"type", result.Type(), "code", perrors.GetCode(err), "error", err}
	if result.Type() == ErrorTypeValidation {
		attrs = append(attrs, "fields", validation.SortedFields(result.Error.Fields))
		a.logger.InfoContext(ctx, "profile submission rejected", attrs...)
		return
	}
	a.logger.ErrorContext(ctx, "profile submission failed", attrs...)
}

func databaseCode(err error) perrors.ErrorCode {
	switch code := perrors.GetCode(err); code {
	case perrors.CodeTimeout, perrors.CodeUnavailable:
		return code
	}
	return perrors.CodeDatabase
}

type submission struct {
	name  string
	email string
	age   string
	bio   string
}

// decode trims and sanitizes the submitted values. Age stays textual until
// validation has vouched for it.
func decode(values url.Values) submission {
	return submission{
		name:  sanitizeText(values.Get(model.FieldName)),
		email: strings.TrimSpace(values.Get(model.FieldEmail)),
		age:   strings.TrimSpace(values.Get(model.FieldAge)),
		bio:   sanitizeText(values.Get(model.FieldBio)),
	}
}

func (s submission) validationInput() map[string]any {
	return map[string]any{
		model.FieldName:  s.name,
		model.FieldEmail: s.email,
		model.FieldAge:   s.age,
		model.FieldBio:   s.bio,
	}
}

func (s submission) profile() (model.Profile, error) {
	age, err := parseAge(s.age)
	if err != nil {
		return model.Profile{}, NewValidationError(map[string][]string{
			model.FieldAge: {"Age must be a whole number"},
		})
	}
	return model.Profile{
		Name:  s.name,
		Email: s.email,
		Age:   age,
		Bio:   s.bio,
	}, nil
}

func parseAge(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("action: age %q is not a whole number", raw)
	}
	return int(f), nil
}
