package views

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"erpconsole/internal/apiclient"
	"erpconsole/internal/logger"
	"erpconsole/internal/querycache"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FieldMessage is a validation message for one form field.
type FieldMessage struct {
	Field string
	Msg   string
}

// ValidationError is returned when a form fails client-side checks. Nothing
// was sent to the backend.
type ValidationError struct {
	Fields []FieldMessage
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Msg
	}
	return strings.Join(parts, "; ")
}

// Rule is an entity-specific form check run after the struct tags pass.
type Rule[P any] func(P) []FieldMessage

// Mutator is the write half of an entity module.
type Mutator[T, C, U any] interface {
	Create(ctx context.Context, payload C) (*T, error)
	Update(ctx context.Context, id uuid.UUID, payload U) (*T, error)
}

// Dialog validates and submits the create and edit forms of one entity.
type Dialog[T, C, U any] struct {
	entity     string
	mutator    Mutator[T, C, U]
	cache      *querycache.Cache
	createRule Rule[C]
	updateRule Rule[U]
}

func NewDialog[T, C, U any](entity string, m Mutator[T, C, U], cache *querycache.Cache, createRule Rule[C], updateRule Rule[U]) *Dialog[T, C, U] {
	return &Dialog[T, C, U]{entity: entity, mutator: m, cache: cache, createRule: createRule, updateRule: updateRule}
}

// Create validates payload and, if it passes, creates the record and
// invalidates the entity's cached lists.
func (d *Dialog[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	if err := check(payload, d.createRule); err != nil {
		return nil, err
	}
	out, err := d.mutator.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	d.cache.Invalidate(querycache.ListKey(d.entity))
	return out, nil
}

// Update validates payload and saves it over the record id.
func (d *Dialog[T, C, U]) Update(ctx context.Context, id uuid.UUID, payload U) (*T, error) {
	if err := check(payload, d.updateRule); err != nil {
		return nil, err
	}
	out, err := d.mutator.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	d.cache.Invalidate(querycache.ListKey(d.entity))
	d.cache.Remove(querycache.ItemKey(d.entity, id.String()))
	return out, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func check[P any](payload P, rule Rule[P]) error {
	var fields []FieldMessage
	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldMessage{Field: fieldPath(fe), Msg: message(fe)})
		}
	}
	if rule != nil {
		fields = append(fields, rule(payload)...)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath drops the struct name from the namespace: "OrderInput.customer_id" -> "customer_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Deleter is the delete half of an entity module.
type Deleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConfirmDelete deletes id after the user confirms. It reports whether the
// record was deleted; a declined prompt sends nothing.
func ConfirmDelete(ctx context.Context, c Confirmer, d Deleter, cache *querycache.Cache, entity string, id uuid.UUID, label string) (bool, error) {
	if !c.Confirm("Delete " + label + "? This cannot be undone from the console.") {
		return false, nil
	}
	if err := d.Delete(ctx, id); err != nil {
		return false, err
	}
	cache.Remove(querycache.ItemKey(entity, id.String()))
	cache.Invalidate(querycache.ListKey(entity))
	return true, nil
}

// Toast turns an error into the one-line message shown to the user. Field
// errors carry their location path; unknown errors are logged and reported
// generically.
func Toast(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if f, ok := apiErr.FirstFieldError(); ok {
			return f.Path() + ": " + f.Msg
		}
		return apiErr.Message
	}
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return denied.Error()
	}
	log := logger.WithComponent("views")
	log.Error().Err(err).Msg("unexpected error")
	return "Something went wrong. Please try again."
}
