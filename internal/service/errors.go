package service

import (
	"errors"
	"strings"

	"erpconsole/internal/repository"
)

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is a validation failure tied to one request field.
type FieldError struct {
	Loc []string
	Msg string
}

func (e *FieldError) Error() string {
	return strings.Join(e.Loc, ".") + ": " + e.Msg
}

// Is lets errors.Is(err, ErrInvalid) match field errors.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

func fieldErr(msg string, loc ...string) *FieldError {
	return &FieldError{Loc: append([]string{"body"}, loc...), Msg: msg}
}

// notFoundErr wraps a repository miss with the entity name.
func notFoundErr(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &entityError{entity: entity, err: ErrNotFound}
	}
	return err
}

type entityError struct {
	entity string
	err    error
}

func (e *entityError) Error() string { return e.entity + " " + e.err.Error() }
func (e *entityError) Unwrap() error { return e.err }
