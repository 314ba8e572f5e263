package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindDecode      Kind = "decode"
	KindIO          Kind = "io"
	KindUnsupported Kind = "unsupported"
	KindForbidden   Kind = "forbidden"
	KindInternal    Kind = "internal"
)

// Error is the typed failure carried by per-image results and folder-level errors.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// Wrap attaches a kind to err. An err that is already a *Error keeps its original kind.
func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindInternal
}

var (
	ErrFolderNotFound   = New(KindNotFound, "process_folder", "Folder not found")
	ErrFolderNotAllowed = New(KindForbidden, "process_folder", "Folder not allowed")
)
