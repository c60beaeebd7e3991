package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested id is absent from the backend that answered.
	ErrNotFound = errors.New("product not found")

	// ErrBackendUnavailable marks transport, permission and timeout failures of a backend.
	ErrBackendUnavailable = errors.New("catalog backend unavailable")

	// ErrNoImage is returned when an upload is requested without a file.
	ErrNoImage = &ValidationError{Field: "image", Message: "no image provided"}
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UploadError wraps any failure while storing an image object.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BackendError is a failure of a named backend operation. It matches ErrBackendUnavailable.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// Unavailable wraps err as a BackendError unless it is nil or already a domain error.
func Unavailable(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || IsValidation(err) {
		return err
	}
	return &BackendError{Backend: backend, Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpload reports whether err is an UploadError.
func IsUpload(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}
