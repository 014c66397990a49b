package activity

import (
	"errors"
	"fmt"
)

var (
	ErrPlantRequired   = errors.New("a plant must be selected")
	ErrPlantNotFound   = errors.New("selected plant does not exist")
	ErrTargetRequired  = errors.New("a category or group must be selected")
	ErrProductRequired = errors.New("product name is required for treatment activities")
	ErrMethodRequired  = errors.New("application method is required for treatment activities")
	ErrInvalidDate     = errors.New("date is not a valid calendar date")
	ErrNotImage        = errors.New("file is not a supported image")
	ErrPhotoTooLarge   = errors.New("photo exceeds the size limit")
	ErrStagedNotFound  = errors.New("staged photo not found")
	ErrPhotoNotFound   = errors.New("photo is not attached to this activity")
	ErrScopeMismatch   = errors.New("selection does not match the target scope")
	ErrUploadAborted   = errors.New("submission aborted after a failed upload; staged photos kept")
	ErrBusy            = errors.New("a submission is already in progress")
)

// ErrorKind classifies why a submission failed.
type ErrorKind int

const (
	// KindValidation failures happen before any network call.
	KindValidation ErrorKind = iota + 1
	// KindUpload failures end the attempt after the user chose to abort.
	KindUpload
	// KindPersistence failures come from the final create or update write.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpload:
		return "upload"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// SubmitError wraps the cause of a failed submission with its kind.
type SubmitError struct {
	Kind ErrorKind
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a submission error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
