package upload

import "errors"

var (
	ErrUploadNotFound  = errors.New("upload not found")
	ErrNoFile          = errors.New("no file provided")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrDuplicateName   = errors.New("generated file name already in use")
)

// ValidationError is a rejected upload. Message is meant for the person
// filling in the form; Err is one of the sentinels above.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, message string) *ValidationError {
	return &ValidationError{Err: err, Message: message}
}

// UserMessage returns the message to show inline for err.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "upload failed"
}
