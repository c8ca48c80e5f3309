package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a caller-facing failure with a stable code. Codes map onto the
// HTTP boundary; everything else stays a plain wrapped error.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrImageNotFound         = &Error{Code: "IMAGE_NOT_FOUND", Message: "image not found", Status: http.StatusNotFound}
	ErrInvalidStatus         = &Error{Code: "INVALID_IMAGE_STATUS", Message: "invalid image status transition", Status: http.StatusBadRequest}
	ErrAlreadyConfirmed      = &Error{Code: "IMAGE_ALREADY_CONFIRMED", Message: "image already confirmed", Status: http.StatusConflict}
	ErrReferenceTypeNotFound = &Error{Code: "REFERENCE_TYPE_NOT_FOUND", Message: "reference type not found", Status: http.StatusBadRequest}
	ErrTooManyImages         = &Error{Code: "TOO_MANY_IMAGES", Message: "reference type does not allow this many images", Status: http.StatusConflict}
	ErrInvalidReference      = &Error{Code: "INVALID_REFERENCE", Message: "invalid reference", Status: http.StatusBadRequest}
	ErrInvalidExtension      = &Error{Code: "INVALID_EXTENSION", Message: "invalid file extension", Status: http.StatusBadRequest}
	ErrImageSaveFailed       = &Error{Code: "IMAGE_SAVE_FAILED", Message: "image save failed", Status: http.StatusInternalServerError}
)

// As unwraps err into an *Error if one is in the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
