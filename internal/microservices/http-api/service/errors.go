package service

import (
	"errors"
	"fmt"
	"net/http"

	"messageboard/internal/microservices/http-api/repository"
)

// Error taxonomy. Every error the dispatcher sees is matched against these
// with errors.Is and turned into a status code.
var (
	ErrValidation        = errors.New("invalid input")
	ErrUnauthorized      = errors.New("sender is not the author of this message")
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrStoreUnavailable  = repository.ErrStoreUnavailable
)

var (
	ErrInvalidBody      = fmt.Errorf("%w: malformed JSON body", ErrValidation)
	ErrMissingContent   = fmt.Errorf("%w: message content cannot be null", ErrValidation)
	ErrMissingSender    = fmt.Errorf("%w: sender is required", ErrValidation)
	ErrMissingID        = fmt.Errorf("%w: message id is required", ErrValidation)
	ErrMissingRoom      = fmt.Errorf("%w: roomId cannot be null or empty", ErrValidation)
	ErrInvalidTimestamp = fmt.Errorf("%w: invalid timestamp format", ErrValidation)
	ErrMessageNotFound  = fmt.Errorf("message %w", ErrNotFound)
)

// StatusFor maps an error to its response status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrStoreNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedMethod):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
