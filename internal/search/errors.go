package search

import (
	"context"
	"errors"
	"net"

	"google.golang.org/genai"

	"github.com/young1lin/groundsearch/internal/models"
)

// Error is a failed search. Message is what the user sees; Kind keeps the
// provenance that the single message would otherwise hide.
type Error struct {
	Kind    models.ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind) + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a search error of the given kind
func NewError(kind models.ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Classify maps any error to a kind and a user-facing message. The message
// is empty when the error carries no description of its own.
func Classify(err error) (models.ErrorKind, string) {
	if err == nil {
		return models.ErrorKindNone, ""
	}

	var searchErr *Error
	if errors.As(err, &searchErr) {
		msg := searchErr.Message
		if msg == "" && searchErr.Err != nil {
			msg = searchErr.Err.Error()
		}
		return searchErr.Kind, msg
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return models.ErrorKindUpstream, apiErr.Message
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return models.ErrorKindUpstream, apiErrPtr.Message
	}

	if errors.Is(err, context.Canceled) {
		return models.ErrorKindCanceled, err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorKindNetwork, "Network timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return models.ErrorKindNetwork, "Network timeout"
		}
		return models.ErrorKindNetwork, err.Error()
	}

	return models.ErrorKindUnknown, err.Error()
}
