package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorInfo is the JSON body the backend sends with a failed request.
type ErrorInfo struct {
	Message string `json:"message"`
}

// Error is returned for every non-2xx response.
type Error struct {
	Code int
	Info ErrorInfo
}

func (e *Error) Error() string {
	if e.Info.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Code, e.Info.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Code, http.StatusText(e.Code))
}

// Message is the text a view should show for err. It falls back to fallback
// when err carries no message from the backend.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Info.Message != "" {
		return apiErr.Info.Message
	}
	return fallback
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
