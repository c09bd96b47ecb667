package azuretts

import (
	"errors"
	"fmt"
)

// ErrClientClosed is returned for speak requests issued after Close.
var ErrClientClosed = errors.New("azuretts: client closed")

// Error is a failure reported by the speech service or the transport.
type Error struct {
	// Code is the websocket close code or service status code, if any.
	Code int `json:"code"`

	// Message describes the failure.
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("azuretts: %s (code=%d)", e.Message, e.Code)
}

// AsError reports whether err is (or wraps) an *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
