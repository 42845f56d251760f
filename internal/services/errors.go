package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrTransport        = errors.New("transport error")
	ErrProtocol         = errors.New("protocol error")
	ErrIncompleteStream = errors.New("stream ended without a terminal event")
	ErrProducer         = errors.New("producer error")
	ErrDelivery         = errors.New("delivery error")
	ErrBusy             = errors.New("session busy")
)

// Error carries a marker from the list above together with the stage and
// operation that failed. Callers classify with errors.Is against the marker.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return e.Marker.Error() + ": " + detail + ": " + e.Err.Error()
	}
	return e.Marker.Error() + ": " + detail
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransport
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// UserMessage renders err as the single status line shown in place of the
// progress display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		return "Error: " + err.Error()
	}
	detail := svcErr.Message
	if svcErr.Err != nil {
		if detail == "" {
			detail = svcErr.Err.Error()
		} else {
			detail = detail + ": " + svcErr.Err.Error()
		}
	}
	if detail == "" {
		detail = svcErr.Marker.Error()
	}
	switch {
	case errors.Is(svcErr.Marker, ErrValidation), errors.Is(svcErr.Marker, ErrBusy):
		return svcErr.Message
	case errors.Is(svcErr.Marker, ErrDelivery):
		return "Download failed: " + detail
	case errors.Is(svcErr.Marker, ErrProducer):
		return "Error: " + svcErr.Message
	default:
		return "Error: " + detail
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
