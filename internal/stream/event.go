package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"captionary/internal/services"
)

// Kind discriminates the event variants carried by the progress stream.
type Kind string

const (
	KindProgress Kind = "progress"
	KindStatus   Kind = "status"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

// Event is one decoded line of the progress stream. Only the fields relevant
// to Kind are populated: Value for progress, Message for status and error,
// URL for complete.
type Event struct {
	Kind    Kind
	Value   float64
	Message string
	URL     string
	// Line is the 1-based line number the event was decoded from.
	Line int
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

func (e Event) String() string {
	switch e.Kind {
	case KindProgress:
		return fmt.Sprintf("progress(%.3f)", e.Value)
	case KindStatus:
		return fmt.Sprintf("status(%q)", e.Message)
	case KindComplete:
		return fmt.Sprintf("complete(%s)", e.URL)
	case KindError:
		return fmt.Sprintf("error(%q)", e.Message)
	default:
		return string(e.Kind)
	}
}

type wireEvent struct {
	Type    string   `json:"type"`
	Value   *float64 `json:"value"`
	Message *string  `json:"message"`
	URL     *string  `json:"url"`
}

// ParseLine decodes a single JSON object into an Event. Unknown types and
// missing required fields are protocol errors. Progress values are clamped to
// [0, 1].
func ParseLine(line []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(line, &wire); err != nil {
		return Event{}, services.Wrap(services.ErrProtocol, "stream", "parse line", "invalid JSON", err)
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(wire.Type)))
	switch kind {
	case KindProgress:
		if wire.Value == nil {
			return Event{}, missingField(kind, "value")
		}
		return Event{Kind: kind, Value: clamp(*wire.Value)}, nil
	case KindStatus:
		if wire.Message == nil {
			return Event{}, missingField(kind, "message")
		}
		return Event{Kind: kind, Message: *wire.Message}, nil
	case KindComplete:
		if wire.URL == nil || strings.TrimSpace(*wire.URL) == "" {
			return Event{}, missingField(kind, "url")
		}
		return Event{Kind: kind, URL: strings.TrimSpace(*wire.URL)}, nil
	case KindError:
		if wire.Message == nil {
			return Event{}, missingField(kind, "message")
		}
		return Event{Kind: kind, Message: *wire.Message}, nil
	case "":
		return Event{}, services.Wrap(services.ErrProtocol, "stream", "parse line", "missing type", nil)
	default:
		return Event{}, services.Wrap(services.ErrProtocol, "stream", "parse line", fmt.Sprintf("unknown event type %q", wire.Type), nil)
	}
}

func missingField(kind Kind, field string) error {
	return services.Wrap(services.ErrProtocol, "stream", "parse line", fmt.Sprintf("%s event missing %s", kind, field), nil)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
