package stream

import (
	"errors"
	"testing"

	"captionary/internal/services"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Event
	}{
		{"progress", `{"type":"progress","value":0.25}`, Event{Kind: KindProgress, Value: 0.25}},
		{"progress clamped high", `{"type":"progress","value":1.7}`, Event{Kind: KindProgress, Value: 1}},
		{"progress clamped low", `{"type":"progress","value":-0.2}`, Event{Kind: KindProgress, Value: 0}},
		{"status", `{"type":"status","message":"Loading model..."}`, Event{Kind: KindStatus, Message: "Loading model..."}},
		{"status empty message", `{"type":"status","message":""}`, Event{Kind: KindStatus}},
		{"complete", `{"type":"complete","url":"/download/a.srt"}`, Event{Kind: KindComplete, URL: "/download/a.srt"}},
		{"error", `{"type":"error","message":"CUDA out of memory"}`, Event{Kind: KindError, Message: "CUDA out of memory"}},
		{"extra fields ignored", `{"type":"status","message":"x","elapsed":3}`, Event{Kind: KindStatus, Message: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine([]byte(tt.line))
			if err != nil {
				t.Fatalf("ParseLine: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseLine = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLineRejects(t *testing.T) {
	lines := []string{
		`not json`,
		`{"type":"progress"}`,
		`{"type":"progress","value":"half"}`,
		`{"type":"status"}`,
		`{"type":"complete","url":""}`,
		`{"type":"error"}`,
		`{"type":"heartbeat"}`,
		`{"value":0.5}`,
		`[1,2,3]`,
	}
	for _, line := range lines {
		if _, err := ParseLine([]byte(line)); !errors.Is(err, services.ErrProtocol) {
			t.Errorf("ParseLine(%s) error = %v, want protocol error", line, err)
		}
	}
}

func TestEventTerminal(t *testing.T) {
	if (Event{Kind: KindProgress}).Terminal() || (Event{Kind: KindStatus}).Terminal() {
		t.Fatal("progress and status must not be terminal")
	}
	if !(Event{Kind: KindComplete}).Terminal() || !(Event{Kind: KindError}).Terminal() {
		t.Fatal("complete and error must be terminal")
	}
}
