package stream

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"captionary/internal/services"
	"captionary/internal/testsupport"
)

func collect(t *testing.T, d *Decoder) ([]Event, error) {
	t.Helper()
	var events []Event
	for i := 0; i < 1000; i++ {
		ev, err := d.Next()
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	t.Fatal("decoder did not terminate")
	return nil, nil
}

func kinds(events []Event) string {
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = ev.String()
	}
	return strings.Join(parts, " ")
}

func TestDecoderSequence(t *testing.T) {
	payload := testsupport.NDJSON(
		`{"type":"progress","value":0.1}`,
		`{"type":"progress","value":0.5}`,
		`{"type":"status","message":"x"}`,
		`{"type":"complete","url":"http://example.test/download/out.srt"}`,
	)
	events, err := collect(t, NewDecoder(bytes.NewReader(payload)))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	want := []Event{
		{Kind: KindProgress, Value: 0.1, Line: 1},
		{Kind: KindProgress, Value: 0.5, Line: 2},
		{Kind: KindStatus, Message: "x", Line: 3},
		{Kind: KindComplete, URL: "http://example.test/download/out.srt", Line: 4},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events (%s), want %d", len(events), kinds(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestDecoderEverySplitPoint(t *testing.T) {
	payload := testsupport.NDJSON(
		`{"type":"status","message":"Lade Modell für Schwiizerdütsch…"}`,
		`{"type":"progress","value":0.42}`,
		`{"type":"status","message":"字幕を生成しています 🎬"}`,
		`{"type":"complete","url":"/download/übung.srt"}`,
	)
	reference, err := collect(t, NewDecoder(bytes.NewReader(payload)))
	if err != io.EOF {
		t.Fatalf("reference decode: %v", err)
	}
	if len(reference) != 4 {
		t.Fatalf("reference decode produced %d events", len(reference))
	}

	for i := 0; i <= len(payload); i++ {
		for j := i; j <= len(payload); j += 7 {
			src := testsupport.ChunkReader(testsupport.SplitAt(payload, i, j)...)
			got, err := collect(t, NewDecoder(src))
			if err != io.EOF {
				t.Fatalf("split %d/%d: unexpected error %v", i, j, err)
			}
			if kinds(got) != kinds(reference) {
				t.Fatalf("split %d/%d: got %s, want %s", i, j, kinds(got), kinds(reference))
			}
		}
	}
}

func TestDecoderOneByteReads(t *testing.T) {
	payload := testsupport.NDJSON(
		`{"type":"status","message":"Ünïcödé ✓"}`,
		`{"type":"error","message":"boom"}`,
	)
	chunks := make([][]byte, len(payload))
	for i := range payload {
		chunks[i] = payload[i : i+1]
	}
	events, err := collect(t, NewDecoder(testsupport.ChunkReader(chunks...), WithReadSize(1)))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(events) != 2 || events[0].Message != "Ünïcödé ✓" || events[1].Kind != KindError {
		t.Fatalf("unexpected events: %s", kinds(events))
	}
}

func TestDecoderSkipsMalformedLine(t *testing.T) {
	payload := testsupport.NDJSON(
		`{"type":"progress","value":0.2}`,
		`{"type":"progress", oops`,
		`{"type":"telemetry","value":1}`,
		`{"type":"progress","value":0.4}`,
		`{"type":"complete","url":"/d"}`,
	)
	d := NewDecoder(bytes.NewReader(payload))
	events, err := collect(t, d)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if got := kinds(events); got != "progress(0.200) progress(0.400) complete(/d)" {
		t.Fatalf("unexpected events: %s", got)
	}
	if events[1].Line != 4 {
		t.Fatalf("expected line numbers to count malformed lines, got %d", events[1].Line)
	}
	stats := d.Stats()
	if stats.Malformed != 2 || stats.Events != 3 || stats.Lines != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDecoderIncompleteStream(t *testing.T) {
	payload := testsupport.NDJSON(`{"type":"progress","value":0.3}`)
	d := NewDecoder(bytes.NewReader(payload))
	events, err := collect(t, d)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %s", kinds(events))
	}
	if !errors.Is(err, services.ErrIncompleteStream) {
		t.Fatalf("expected incomplete stream error, got %v", err)
	}
	if _, again := d.Next(); !errors.Is(again, services.ErrIncompleteStream) {
		t.Fatalf("expected sticky error, got %v", again)
	}
}

func TestDecoderEmptySourceIsIncomplete(t *testing.T) {
	_, err := collect(t, NewDecoder(strings.NewReader("")))
	if !errors.Is(err, services.ErrIncompleteStream) {
		t.Fatalf("expected incomplete stream error, got %v", err)
	}
}

func TestDecoderKeepAlivesAndCRLF(t *testing.T) {
	payload := []byte("\n   \n{\"type\":\"status\",\"message\":\"a\"}\r\n\r\n\t\n{\"type\":\"complete\",\"url\":\"/x\"}\r\n")
	d := NewDecoder(bytes.NewReader(payload))
	events, err := collect(t, d)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if got := kinds(events); got != `status("a") complete(/x)` {
		t.Fatalf("unexpected events: %s", got)
	}
	if d.Stats().Skipped != 4 {
		t.Fatalf("expected 4 skipped keep-alives, got %+v", d.Stats())
	}
}

func TestDecoderFlushesFinalLineWithoutNewline(t *testing.T) {
	payload := `{"type":"progress","value":1}` + "\n" + `{"type":"complete","url":"/final.srt"}`
	events, err := collect(t, NewDecoder(strings.NewReader(payload)))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(events) != 2 || events[1].Kind != KindComplete {
		t.Fatalf("unexpected events: %s", kinds(events))
	}
}

func TestDecoderDropsEventsAfterTerminal(t *testing.T) {
	payload := testsupport.NDJSON(
		`{"type":"error","message":"model missing"}`,
		`{"type":"progress","value":0.9}`,
		`{"type":"complete","url":"/late"}`,
	)
	d := NewDecoder(bytes.NewReader(payload))
	events, err := collect(t, d)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(events) != 1 || events[0].Kind != KindError {
		t.Fatalf("unexpected events: %s", kinds(events))
	}
	if d.Stats().Skipped != 2 {
		t.Fatalf("expected 2 dropped events, got %+v", d.Stats())
	}
}

func TestDecoderDiscardsOverlongLine(t *testing.T) {
	long := `{"type":"status","message":"` + strings.Repeat("a", 500) + `"}`
	payload := testsupport.NDJSON(
		`{"type":"progress","value":0.1}`,
		long,
		`{"type":"complete","url":"/ok"}`,
	)
	for _, readSize := range []int{16, 4096} {
		d := NewDecoder(bytes.NewReader(payload), WithMaxLineBytes(64), WithReadSize(readSize))
		events, err := collect(t, d)
		if err != io.EOF {
			t.Fatalf("read size %d: expected io.EOF, got %v", readSize, err)
		}
		if got := kinds(events); got != "progress(0.100) complete(/ok)" {
			t.Fatalf("read size %d: unexpected events: %s", readSize, got)
		}
		if d.Stats().Malformed != 1 {
			t.Fatalf("read size %d: expected one malformed line, got %+v", readSize, d.Stats())
		}
	}
}

func TestDecoderResolvesRelativeURL(t *testing.T) {
	base, err := url.Parse("http://127.0.0.1:8000/transcribe")
	if err != nil {
		t.Fatal(err)
	}
	payload := testsupport.NDJSON(`{"type":"complete","url":"/download/clip.srt?download_name=clip.srt"}`)
	events, err := collect(t, NewDecoder(bytes.NewReader(payload), WithBaseURL(base)))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	want := "http://127.0.0.1:8000/download/clip.srt?download_name=clip.srt"
	if len(events) != 1 || events[0].URL != want {
		t.Fatalf("unexpected events: %s", kinds(events))
	}
}

func TestDecoderReplacesInvalidUTF8(t *testing.T) {
	payload := []byte("{\"type\":\"status\",\"message\":\"bad \xff byte\"}\n{\"type\":\"complete\",\"url\":\"/x\"}\n")
	events, err := collect(t, NewDecoder(bytes.NewReader(payload)))
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(events) != 2 || events[0].Message != "bad � byte" {
		t.Fatalf("unexpected events: %s", kinds(events))
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestDecoderTransportError(t *testing.T) {
	src := &failingReader{
		data: testsupport.NDJSON(`{"type":"progress","value":0.5}`),
		err:  errors.New("connection reset by peer"),
	}
	events, err := collect(t, NewDecoder(src))
	if len(events) != 1 {
		t.Fatalf("expected the event before the failure, got %s", kinds(events))
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset by peer") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}
