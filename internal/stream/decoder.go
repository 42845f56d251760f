package stream

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"captionary/internal/logging"
	"captionary/internal/services"
)

const (
	// DefaultMaxLineBytes bounds a single event line.
	DefaultMaxLineBytes = 1 << 20
	defaultReadSize     = 4 * 1024
)

// Stats counts what the decoder has seen so far.
type Stats struct {
	Lines     int
	Events    int
	Malformed int
	Skipped   int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for per-line warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxLineBytes overrides DefaultMaxLineBytes.
func WithMaxLineBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxLine = n
		}
	}
}

// WithReadSize sets the size of each read from the source.
func WithReadSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.readSize = n
		}
	}
}

// WithBaseURL resolves relative complete URLs against base.
func WithBaseURL(base *url.URL) Option {
	return func(d *Decoder) {
		d.base = base
	}
}

// Decoder turns a newline-delimited JSON byte stream into events. Input may
// be fragmented arbitrarily, including inside a multi-byte character. A
// Decoder is not safe for concurrent use and cannot be restarted.
type Decoder struct {
	src      io.Reader
	logger   *slog.Logger
	base     *url.URL
	maxLine  int
	readSize int

	buf        []byte
	chunk      []byte
	discarding bool
	eof        bool
	terminal   bool
	err        error
	stats      Stats
}

// NewDecoder wraps r. Bytes are passed through an incremental UTF-8 decoder,
// so invalid sequences surface as U+FFFD instead of corrupting later lines.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		src:      transform.NewReader(r, unicode.UTF8.NewDecoder()),
		logger:   logging.NewNop(),
		maxLine:  DefaultMaxLineBytes,
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.chunk = make([]byte, d.readSize)
	return d
}

// Stats returns a snapshot of the decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Next returns the next event. It returns io.EOF once a stream that carried a
// terminal event has ended, an error wrapping services.ErrIncompleteStream if
// the source ended without one, and an error wrapping services.ErrTransport
// if reading failed. Errors are sticky.
func (d *Decoder) Next() (Event, error) {
	for {
		if d.err != nil {
			return Event{}, d.err
		}

		if idx := bytes.IndexByte(d.buf, '\n'); idx >= 0 {
			line := d.buf[:idx]
			rest := d.buf[idx+1:]
			if d.discarding {
				d.discarding = false
				d.buf = rest
				continue
			}
			ev, ok := d.handleLine(line)
			d.buf = rest
			if ok {
				return ev, nil
			}
			continue
		}

		if len(d.buf) > d.maxLine {
			if !d.discarding {
				d.stats.Lines++
				d.rejectOverlong()
			}
			d.discarding = true
			d.buf = d.buf[:0]
		}

		if d.eof {
			return d.finish()
		}

		n, err := d.src.Read(d.chunk)
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
		}
		if err == io.EOF {
			d.eof = true
		} else if err != nil {
			d.err = services.Wrap(services.ErrTransport, "stream", "read", "", err)
		}
	}
}

func (d *Decoder) finish() (Event, error) {
	if len(d.buf) > 0 && !d.discarding {
		line := d.buf
		d.buf = nil
		if ev, ok := d.handleLine(line); ok {
			return ev, nil
		}
	}
	d.buf = nil
	if !d.terminal {
		d.err = services.Wrap(services.ErrIncompleteStream, "stream", "read",
			fmt.Sprintf("stream ended without a result after %d events", d.stats.Events), nil)
		return Event{}, d.err
	}
	d.err = io.EOF
	return Event{}, io.EOF
}

func (d *Decoder) handleLine(raw []byte) (Event, bool) {
	d.stats.Lines++
	lineNo := d.stats.Lines
	line := bytes.TrimSpace(bytes.TrimSuffix(raw, []byte{'\r'}))
	if len(line) == 0 {
		d.stats.Skipped++
		return Event{}, false
	}
	if len(raw) > d.maxLine {
		d.rejectOverlong()
		return Event{}, false
	}
	if d.terminal {
		d.stats.Skipped++
		d.logger.Debug("dropping event after terminal event", logging.Int("line", lineNo))
		return Event{}, false
	}

	ev, err := ParseLine(line)
	if err == nil && ev.Kind == KindComplete {
		ev.URL, err = d.resolve(ev.URL)
	}
	if err != nil {
		d.stats.Malformed++
		logging.WarnWithContext(d.logger, "skipping malformed stream line", "stream_malformed_line",
			logging.Int("line", lineNo),
			logging.String("content", snippet(line)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "producer emitted a line that is not a progress event"),
			logging.String(logging.FieldImpact, "line ignored, stream continues"),
		)
		return Event{}, false
	}
	ev.Line = lineNo
	if ev.Terminal() {
		d.terminal = true
	}
	d.stats.Events++
	return ev, true
}

func (d *Decoder) rejectOverlong() {
	d.stats.Malformed++
	logging.WarnWithContext(d.logger, "skipping overlong stream line", "stream_line_too_long",
		logging.Int("line", d.stats.Lines),
		logging.Int("max_bytes", d.maxLine),
		logging.String(logging.FieldImpact, "line ignored, stream continues"),
	)
}

func (d *Decoder) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", services.Wrap(services.ErrProtocol, "stream", "parse line", "invalid complete url", err)
	}
	if d.base == nil || ref.IsAbs() {
		return ref.String(), nil
	}
	return d.base.ResolveReference(ref).String(), nil
}

func snippet(line []byte) string {
	const limit = 120
	if len(line) <= limit {
		return string(line)
	}
	return string(bytes.ToValidUTF8(line[:limit], nil)) + "..."
}
