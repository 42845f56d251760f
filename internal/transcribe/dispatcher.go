package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"captionary/internal/delivery"
	"captionary/internal/language"
	"captionary/internal/logging"
	"captionary/internal/services"
	"captionary/internal/stream"
	"captionary/internal/textutil"
)

const (
	// RequestIDHeader carries the submission correlation id.
	RequestIDHeader = "X-Request-ID"

	maxErrorBodyBytes = 512
	maxArtifactBytes  = 64 << 20
)

// Options configures a Dispatcher.
type Options struct {
	// Endpoint is the absolute transcription URL.
	Endpoint string
	Client   *http.Client
	Bridge   delivery.Bridge
	Download *delivery.DownloadSink
	// DefaultFilename names the artifact when the complete URL does not.
	DefaultFilename string
	Reporter        Reporter
	Logger          *slog.Logger
	MaxLineBytes    int
}

// Result summarises a finished session.
type Result struct {
	Session   Session
	Selection language.Selection
	Sink      string
	Events    stream.Stats
	Elapsed   time.Duration
}

// Dispatcher submits media, consumes the progress stream and delivers the
// resulting artifact. It runs at most one session at a time.
type Dispatcher struct {
	endpoint        *url.URL
	client          *http.Client
	bridge          delivery.Bridge
	download        *delivery.DownloadSink
	defaultFilename string
	reporter        Reporter
	logger          *slog.Logger
	maxLineBytes    int

	mu     sync.Mutex
	active bool
}

// NewDispatcher validates opts and constructs a dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	endpoint, err := url.Parse(strings.TrimSpace(opts.Endpoint))
	if err != nil || !endpoint.IsAbs() {
		return nil, services.Wrap(services.ErrConfiguration, "dispatcher", "parse endpoint",
			fmt.Sprintf("invalid transcription endpoint %q", opts.Endpoint), err)
	}
	if opts.Download == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatcher", "init", "download sink required", nil)
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	filename := strings.TrimSpace(opts.DefaultFilename)
	if filename == "" {
		filename = "subtitles.srt"
	}
	return &Dispatcher{
		endpoint:        endpoint,
		client:          client,
		bridge:          opts.Bridge,
		download:        opts.Download,
		defaultFilename: filename,
		reporter:        reporter,
		logger:          logging.NewComponentLogger(opts.Logger, "dispatcher"),
		maxLineBytes:    opts.MaxLineBytes,
	}, nil
}

// run carries per-session state through the stages of Run.
type run struct {
	d       *Dispatcher
	ctx     context.Context
	logger  *slog.Logger
	session Session
	sampler *logging.ProgressSampler
}

func (r *run) report() {
	r.d.reporter.Report(r.session)
}

func (r *run) transition(state State) {
	r.session.State = state
	r.ctx = services.WithStage(r.ctx, string(state))
	r.logger.Debug("session state changed", logging.String(logging.FieldStage, string(state)))
}

func (r *run) fail(err error) error {
	r.session.State = StateFailed
	r.session.IsLoading = false
	r.session.Err = err
	r.session.StatusText = services.UserMessage(err)
	r.report()
	logging.ErrorWithContext(r.logger, "transcription failed", failureEventType(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
	return err
}

// Run executes one submission to completion. The returned error, when
// non-nil, is also recorded in Result.Session.Err and wraps one of the
// services markers.
func (d *Dispatcher) Run(ctx context.Context, sub Submission) (Result, error) {
	if !d.acquire() {
		err := services.Wrap(services.ErrBusy, "submit", "acquire session", "A transcription is already in progress.", nil)
		return Result{Session: Session{State: StateFailed, StatusText: services.UserMessage(err), Err: err}}, err
	}
	defer d.release()

	started := time.Now()
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	if source := sub.Source(); source != "" {
		ctx = services.WithSource(ctx, filepath.Base(source))
	}
	r := &run{
		d:       d,
		ctx:     ctx,
		logger:  logging.WithContext(ctx, d.logger),
		session: Session{State: StateIdle, RequestID: requestID},
		sampler: logging.NewProgressSampler(5),
	}
	result := Result{}
	finish := func(err error) (Result, error) {
		result.Session = r.session
		result.Elapsed = time.Since(started)
		return result, err
	}

	p, err := prepare(sub)
	if err != nil {
		return finish(r.fail(err))
	}
	result.Selection = p.selection

	r.transition(StateSubmitting)
	r.session.IsLoading = true
	r.session.StatusText = "Uploading..."
	if p.selection.Note != "" {
		r.session.StatusText = p.selection.Note
	}
	r.report()
	r.logger.Info("submitting media",
		logging.String("mode", submissionMode(p.Submission)),
		logging.String("language", p.selection.Language),
		logging.String("requested_language", p.selection.Requested),
		logging.String("model", p.selection.Model),
		logging.Bool("model_auto_selected", p.selection.ModelAutoSelected),
		logging.String("device", p.Device),
		logging.String("compute_type", p.ComputeType),
	)

	body, err := r.submit(p)
	if err != nil {
		return finish(r.fail(err))
	}
	defer body.Close()

	r.transition(StateStreaming)
	r.session.StatusText = "Transcribing..."
	r.report()

	decoder := stream.NewDecoder(body,
		stream.WithLogger(r.logger),
		stream.WithBaseURL(d.endpoint),
		stream.WithMaxLineBytes(d.maxLineBytes),
	)
	artifactURL, err := r.consume(decoder)
	result.Events = decoder.Stats()
	if err != nil {
		return finish(r.fail(err))
	}

	sink, location, err := r.deliver(artifactURL)
	if sink != nil {
		result.Sink = sink.Name()
	}
	if err != nil {
		return finish(r.fail(err))
	}

	r.transition(StateDone)
	r.session.IsLoading = false
	r.session.OutputPath = location
	if sink.Name() == "native" {
		r.session.StatusText = "File saved successfully!"
	} else {
		r.session.StatusText = "Saved to " + location
	}
	r.report()
	r.logger.Info("transcription delivered",
		logging.String("sink", sink.Name()),
		logging.String("path", location),
		logging.Int("events", result.Events.Events),
		logging.Int("malformed_lines", result.Events.Malformed),
		logging.Duration("elapsed", time.Since(started)),
	)
	return finish(nil)
}

func (d *Dispatcher) acquire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return false
	}
	d.active = true
	return true
}

func (d *Dispatcher) release() {
	d.mu.Lock()
	d.active = false
	d.mu.Unlock()
}

// submit posts the multipart form and returns the streaming body of a 2xx
// response.
func (r *run) submit(p prepared) (io.ReadCloser, error) {
	req, wait, err := p.newRequest(r.ctx, r.d.endpoint.String(), r.session.RequestID)
	if err != nil {
		return nil, err
	}
	resp, err := r.d.client.Do(req)
	writeErr := wait()
	if err != nil {
		// The transport closes the body on failure, so writeErr only echoes it.
		return nil, services.Wrap(services.ErrTransport, "submit", "post", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes+1))
		message := fmt.Sprintf("Server responded with %d: %s", resp.StatusCode,
			textutil.TruncateText(strings.TrimSpace(string(payload)), maxErrorBodyBytes))
		return nil, services.Wrap(services.ErrTransport, "submit", "post", message, nil)
	}
	if writeErr != nil {
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransport, "submit", "upload media", "", writeErr)
	}
	r.logger.Debug("stream opened",
		logging.Int("status", resp.StatusCode),
		logging.String("content_type", resp.Header.Get("Content-Type")),
	)
	return resp.Body, nil
}

// consume applies events to the session until a terminal event arrives and
// returns the artifact URL from the complete event.
func (r *run) consume(decoder *stream.Decoder) (string, error) {
	for {
		ev, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = services.Wrap(services.ErrIncompleteStream, "stream", "read", "stream ended without a result", nil)
			}
			return "", err
		}

		switch ev.Kind {
		case stream.KindProgress:
			r.session.Percent = int(math.Round(ev.Value * 100))
			r.report()
			if r.sampler.ShouldLog(r.session.Percent, "") {
				r.logger.Info("transcription progress", logging.Int("percent", r.session.Percent))
			}
		case stream.KindStatus:
			r.session.StatusText = ev.Message
			r.report()
			r.logger.Info("producer status", logging.String("message", ev.Message))
		case stream.KindComplete:
			r.session.Percent = 100
			r.session.StatusText = "Transcription complete! Download started."
			r.transition(StateDelivering)
			r.report()
			return ev.URL, nil
		case stream.KindError:
			return "", services.Wrap(services.ErrProducer, "stream", "producer", ev.Message, nil)
		}
	}
}

// deliver fetches the artifact and hands it to the sink selected for this
// delivery.
func (r *run) deliver(artifactURL string) (delivery.Sink, string, error) {
	content, err := r.fetchArtifact(artifactURL)
	if err != nil {
		return nil, "", services.Wrap(services.ErrDelivery, "deliver", "fetch artifact", "", err)
	}
	filename := delivery.FilenameFromURL(artifactURL, r.d.defaultFilename)
	sink := delivery.Select(r.d.bridge, r.d.download)
	r.logger.Debug("delivering artifact",
		logging.String("sink", sink.Name()),
		logging.String("filename", filename),
		logging.Int("bytes", len(content)),
	)
	location, err := sink.Deliver(r.ctx, content, filename)
	if err != nil {
		return sink, "", services.Wrap(services.ErrDelivery, "deliver", sink.Name(), "", err)
	}
	return sink, location, nil
}

func (r *run) fetchArtifact(artifactURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, artifactURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(RequestIDHeader, r.session.RequestID)
	resp, err := r.d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("artifact request returned %d: %s", resp.StatusCode,
			textutil.TruncateText(strings.TrimSpace(string(payload)), maxErrorBodyBytes))
	}
	if len(payload) > maxArtifactBytes {
		return nil, fmt.Errorf("artifact exceeds %d bytes", maxArtifactBytes)
	}
	if msg, ok := jsonErrorBody(resp.Header.Get("Content-Type"), payload); ok {
		return nil, errors.New(msg)
	}
	return payload, nil
}

// jsonErrorBody detects the {"error": "..."} document the server returns with
// a 200 status when the artifact is missing.
func jsonErrorBody(contentType string, payload []byte) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return "", false
	}
	var doc struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil || doc.Error == "" {
		return "", false
	}
	return doc.Error, true
}

func submissionMode(sub Submission) string {
	if sub.NativePath != "" {
		return "native_path"
	}
	return "upload"
}

func failureEventType(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "submission_invalid"
	case errors.Is(err, services.ErrProducer):
		return "producer_error"
	case errors.Is(err, services.ErrIncompleteStream):
		return "stream_incomplete"
	case errors.Is(err, services.ErrDelivery):
		return "delivery_failed"
	default:
		return "transport_failed"
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "fix the submission and try again"
	case errors.Is(err, services.ErrProducer):
		return "check the transcription server logs for this request id"
	case errors.Is(err, services.ErrIncompleteStream):
		return "the server closed the connection early; check that it is still running"
	case errors.Is(err, services.ErrDelivery):
		return "transcription finished; check the download directory or save dialog"
	default:
		return "check server.url and that the transcription server is reachable"
	}
}
