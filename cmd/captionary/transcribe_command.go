package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"captionary/internal/config"
	"captionary/internal/delivery"
	"captionary/internal/language"
	"captionary/internal/logging"
	"captionary/internal/services"
	"captionary/internal/sessionlock"
	"captionary/internal/transcribe"
)

type transcribeOptions struct {
	language    string
	model       string
	offset      string
	device      string
	computeType string
	nativePath  string
	pick        bool
	server      string
	downloadDir string
	jsonOutput  bool
}

type transcribeSummary struct {
	Status            string  `json:"status"`
	Message           string  `json:"message"`
	RequestID         string  `json:"request_id"`
	Language          string  `json:"language"`
	RequestedLanguage string  `json:"requested_language,omitempty"`
	Model             string  `json:"model"`
	ModelAutoSelected bool    `json:"model_auto_selected"`
	Sink              string  `json:"sink,omitempty"`
	Output            string  `json:"output,omitempty"`
	Events            int     `json:"events"`
	MalformedLines    int     `json:"malformed_lines"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	opts := &transcribeOptions{}

	cmd := &cobra.Command{
		Use:   "transcribe [media-file]",
		Short: "Transcribe a media file and save the subtitles",
		Long: "Upload a media file to the transcription server, follow its progress and save the\n" +
			"resulting SRT file through the native save dialog or into the download directory.\n\n" +
			"Supported media: " + strings.Join(delivery.MediaExtensions, " "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runTranscribe(cmd, ctx, cfg, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.language, "lang", "l", "", "Spoken language (ISO code, BCP 47 tag, \"gsw\" or \"auto\")")
	flags.StringVarP(&opts.model, "model", "m", "", "Transcription model (defaults to transcription.model)")
	flags.StringVar(&opts.offset, "offset", "", "Shift subtitle timestamps (HH:MM:SS, MM:SS or seconds)")
	flags.StringVar(&opts.device, "device", "", "Inference device: "+strings.Join(config.ValidDevices(), ", "))
	flags.StringVar(&opts.computeType, "compute-type", "", "Compute type: "+strings.Join(config.ValidComputeTypes(), ", "))
	flags.StringVar(&opts.nativePath, "native-path", "", "Path readable by the server; sent instead of uploading")
	flags.BoolVar(&opts.pick, "pick", false, "Choose the media file with the native file dialog")
	flags.StringVar(&opts.server, "server", "", "Override server.url")
	flags.StringVar(&opts.downloadDir, "download-dir", "", "Override delivery.download_dir")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func runTranscribe(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts *transcribeOptions, args []string) error {
	overridden := *cfg
	if strings.TrimSpace(opts.server) != "" {
		overridden.Server.URL = strings.TrimRight(strings.TrimSpace(opts.server), "/")
		if err := overridden.Validate(); err != nil {
			return services.Wrap(services.ErrConfiguration, "cli", "server flag", "", err)
		}
	}
	if strings.TrimSpace(opts.downloadDir) != "" {
		dir, err := config.ExpandPath(strings.TrimSpace(opts.downloadDir))
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "cli", "download-dir flag", "", err)
		}
		overridden.Delivery.DownloadDir = dir
	}
	cfg = &overridden

	out := cmd.OutOrStdout()
	interactive := !opts.jsonOutput && shouldColorize(out)
	// In-place progress owns the terminal; logs then go to the file only.
	var console io.Writer
	if !interactive {
		console = cmd.ErrOrStderr()
	}
	logger, err := ctx.newLogger(cfg, console)
	if err != nil {
		return err
	}

	lock, err := sessionlock.Acquire(cfg.SessionLockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "failed to release session lock", "session_lock_release",
				logging.Error(err), logging.String("path", lock.Path()))
		}
	}()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := ctx.newBridge(cfg, logger)
	sub, err := buildSubmission(cmd, cfg, opts, args)
	if err != nil {
		return err
	}
	if opts.pick {
		if !bridge.Available() {
			return services.Wrap(services.ErrValidation, "cli", "pick", "native file dialog is not available", nil)
		}
		path, ok, err := bridge.PickFile(runCtx)
		if err != nil {
			return err
		}
		if !ok {
			return services.Wrap(services.ErrValidation, "cli", "pick", "Please select a file first.", nil)
		}
		sub.NativePath = path
	}
	if sub.FilePath != "" && !delivery.IsMediaFile(sub.FilePath) {
		logging.WarnWithContext(logger, "file extension is not a known media type", "unknown_media_extension",
			logging.String(logging.FieldSource, filepath.Base(sub.FilePath)),
			logging.String(logging.FieldImpact, "file uploaded anyway; the server decides whether it can decode it"),
		)
	}

	renderer := newProgressRenderer(out, interactive)
	var reporter transcribe.Reporter = renderer
	if opts.jsonOutput {
		reporter = nil
	}
	dispatcher, err := transcribe.NewDispatcher(transcribe.Options{
		Endpoint:        cfg.TranscribeURL(),
		Client:          newHTTPClient(cfg),
		Bridge:          bridge,
		Download:        delivery.NewDownloadSink(cfg.Delivery.DownloadDir, cfg.Delivery.DefaultFilename, logger),
		DefaultFilename: cfg.Delivery.DefaultFilename,
		Reporter:        reporter,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	result, runErr := dispatcher.Run(runCtx, sub)
	summary := summarize(result)
	if opts.jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else if runErr == nil {
		fmt.Fprintln(out, renderSummary(summary))
	}
	if runErr != nil {
		if runCtx.Err() != nil {
			return context.Canceled
		}
		if !opts.jsonOutput && renderer.printedFailure() {
			return reportedError{err: runErr}
		}
		return runErr
	}
	return nil
}

func buildSubmission(cmd *cobra.Command, cfg *config.Config, opts *transcribeOptions, args []string) (transcribe.Submission, error) {
	sub := transcribe.Submission{
		Language:    cfg.Transcription.Language,
		Model:       cfg.Transcription.Model,
		Offset:      cfg.Transcription.Offset,
		Device:      cfg.Transcription.Device,
		ComputeType: cfg.Transcription.ComputeType,
		NativePath:  strings.TrimSpace(opts.nativePath),
	}
	if len(args) > 0 {
		sub.FilePath = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("lang") {
		sub.Language = opts.language
	}
	if flags.Changed("model") {
		sub.Model = opts.model
		sub.ModelExplicit = strings.TrimSpace(opts.model) != ""
	}
	if flags.Changed("offset") {
		sub.Offset = opts.offset
	}
	if flags.Changed("device") {
		sub.Device = opts.device
	}
	if flags.Changed("compute-type") {
		sub.ComputeType = opts.computeType
	}
	if opts.pick && (sub.FilePath != "" || sub.NativePath != "") {
		return sub, services.Wrap(services.ErrValidation, "cli", "flags", "--pick cannot be combined with a file argument or --native-path", nil)
	}
	return sub, nil
}

// newHTTPClient returns a client without an overall timeout; the progress
// stream stays open for the whole transcription.
func newHTTPClient(cfg *config.Config) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: time.Duration(cfg.Server.ResponseHeaderTimeout) * time.Second,
	}
	return &http.Client{Transport: transport}
}

func summarize(result transcribe.Result) transcribeSummary {
	s := result.Session
	return transcribeSummary{
		Status:            string(s.State),
		Message:           s.StatusText,
		RequestID:         s.RequestID,
		Language:          result.Selection.Language,
		RequestedLanguage: result.Selection.Requested,
		Model:             result.Selection.Model,
		ModelAutoSelected: result.Selection.ModelAutoSelected,
		Sink:              result.Sink,
		Output:            s.OutputPath,
		Events:            result.Events.Events,
		MalformedLines:    result.Events.Malformed,
		ElapsedSeconds:    result.Elapsed.Round(time.Millisecond).Seconds(),
	}
}

func renderSummary(s transcribeSummary) string {
	lang := language.DisplayName(s.Language)
	if s.RequestedLanguage != "" && language.DisplayName(s.RequestedLanguage) != lang {
		lang = fmt.Sprintf("%s (sent as %s)", language.DisplayName(s.RequestedLanguage), lang)
	}
	model := s.Model
	if s.ModelAutoSelected {
		model += " (auto-selected)"
	}
	return renderFields("Transcription", []field{
		{"Output", s.Output},
		{"Delivered via", s.Sink},
		{"Language", lang},
		{"Model", model},
		{"Events", fmt.Sprintf("%d (%d malformed)", s.Events, s.MalformedLines)},
		{"Elapsed", (time.Duration(s.ElapsedSeconds * float64(time.Second))).Round(time.Second).String()},
		{"Request ID", s.RequestID},
	})
}
