package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"captionary/internal/config"
	"captionary/internal/language"
	"captionary/internal/services"
	"captionary/internal/textutil"
)

const (
	defaultModel       = "medium"
	defaultDevice      = "cpu"
	defaultComputeType = "int8"
)

// Submission is one request to transcribe a media file. Exactly one of
// FilePath (uploaded) or NativePath (a path the server can read directly,
// usually from the native picker) must be set.
type Submission struct {
	FilePath   string
	NativePath string

	Language      string
	Model         string
	ModelExplicit bool
	Offset        string
	Device        string
	ComputeType   string
}

// Source returns the path the submission refers to.
func (s Submission) Source() string {
	if strings.TrimSpace(s.FilePath) != "" {
		return s.FilePath
	}
	return s.NativePath
}

// prepared is a validated submission with defaults applied and the language
// selection resolved.
type prepared struct {
	Submission
	selection language.Selection
}

func invalid(message string, err error) error {
	return services.Wrap(services.ErrValidation, "submit", "validate", message, err)
}

func prepare(sub Submission) (prepared, error) {
	sub.FilePath = strings.TrimSpace(sub.FilePath)
	sub.NativePath = strings.TrimSpace(sub.NativePath)
	switch {
	case sub.FilePath == "" && sub.NativePath == "":
		return prepared{}, invalid("Please select a file first.", nil)
	case sub.FilePath != "" && sub.NativePath != "":
		return prepared{}, invalid("Select either a file to upload or a native path, not both.", nil)
	}

	if sub.FilePath != "" {
		info, err := os.Stat(sub.FilePath)
		if err != nil {
			return prepared{}, invalid(fmt.Sprintf("Cannot read %s.", sub.FilePath), err)
		}
		if info.IsDir() {
			return prepared{}, invalid(fmt.Sprintf("%s is a directory.", sub.FilePath), nil)
		}
	}

	sub.Offset = strings.TrimSpace(sub.Offset)
	if _, err := textutil.ParseOffset(sub.Offset); err != nil {
		return prepared{}, invalid(fmt.Sprintf("Invalid offset %q.", sub.Offset), err)
	}

	sub.Device = strings.ToLower(strings.TrimSpace(sub.Device))
	if sub.Device == "" {
		sub.Device = defaultDevice
	}
	if !slices.Contains(config.ValidDevices(), sub.Device) {
		return prepared{}, invalid(fmt.Sprintf("Unsupported device %q.", sub.Device), nil)
	}

	sub.ComputeType = strings.ToLower(strings.TrimSpace(sub.ComputeType))
	if sub.ComputeType == "" {
		sub.ComputeType = defaultComputeType
	}
	if !slices.Contains(config.ValidComputeTypes(), sub.ComputeType) {
		return prepared{}, invalid(fmt.Sprintf("Unsupported compute type %q.", sub.ComputeType), nil)
	}

	if strings.TrimSpace(sub.Model) == "" {
		sub.Model = defaultModel
		sub.ModelExplicit = false
	}

	sel, err := language.ResolveSelection(language.Request{
		Language:      sub.Language,
		Model:         sub.Model,
		ModelExplicit: sub.ModelExplicit,
	})
	if err != nil {
		return prepared{}, invalid(fmt.Sprintf("Unsupported language %q.", sub.Language), err)
	}
	return prepared{Submission: sub, selection: sel}, nil
}

// formFields returns the non-file multipart fields in wire order.
func (p prepared) formFields() [][2]string {
	fields := [][2]string{
		{"lang", p.selection.Language},
		{"model", p.selection.Model},
		{"offset", p.Offset},
		{"device", p.Device},
		{"compute_type", p.ComputeType},
	}
	if p.NativePath != "" {
		fields = append([][2]string{{"file_path", p.NativePath}}, fields...)
	}
	return fields
}

var errUploadAborted = errors.New("upload aborted: response already received")

// newRequest streams the multipart body through a pipe so large media files are
// never held in memory. The returned wait func reports the writer result and
// must be called after the request has completed.
func (p prepared) newRequest(ctx context.Context, endpoint, requestID string) (*http.Request, func() error, error) {
	var media *os.File
	if p.FilePath != "" {
		f, err := os.Open(p.FilePath)
		if err != nil {
			return nil, nil, invalid(fmt.Sprintf("Cannot read %s.", p.FilePath), err)
		}
		media = f
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		if media != nil {
			defer media.Close()
		}
		err := writeForm(writer, p, media)
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
		errCh <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		<-errCh
		return nil, nil, services.Wrap(services.ErrTransport, "submit", "build request", "", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set(RequestIDHeader, requestID)

	wait := func() error {
		// Unblocks the writer if the server answered before reading the whole body.
		// A body closed by the transport is reported through the Do error instead.
		pr.CloseWithError(errUploadAborted)
		err := <-errCh
		if errors.Is(err, errUploadAborted) || errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return err
	}
	return req, wait, nil
}

func writeForm(writer *multipart.Writer, p prepared, media io.Reader) error {
	for _, field := range p.formFields() {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write field %s: %w", field[0], err)
		}
	}
	if media == nil {
		return nil
	}
	part, err := writer.CreateFormFile("file", filepath.Base(p.FilePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, media); err != nil {
		return fmt.Errorf("copy media data: %w", err)
	}
	return nil
}
