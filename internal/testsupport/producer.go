package testsupport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ProducerScript describes how a fake transcription server answers.
type ProducerScript struct {
	// Status is the response code for the submission; 0 means 200.
	Status int
	// Body is written instead of Lines when Status is not 2xx.
	Body string
	// Lines are streamed one per write, each followed by a newline and flush.
	Lines []string
	// Artifact is served for GET requests under /download/.
	Artifact            string
	ArtifactStatus      int
	ArtifactContentType string
	// BeforeArtifact runs before the artifact is served.
	BeforeArtifact func()
}

// Submission is what the fake producer received for one POST.
type Submission struct {
	Fields    map[string]string
	FileName  string
	FileBytes int
	RequestID string
}

// Producer is an httptest server speaking the progress stream protocol.
type Producer struct {
	*httptest.Server

	mu          sync.Mutex
	submissions []Submission
	artifacts   int
}

// NewProducer starts a fake producer that follows script. It is closed on
// test cleanup.
func NewProducer(t testing.TB, script ProducerScript) *Producer {
	t.Helper()
	p := &Producer{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		p.record(t, r)
		if script.Status != 0 && (script.Status < 200 || script.Status >= 300) {
			w.WriteHeader(script.Status)
			_, _ = io.WriteString(w, script.Body)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		if script.Status != 0 {
			w.WriteHeader(script.Status)
		}
		flusher, _ := w.(http.Flusher)
		for _, line := range script.Lines {
			_, _ = io.WriteString(w, line+"\n")
			if flusher != nil {
				flusher.Flush()
			}
		}
	})
	mux.HandleFunc("GET /download/", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.artifacts++
		p.mu.Unlock()
		if script.BeforeArtifact != nil {
			script.BeforeArtifact()
		}
		contentType := script.ArtifactContentType
		if contentType == "" {
			contentType = "application/x-subrip"
		}
		w.Header().Set("Content-Type", contentType)
		if script.ArtifactStatus != 0 {
			w.WriteHeader(script.ArtifactStatus)
		}
		_, _ = io.WriteString(w, script.Artifact)
	})
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *Producer) record(t testing.TB, r *http.Request) {
	sub := Submission{Fields: map[string]string{}, RequestID: r.Header.Get("X-Request-ID")}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		t.Errorf("fake producer: parse multipart: %v", err)
	} else {
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				sub.Fields[key] = values[0]
			}
		}
		if files := r.MultipartForm.File["file"]; len(files) > 0 {
			sub.FileName = files[0].Filename
			sub.FileBytes = int(files[0].Size)
		}
	}
	p.mu.Lock()
	p.submissions = append(p.submissions, sub)
	p.mu.Unlock()
}

// Submissions returns the POSTs received so far.
func (p *Producer) Submissions() []Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Submission(nil), p.submissions...)
}

// ArtifactRequests returns how many artifact downloads were served.
func (p *Producer) ArtifactRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.artifacts
}
