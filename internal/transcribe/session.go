package transcribe

// State is the lifecycle position of a transcription session.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateStreaming  State = "streaming"
	StateDelivering State = "delivering"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Session is the user-visible state of one submission. It is replaced, not
// reused, by the next submission.
type Session struct {
	State      State
	Percent    int
	StatusText string
	IsLoading  bool
	RequestID  string
	// OutputPath is where the artifact was delivered, once Done.
	OutputPath string
	Err        error
}

// Reporter receives a copy of the session after every change.
type Reporter interface {
	Report(Session)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Session)

func (f ReporterFunc) Report(s Session) {
	if f != nil {
		f(s)
	}
}

type nopReporter struct{}

func (nopReporter) Report(Session) {}
