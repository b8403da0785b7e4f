package speech

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")
	ErrRecognitionFailed      = errors.New("speech recognition failed")
	ErrAlreadyArmed           = errors.New("listening already armed")
)

const (
	DefaultRate         = 0.95
	DefaultLang         = "en-US"
	DefaultRestartDelay = 300 * time.Millisecond
)

// ClassifyError maps a browser recognition error code onto the package
// sentinels. Permission and service errors disable voice for the page.
func ClassifyError(code string) error {
	switch code {
	case "not-allowed", "service-not-allowed", "unsupported":
		return fmt.Errorf("%w: %s", ErrRecognitionUnavailable, code)
	case "":
		return ErrRecognitionFailed
	default:
		return fmt.Errorf("%w: %s", ErrRecognitionFailed, code)
	}
}

// Synthesizer plays utterances. Speak returns once playback has been
// requested; completion is reported back through Sequencer.Complete.
type Synthesizer interface {
	Speak(u *Utterance) error
	Cancel() error
}

// Recognizer runs one recognition session at a time. Results and end
// events carry the session id passed to Start.
type Recognizer interface {
	Start(session uint64) error
	Abort() error
}

// Listener is what the sequencer suspends while it is speaking.
type Listener interface {
	Suspend()
	Resume()
}

// Scheduler runs fn after d. The controller supplies one that posts fn
// back onto its event loop.
type Scheduler func(d time.Duration, fn func())

func afterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

type Utterance struct {
	ID   uint64  `json:"id"`
	Text string  `json:"text"`
	Rate float64 `json:"rate"`
	Lang string  `json:"lang"`

	suspends   bool
	onComplete func()
	done       chan struct{}
}

// Done is closed when the utterance finishes playing. It is never
// closed for an utterance that was cancelled or preempted.
func (u *Utterance) Done() <-chan struct{} {
	return u.done
}
