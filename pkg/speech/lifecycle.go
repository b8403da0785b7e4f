package speech

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

type ListeningState string

const (
	StateIdle           ListeningState = "idle"
	StateArmedListening ListeningState = "armed_listening"
	StateSpeaking       ListeningState = "speaking"
)

// Lifecycle keeps at most one recognition session running and restarts
// it after every result, end or error while armed. Events carrying a
// session id other than the current one are ignored.
type Lifecycle struct {
	rec      Recognizer
	schedule Scheduler
	delay    time.Duration
	log      *logrus.Logger

	state          ListeningState
	armed          bool
	navigating     bool
	unavailable    bool
	suspended      bool
	listening      bool
	restartPending bool
	session        uint64
}

type LifecycleOption func(*Lifecycle)

func WithRestartDelay(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if d > 0 {
			l.delay = d
		}
	}
}

func WithScheduler(s Scheduler) LifecycleOption {
	return func(l *Lifecycle) {
		if s != nil {
			l.schedule = s
		}
	}
}

func NewLifecycle(rec Recognizer, log *logrus.Logger, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		rec:      rec,
		schedule: afterFunc,
		delay:    DefaultRestartDelay,
		log:      log,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Arm enables listening for the page. It succeeds once; when the
// sequencer is speaking, recognition starts on the following Resume.
func (l *Lifecycle) Arm() error {
	if l.unavailable {
		return ErrRecognitionUnavailable
	}
	if l.armed || l.navigating {
		return ErrAlreadyArmed
	}
	l.armed = true

	if l.suspended {
		l.state = StateSpeaking
		return nil
	}
	l.state = StateArmedListening
	l.startRecognition()
	return nil
}

func (l *Lifecycle) Suspend() {
	l.suspended = true
	l.abortRecognition()
	if l.armed {
		l.state = StateSpeaking
	}
}

func (l *Lifecycle) Resume() {
	l.suspended = false
	if !l.canListen() {
		return
	}
	l.state = StateArmedListening
	l.startRecognition()
}

// OnResult accepts a final transcript for session. It returns false for
// a stale or unexpected session, in which case the result must be
// dropped.
func (l *Lifecycle) OnResult(session uint64) bool {
	if !l.current(session) {
		return false
	}
	l.listening = false
	return true
}

func (l *Lifecycle) OnEnd(session uint64) {
	if !l.current(session) {
		return
	}
	l.listening = false
	l.Restart()
}

func (l *Lifecycle) OnError(session uint64, err error) {
	if errors.Is(err, ErrRecognitionUnavailable) {
		l.MarkUnavailable()
		return
	}
	if !l.current(session) {
		return
	}

	l.log.WithFields(logrus.Fields{
		"session": session,
		"error":   err.Error(),
	}).Debug("Recognition error, restarting")

	l.listening = false
	l.Restart()
}

// Restart schedules a new recognition session after the restart delay.
// At most one restart is pending at a time.
func (l *Lifecycle) Restart() {
	if !l.armed || l.navigating || l.restartPending {
		return
	}
	l.restartPending = true
	l.schedule(l.delay, func() {
		l.restartPending = false
		if !l.canListen() || l.suspended {
			return
		}
		l.startRecognition()
	})
}

// Disarm stops listening for good because the page is going away.
func (l *Lifecycle) Disarm() {
	l.navigating = true
	l.armed = false
	l.abortRecognition()
	l.state = StateIdle
}

// MarkUnavailable disables voice for the page.
func (l *Lifecycle) MarkUnavailable() {
	l.unavailable = true
	l.armed = false
	l.abortRecognition()
	l.state = StateIdle
}

func (l *Lifecycle) State() ListeningState { return l.state }
func (l *Lifecycle) Armed() bool           { return l.armed }
func (l *Lifecycle) Listening() bool       { return l.listening }
func (l *Lifecycle) Session() uint64       { return l.session }
func (l *Lifecycle) Unavailable() bool     { return l.unavailable }
func (l *Lifecycle) Navigating() bool      { return l.navigating }

func (l *Lifecycle) canListen() bool {
	return l.armed && !l.navigating && !l.unavailable
}

func (l *Lifecycle) current(session uint64) bool {
	return l.listening && session == l.session
}

func (l *Lifecycle) startRecognition() {
	if l.listening {
		return
	}
	l.session++
	id := l.session

	if err := l.rec.Start(id); err != nil {
		if errors.Is(err, ErrRecognitionUnavailable) {
			l.MarkUnavailable()
			return
		}
		l.log.WithFields(logrus.Fields{
			"session": id,
			"error":   err.Error(),
		}).Warn("Failed to start recognition")
		l.Restart()
		return
	}
	l.listening = true
}

func (l *Lifecycle) abortRecognition() {
	if !l.listening {
		return
	}
	l.listening = false
	if err := l.rec.Abort(); err != nil {
		l.log.WithFields(logrus.Fields{
			"session": l.session,
			"error":   err.Error(),
		}).Warn("Failed to abort recognition")
	}
}
