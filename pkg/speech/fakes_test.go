package speech

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeSynth struct {
	spoken   []*Utterance
	cancels  int
	speakErr error
}

func (f *fakeSynth) Speak(u *Utterance) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, u)
	return nil
}

func (f *fakeSynth) Cancel() error {
	f.cancels++
	return nil
}

func (f *fakeSynth) last() *Utterance {
	if len(f.spoken) == 0 {
		return nil
	}
	return f.spoken[len(f.spoken)-1]
}

func (f *fakeSynth) texts() []string {
	out := make([]string, 0, len(f.spoken))
	for _, u := range f.spoken {
		out = append(out, u.Text)
	}
	return out
}

type fakeListener struct {
	suspends int
	resumes  int
}

func (f *fakeListener) Suspend() { f.suspends++ }
func (f *fakeListener) Resume()  { f.resumes++ }

type fakeRecognizer struct {
	starts   []uint64
	aborts   int
	startErr error
}

func (f *fakeRecognizer) Start(session uint64) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, session)
	return nil
}

func (f *fakeRecognizer) Abort() error {
	f.aborts++
	return nil
}

// manualClock collects scheduled callbacks so tests decide when they run.
type manualClock struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualClock) schedule(d time.Duration, fn func()) {
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, fn)
}

func (m *manualClock) fire() int {
	fns := m.pending
	m.pending = nil
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

var errBoom = errors.New("boom")
