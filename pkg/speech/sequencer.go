package speech

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Sequencer owns the single outstanding utterance. A new utterance
// always preempts the previous one and the preempted continuation never
// runs.
type Sequencer struct {
	synth    Synthesizer
	listener Listener
	log      *logrus.Logger
	rate     float64
	lang     string

	nextID  uint64
	current *Utterance
}

type SequencerOption func(*Sequencer)

func WithRate(rate float64) SequencerOption {
	return func(s *Sequencer) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

func WithLang(lang string) SequencerOption {
	return func(s *Sequencer) {
		if lang != "" {
			s.lang = lang
		}
	}
}

func NewSequencer(synth Synthesizer, listener Listener, log *logrus.Logger, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		synth:    synth,
		listener: listener,
		log:      log,
		rate:     DefaultRate,
		lang:     DefaultLang,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak suspends listening, plays text and runs onComplete once playback
// ends. Listening resumes after onComplete returns. Empty text is a no-op
// and returns nil.
func (s *Sequencer) Speak(text string, onComplete func()) *Utterance {
	return s.start(text, onComplete, true)
}

// Narrate is Speak without suspending listening, so a listener can still
// interrupt playback.
func (s *Sequencer) Narrate(text string, onComplete func()) *Utterance {
	return s.start(text, onComplete, false)
}

func (s *Sequencer) start(text string, onComplete func(), suspend bool) *Utterance {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	prevSuspended := s.preempt()

	s.nextID++
	u := &Utterance{
		ID:         s.nextID,
		Text:       text,
		Rate:       s.rate,
		Lang:       s.lang,
		suspends:   suspend,
		onComplete: onComplete,
		done:       make(chan struct{}),
	}
	s.current = u

	if suspend {
		s.listener.Suspend()
	} else if prevSuspended {
		s.listener.Resume()
	}

	if err := s.synth.Speak(u); err != nil {
		s.log.WithFields(logrus.Fields{
			"utterance_id": u.ID,
			"error":        err.Error(),
		}).Warn("Speech synthesis failed, treating utterance as finished")
		s.Complete(u.ID)
	}
	return u
}

// Complete reports the end of playback for utterance id. Stale ids are
// ignored and false is returned.
func (s *Sequencer) Complete(id uint64) bool {
	u := s.current
	if u == nil || u.ID != id {
		return false
	}
	s.current = nil
	close(u.done)

	if u.onComplete != nil {
		u.onComplete()
	}

	// The continuation may have started another suspending utterance.
	if u.suspends && (s.current == nil || !s.current.suspends) {
		s.listener.Resume()
	}
	return true
}

// Cancel silences the outstanding utterance without running its
// continuation. It reports whether anything was playing.
func (s *Sequencer) Cancel() bool {
	if s.current == nil {
		return false
	}
	if s.preempt() {
		s.listener.Resume()
	}
	return true
}

func (s *Sequencer) Speaking() bool {
	return s.current != nil
}

// Current returns the outstanding utterance or nil.
func (s *Sequencer) Current() *Utterance {
	return s.current
}

func (s *Sequencer) preempt() bool {
	u := s.current
	if u == nil {
		return false
	}
	s.current = nil

	if err := s.synth.Cancel(); err != nil {
		s.log.WithFields(logrus.Fields{
			"utterance_id": u.ID,
			"error":        err.Error(),
		}).Warn("Failed to cancel speech synthesis")
	}
	return u.suspends
}
