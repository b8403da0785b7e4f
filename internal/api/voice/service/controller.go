package voiceService

import (
	"VoxMail/internal/api/voice"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/nlp"
	"VoxMail/pkg/speech"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Terminal is the browser end of a voice session: it plays and recognizes
// speech and carries out navigation and page actions.
type Terminal interface {
	speech.Synthesizer
	speech.Recognizer
	Navigate(url string) error
	Perform(action string) error
}

type CommandRecorder interface {
	RecordCommand(ctx context.Context, cmd entity.VoiceCommand)
}

type Session struct {
	ID        string
	UserID    string
	RequestID string
}

type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	scheduler    speech.Scheduler
	restartDelay time.Duration
	rate         float64
	lang         string
	recorder     CommandRecorder
	metrics      *metrics.Metrics
}

// WithScheduler replaces the timer used for recognition restarts. The
// scheduled function is called directly, outside the event loop.
func WithScheduler(s speech.Scheduler) ControllerOption {
	return func(o *controllerOptions) { o.scheduler = s }
}

func WithRestartDelay(d time.Duration) ControllerOption {
	return func(o *controllerOptions) { o.restartDelay = d }
}

func WithSpeech(rate float64, lang string) ControllerOption {
	return func(o *controllerOptions) {
		o.rate = rate
		o.lang = lang
	}
}

func WithRecorder(r CommandRecorder) ControllerOption {
	return func(o *controllerOptions) { o.recorder = r }
}

func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(o *controllerOptions) { o.metrics = m }
}

// Controller drives one page's voice session. All of its state is owned
// by the goroutine running Run; other goroutines hand it work with Post.
// The On* methods must only be called from that goroutine.
type Controller struct {
	log         *logrus.Logger
	term        Terminal
	interpreter nlp.IInterpreter
	recorder    CommandRecorder
	metrics     *metrics.Metrics
	session     Session

	lifecycle *speech.Lifecycle
	sequencer *speech.Sequencer
	reader    *speech.Reader

	page       nlp.PageContext
	hasContext bool

	events    chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewController(term Terminal, interpreter nlp.IInterpreter, log *logrus.Logger, sess Session, opts ...ControllerOption) *Controller {
	o := &controllerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Controller{
		log:         log,
		term:        term,
		interpreter: interpreter,
		recorder:    o.recorder,
		metrics:     o.metrics,
		session:     sess,
		events:      make(chan func(), 64),
		done:        make(chan struct{}),
	}

	scheduler := o.scheduler
	if scheduler == nil {
		scheduler = c.afterFunc
	}

	c.lifecycle = speech.NewLifecycle(term, log,
		speech.WithScheduler(scheduler),
		speech.WithRestartDelay(o.restartDelay),
	)
	c.sequencer = speech.NewSequencer(term, c.lifecycle, log,
		speech.WithRate(o.rate),
		speech.WithLang(o.lang),
	)
	c.reader = speech.NewReader(c.sequencer)
	c.reader.OnFinish(func() {
		c.log.WithFields(logrus.Fields{
			"session_id": c.session.ID,
		}).Debug("Finished reading email")
	})

	return c
}

func (c *Controller) afterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { c.Post(fn) })
}

// Post queues fn on the event loop. It reports false once the controller
// is closed.
func (c *Controller) Post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// Run drains the event loop until ctx ends or Close is called.
func (c *Controller) Run(ctx context.Context) error {
	if c.metrics != nil {
		c.metrics.RecordSessionStart()
		defer c.metrics.RecordSessionEnd()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Controller) Lifecycle() *speech.Lifecycle { return c.lifecycle }
func (c *Controller) Sequencer() *speech.Sequencer { return c.sequencer }
func (c *Controller) Reader() *speech.Reader       { return c.reader }
func (c *Controller) Page() nlp.PageContext        { return c.page }

// HandleMessage dispatches one message from the terminal.
func (c *Controller) HandleMessage(msg voice.ClientMessage) error {
	switch msg.Type {
	case voice.ClientContext:
		if msg.Context == nil {
			return voice.ErrInvalidMessage
		}
		return c.OnContext(*msg.Context)
	case voice.ClientArm:
		return c.OnArm()
	case voice.ClientResult:
		c.OnResult(msg.Session, msg.Transcript)
	case voice.ClientRecognitionEnd:
		c.OnRecognitionEnd(msg.Session)
	case voice.ClientRecognitionError:
		c.OnRecognitionError(msg.Session, msg.Error)
	case voice.ClientSpeechEnd:
		c.OnSpeechEnd(msg.UtteranceID)
	case voice.ClientUnsupported:
		c.OnUnsupported()
	case voice.ClientActionResult:
		return c.OnActionResult(msg.Action, msg.Status)
	default:
		return voice.ErrUnknownMessageType
	}
	return nil
}

// OnContext records what the page currently shows. A page that reports a
// different kind ends any reading session.
func (c *Controller) OnContext(pc nlp.PageContext) error {
	if !pc.Page.Valid() {
		return voice.ErrInvalidPage
	}
	if c.hasContext && c.page.Page != pc.Page {
		c.reader.Stop()
	}
	c.page = pc
	c.hasContext = true
	return nil
}

// OnArm handles the user gesture that enables voice. The page greeting is
// spoken first and recognition starts once it has finished.
func (c *Controller) OnArm() error {
	if !c.hasContext {
		return voice.ErrContextRequired
	}
	if c.lifecycle.Unavailable() {
		return speech.ErrRecognitionUnavailable
	}
	if c.lifecycle.Armed() || c.lifecycle.Navigating() {
		return speech.ErrAlreadyArmed
	}

	c.sequencer.Speak(c.interpreter.Greeting(c.page.Page), nil)
	return c.lifecycle.Arm()
}

func (c *Controller) OnResult(session uint64, transcript string) {
	if !c.lifecycle.OnResult(session) {
		c.log.WithFields(logrus.Fields{
			"session_id": c.session.ID,
			"recognition": session,
		}).Debug("Dropping result from stale recognition session")
		return
	}

	cmd := c.interpreter.Interpret(transcript, c.page, nlp.ReadingStatus{
		Active: c.reader.Active(),
		Paused: c.reader.Paused(),
	})

	c.log.WithFields(logrus.Fields{
		"session_id": c.session.ID,
		"page":       c.page.Page,
		"transcript": transcript,
		"kind":       cmd.Kind,
		"rule":       cmd.Rule,
	}).Debug("Dispatching voice command")

	c.record(transcript, cmd)
	c.execute(cmd)
	c.lifecycle.Restart()
}

func (c *Controller) OnRecognitionEnd(session uint64) {
	c.lifecycle.OnEnd(session)
}

func (c *Controller) OnRecognitionError(session uint64, code string) {
	err := speech.ClassifyError(code)
	if c.metrics != nil {
		c.metrics.RecordRecognitionError(code)
	}
	if errors.Is(err, speech.ErrRecognitionUnavailable) {
		c.log.WithFields(logrus.Fields{
			"session_id": c.session.ID,
			"error":      err.Error(),
		}).Warn("Speech recognition unavailable, voice disabled for page")
	}
	c.lifecycle.OnError(session, err)
}

func (c *Controller) OnSpeechEnd(utteranceID uint64) {
	if c.sequencer.Complete(utteranceID) && c.metrics != nil {
		c.metrics.RecordUtterance()
	}
}

func (c *Controller) OnUnsupported() {
	c.log.WithFields(logrus.Fields{
		"session_id": c.session.ID,
	}).Warn("Terminal reports no speech recognition support")
	c.lifecycle.MarkUnavailable()
}

// OnActionResult announces the outcome of a page action such as face
// verification and follows its navigation target, if any.
func (c *Controller) OnActionResult(action, status string) error {
	res, ok := c.interpreter.Table().Result(action, status)
	if !ok {
		return voice.ErrUnknownActionResult
	}
	if c.metrics != nil {
		c.metrics.RecordFaceCheck(action, status)
	}

	if res.Target != "" {
		c.navigate(res.Message, res.Target)
		return nil
	}
	c.say(res.Message, nil)
	return nil
}

func (c *Controller) execute(cmd nlp.Command) {
	switch cmd.Kind {
	case nlp.CommandNavigate, nlp.CommandOpenItemByIndex, nlp.CommandCompose,
		nlp.CommandLogout, nlp.CommandGoBack:
		c.navigate(cmd.Message, cmd.Target)

	case nlp.CommandReadCurrentItem:
		if cmd.Err != nil || c.page.Email == nil {
			c.say(cmd.Message, nil)
			return
		}
		text := c.page.Email.ReadText()
		c.say(cmd.Message, func() { c.reader.Start(text) })

	case nlp.CommandPauseReading:
		if c.reader.Pause() {
			c.say(cmd.Message, nil)
		}

	case nlp.CommandResumeReading:
		if c.reader.Paused() {
			c.say(cmd.Message, func() { c.reader.Resume() })
		}

	case nlp.CommandStopReading:
		c.reader.Stop()
		c.say(cmd.Message, func() {
			if cmd.Then != nil {
				c.execute(*cmd.Then)
			}
		})

	case nlp.CommandCancelSpeech:
		c.sequencer.Cancel()

	case nlp.CommandPageAction:
		action := cmd.Action
		c.say(cmd.Message, func() {
			if err := c.term.Perform(action); err != nil {
				c.log.WithFields(logrus.Fields{
					"session_id": c.session.ID,
					"action":     action,
					"error":      err.Error(),
				}).Error("Failed to perform page action")
			}
		})

	case nlp.CommandUnrecognized:
		c.say(cmd.Message, nil)

	case nlp.CommandIgnore:
	}
}

// navigate disarms listening for good, announces the move and then sends
// the terminal away. It never retries.
func (c *Controller) navigate(message, target string) {
	c.reader.Stop()
	c.lifecycle.Disarm()
	c.say(message, func() {
		if err := c.term.Navigate(target); err != nil {
			c.log.WithFields(logrus.Fields{
				"session_id": c.session.ID,
				"target":     target,
				"error":      err.Error(),
			}).Error("Failed to navigate terminal")
		}
	})
}

// say speaks message and then runs next. With nothing to say, next runs
// straight away.
func (c *Controller) say(message string, next func()) {
	if c.sequencer.Speak(message, next) == nil && next != nil {
		next()
	}
}

func (c *Controller) record(transcript string, cmd nlp.Command) {
	if c.recorder == nil {
		return
	}

	rec := entity.VoiceCommand{
		UserID:     c.session.UserID,
		SessionID:  c.session.ID,
		Page:       string(c.page.Page),
		Transcript: transcript,
		Command:    string(cmd.Kind),
		Rule:       cmd.Rule,
		Target:     cmd.Target,
		ItemIndex:  cmd.Index,
		Response:   cmd.Message,
		Outcome:    outcome(cmd),
		CreatedAt:  time.Now(),
	}
	c.recorder.RecordCommand(contextPkg.WithRequestID(context.Background(), c.session.RequestID), rec)
}

func outcome(cmd nlp.Command) string {
	switch {
	case cmd.Kind == nlp.CommandIgnore:
		return entity.OutcomeIgnored
	case errors.Is(cmd.Err, nlp.ErrOutOfRangeIndex):
		return entity.OutcomeOutOfRange
	case errors.Is(cmd.Err, nlp.ErrReadingTargetMissing):
		return entity.OutcomeReadingMissing
	case cmd.Err != nil:
		return entity.OutcomeUnrecognized
	default:
		return entity.OutcomeOK
	}
}
