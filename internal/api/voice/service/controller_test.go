package voiceService

import (
	"VoxMail/internal/api/voice"
	"VoxMail/internal/entity"
	"VoxMail/pkg/nlp"
	"VoxMail/pkg/speech"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeTerminal struct {
	spoken      []*speech.Utterance
	cancels     int
	starts      []uint64
	aborts      int
	navigations []string
	actions     []string
}

func (f *fakeTerminal) Speak(u *speech.Utterance) error {
	f.spoken = append(f.spoken, u)
	return nil
}

func (f *fakeTerminal) Cancel() error {
	f.cancels++
	return nil
}

func (f *fakeTerminal) Start(session uint64) error {
	f.starts = append(f.starts, session)
	return nil
}

func (f *fakeTerminal) Abort() error {
	f.aborts++
	return nil
}

func (f *fakeTerminal) Navigate(url string) error {
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeTerminal) Perform(action string) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeTerminal) lastText() string {
	if len(f.spoken) == 0 {
		return ""
	}
	return f.spoken[len(f.spoken)-1].Text
}

type fakeRecorder struct {
	commands []entity.VoiceCommand
}

func (f *fakeRecorder) RecordCommand(ctx context.Context, cmd entity.VoiceCommand) {
	f.commands = append(f.commands, cmd)
}

type manualClock struct {
	pending []func()
}

func (m *manualClock) schedule(d time.Duration, fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *manualClock) fire() {
	fns := m.pending
	m.pending = nil
	for _, fn := range fns {
		fn()
	}
}

type harness struct {
	t     *testing.T
	ctl   *Controller
	term  *fakeTerminal
	rec   *fakeRecorder
	clock *manualClock
}

func newHarness(t *testing.T, pc nlp.PageContext) *harness {
	t.Helper()

	interpreter, err := nlp.NewDefaultInterpreter()
	if err != nil {
		t.Fatalf("default interpreter: %v", err)
	}

	h := &harness{
		t:     t,
		term:  &fakeTerminal{},
		rec:   &fakeRecorder{},
		clock: &manualClock{},
	}
	h.ctl = NewController(h.term, interpreter, quietLogger(), Session{ID: "sess-1", UserID: "user-1"},
		WithScheduler(h.clock.schedule),
		WithRecorder(h.rec),
	)
	if err := h.ctl.OnContext(pc); err != nil {
		t.Fatalf("OnContext: %v", err)
	}
	return h
}

// armed arms the controller and plays the greeting to the end, leaving
// recognition running.
func (h *harness) armed() *harness {
	h.t.Helper()
	if err := h.ctl.OnArm(); err != nil {
		h.t.Fatalf("OnArm: %v", err)
	}
	h.finishSpeech()
	if !h.ctl.Lifecycle().Listening() {
		h.t.Fatal("expected recognition to run after the greeting")
	}
	return h
}

func (h *harness) finishSpeech() {
	h.t.Helper()
	u := h.ctl.Sequencer().Current()
	if u == nil {
		h.t.Fatal("expected an utterance in progress")
	}
	h.ctl.OnSpeechEnd(u.ID)
}

// say delivers a transcript on the current recognition session, starting
// one first if a restart is pending.
func (h *harness) say(transcript string) {
	h.t.Helper()
	if !h.ctl.Lifecycle().Listening() {
		h.clock.fire()
	}
	if !h.ctl.Lifecycle().Listening() {
		h.t.Fatalf("not listening when saying %q", transcript)
	}
	h.ctl.OnResult(h.ctl.Lifecycle().Session(), transcript)
}

func inboxContext() nlp.PageContext {
	return nlp.PageContext{
		Page:  nlp.PageInbox,
		Links: []string{"/open_email/0", "/open_email/1", "/open_email/2"},
	}
}

func readMailContext() nlp.PageContext {
	return nlp.PageContext{
		Page: nlp.PageReadMail,
		Email: &nlp.EmailContext{
			Subject: "Hi",
			From:    "Bob",
			Body:    "Hello. How are you?",
		},
	}
}

func TestController_ArmSpeaksGreetingBeforeListening(t *testing.T) {
	h := newHarness(t, inboxContext())

	if err := h.ctl.OnArm(); err != nil {
		t.Fatalf("OnArm: %v", err)
	}
	if got := h.term.lastText(); got != "You are in Gmail Inbox" {
		t.Errorf("greeting = %q", got)
	}
	if len(h.term.starts) != 0 {
		t.Errorf("recognition started while greeting: %v", h.term.starts)
	}
	if got := h.ctl.Lifecycle().State(); got != speech.StateSpeaking {
		t.Errorf("state = %s, want %s", got, speech.StateSpeaking)
	}

	h.finishSpeech()

	if len(h.term.starts) != 1 {
		t.Fatalf("expected recognition to start once, got %v", h.term.starts)
	}
	if got := h.ctl.Lifecycle().State(); got != speech.StateArmedListening {
		t.Errorf("state = %s, want %s", got, speech.StateArmedListening)
	}
}

func TestController_ArmErrors(t *testing.T) {
	interpreter, err := nlp.NewDefaultInterpreter()
	if err != nil {
		t.Fatal(err)
	}
	ctl := NewController(&fakeTerminal{}, interpreter, quietLogger(), Session{})
	if err := ctl.OnArm(); !errors.Is(err, voice.ErrContextRequired) {
		t.Errorf("arm without context: got %v", err)
	}

	h := newHarness(t, inboxContext()).armed()
	if err := h.ctl.OnArm(); !errors.Is(err, speech.ErrAlreadyArmed) {
		t.Errorf("second arm: got %v", err)
	}

	h = newHarness(t, inboxContext())
	h.ctl.OnUnsupported()
	if err := h.ctl.OnArm(); !errors.Is(err, speech.ErrRecognitionUnavailable) {
		t.Errorf("arm when unsupported: got %v", err)
	}
}

func TestController_OpenSecondEmailNavigates(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()

	h.say("open second email")

	if got := h.term.lastText(); got != "Opening email 2" {
		t.Errorf("spoken = %q", got)
	}
	if len(h.term.navigations) != 0 {
		t.Fatal("navigated before the announcement finished")
	}

	h.finishSpeech()

	if len(h.term.navigations) != 1 || h.term.navigations[0] != "/open_email/1" {
		t.Fatalf("navigations = %v", h.term.navigations)
	}
	if len(h.rec.commands) != 1 {
		t.Fatalf("expected 1 recorded command, got %d", len(h.rec.commands))
	}
	got := h.rec.commands[0]
	if got.Command != string(nlp.CommandOpenItemByIndex) || got.ItemIndex != 1 || got.Outcome != entity.OutcomeOK {
		t.Errorf("recorded %+v", got)
	}
}

func TestController_LogoutNeverRearms(t *testing.T) {
	h := newHarness(t, nlp.PageContext{Page: nlp.PageDashboard}).armed()
	starts := len(h.term.starts)

	h.say("logout")
	h.finishSpeech()
	h.clock.fire()

	if len(h.term.navigations) != 1 || h.term.navigations[0] != "/logout" {
		t.Fatalf("navigations = %v", h.term.navigations)
	}
	if len(h.term.starts) != starts {
		t.Errorf("recognition restarted after logout: %v", h.term.starts)
	}
	if !h.ctl.Lifecycle().Navigating() {
		t.Error("expected lifecycle to be navigating")
	}
	if err := h.ctl.OnArm(); !errors.Is(err, speech.ErrAlreadyArmed) {
		t.Errorf("re-arm after logout: got %v", err)
	}
}

func TestController_OutOfRangeNeverNavigates(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()

	h.say("open fifth email")
	h.finishSpeech()

	if len(h.term.navigations) != 0 {
		t.Fatalf("navigated on out of range index: %v", h.term.navigations)
	}
	if got := h.term.lastText(); got != "That item number does not exist" {
		t.Errorf("spoken = %q", got)
	}
	if !h.ctl.Lifecycle().Listening() {
		t.Error("expected listening to resume after the message")
	}
	if got := h.rec.commands[0].Outcome; got != entity.OutcomeOutOfRange {
		t.Errorf("outcome = %q", got)
	}
}

func TestController_ReadPauseResumeRepeatsChunk(t *testing.T) {
	h := newHarness(t, readMailContext()).armed()

	h.say("read")

	if got := h.term.lastText(); got != "Reading this email" {
		t.Errorf("announcement = %q", got)
	}
	if h.ctl.Reader().Active() {
		t.Fatal("reading started before the announcement finished")
	}
	h.finishSpeech()

	if h.ctl.Reader().State() != speech.ReadingPlaying {
		t.Fatalf("reader state = %s", h.ctl.Reader().State())
	}
	first := h.term.lastText()
	if first != "Subject Hi." {
		t.Errorf("first chunk = %q", first)
	}

	h.say("pause")
	if h.ctl.Reader().State() != speech.ReadingPaused {
		t.Fatalf("reader state = %s", h.ctl.Reader().State())
	}
	if got := h.term.lastText(); got != "Reading paused" {
		t.Errorf("spoken = %q", got)
	}
	h.finishSpeech()

	h.say("resume")
	if got := h.term.lastText(); got != "Resuming" {
		t.Errorf("spoken = %q", got)
	}
	h.finishSpeech()

	if got := h.term.lastText(); got != first {
		t.Errorf("resumed at %q, want %q", got, first)
	}
	if h.ctl.Reader().State() != speech.ReadingPlaying {
		t.Errorf("reader state = %s", h.ctl.Reader().State())
	}

	h.finishSpeech()
	if got := h.term.lastText(); got != " Bob." {
		t.Errorf("next chunk = %q", got)
	}
}

func TestController_ReadingSwallowsNoise(t *testing.T) {
	h := newHarness(t, readMailContext()).armed()
	h.say("read")
	h.finishSpeech()
	spoken := len(h.term.spoken)

	h.say("compose a new mail")

	if len(h.term.spoken) != spoken {
		t.Errorf("noise interrupted reading: %q", h.term.lastText())
	}
	if len(h.term.navigations) != 0 {
		t.Errorf("noise navigated: %v", h.term.navigations)
	}
	if got := h.rec.commands[len(h.rec.commands)-1].Outcome; got != entity.OutcomeIgnored {
		t.Errorf("outcome = %q", got)
	}
}

func TestController_StopWhileReading(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		pause      bool
	}{
		{"while playing", "stop", false},
		{"while paused", "stop reading", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, readMailContext()).armed()
			h.say("read")
			h.finishSpeech()
			if tt.pause {
				h.say("pause")
				h.finishSpeech()
			}

			h.say(tt.transcript)

			if h.ctl.Reader().State() != speech.ReadingNoSession {
				t.Errorf("reader state = %s", h.ctl.Reader().State())
			}
			if got := h.term.lastText(); got != "Reading stopped" {
				t.Errorf("spoken = %q", got)
			}
		})
	}
}

func TestController_BackWhileReadingReturnsToInbox(t *testing.T) {
	h := newHarness(t, readMailContext()).armed()
	h.say("read")
	h.finishSpeech()

	h.say("go back")

	if h.ctl.Reader().Active() {
		t.Error("expected reading to stop")
	}
	if got := h.term.lastText(); got != "Going back to inbox" {
		t.Errorf("spoken = %q", got)
	}
	h.finishSpeech()
	if len(h.term.navigations) != 1 || h.term.navigations[0] != "/gmail_inbox" {
		t.Errorf("navigations = %v", h.term.navigations)
	}
}

func TestController_ReadWithoutEmail(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()

	h.say("read")

	if h.ctl.Reader().Active() {
		t.Error("reading started without an open email")
	}
	if got := h.term.lastText(); got != "No email opened" {
		t.Errorf("spoken = %q", got)
	}
	if got := h.rec.commands[0].Outcome; got != entity.OutcomeReadingMissing {
		t.Errorf("outcome = %q", got)
	}
}

func TestController_CancelSpeech(t *testing.T) {
	h := newHarness(t, nlp.PageContext{Page: nlp.PageDashboard}).armed()

	h.say("blah")
	if !h.ctl.Sequencer().Speaking() {
		t.Fatal("expected the fallback prompt to be speaking")
	}
	// Narrated speech leaves recognition running.
	h.finishSpeech()
	h.ctl.Sequencer().Narrate("something long", nil)

	h.say("cancel")

	if h.ctl.Sequencer().Speaking() {
		t.Error("expected speech to be cancelled")
	}
	if len(h.term.navigations) != 0 {
		t.Errorf("cancel navigated: %v", h.term.navigations)
	}
}

func TestController_StaleResultDropped(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()

	h.ctl.OnResult(h.ctl.Lifecycle().Session()+7, "logout")

	if len(h.rec.commands) != 0 {
		t.Errorf("stale result was dispatched: %+v", h.rec.commands)
	}
	if len(h.term.navigations) != 0 {
		t.Errorf("stale result navigated: %v", h.term.navigations)
	}
}

func TestController_RecognitionErrors(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()
	starts := len(h.term.starts)

	h.ctl.OnRecognitionError(h.ctl.Lifecycle().Session(), "no-speech")
	h.clock.fire()
	if len(h.term.starts) != starts+1 {
		t.Errorf("expected a restart after no-speech, starts = %v", h.term.starts)
	}

	h.ctl.OnRecognitionError(h.ctl.Lifecycle().Session(), "not-allowed")
	if !h.ctl.Lifecycle().Unavailable() {
		t.Error("expected voice to be disabled after not-allowed")
	}
	h.clock.fire()
	if h.ctl.Lifecycle().Listening() {
		t.Error("listening after recognition became unavailable")
	}
}

func TestController_RecognitionEndRestarts(t *testing.T) {
	h := newHarness(t, inboxContext()).armed()
	starts := len(h.term.starts)

	h.ctl.OnRecognitionEnd(h.ctl.Lifecycle().Session())
	h.clock.fire()

	if len(h.term.starts) != starts+1 {
		t.Errorf("expected a restart after recognition end, starts = %v", h.term.starts)
	}
}

func TestController_FaceVerificationFlow(t *testing.T) {
	h := newHarness(t, nlp.PageContext{Page: nlp.PageBiometric}).armed()

	h.say("verify")
	if got := h.term.lastText(); got != "Verifying your face. Please stay still." {
		t.Errorf("spoken = %q", got)
	}
	if len(h.term.actions) != 0 {
		t.Fatal("performed before the announcement finished")
	}
	h.finishSpeech()
	if len(h.term.actions) != 1 || h.term.actions[0] != "verify" {
		t.Fatalf("actions = %v", h.term.actions)
	}

	if err := h.ctl.OnActionResult("verify", "not_found"); err != nil {
		t.Fatalf("OnActionResult: %v", err)
	}
	if got := h.term.lastText(); got != "Face not recognized. Say retake or register." {
		t.Errorf("spoken = %q", got)
	}
	h.finishSpeech()
	if len(h.term.navigations) != 0 {
		t.Errorf("not_found navigated: %v", h.term.navigations)
	}

	if err := h.ctl.OnActionResult("verify", "success"); err != nil {
		t.Fatalf("OnActionResult: %v", err)
	}
	h.finishSpeech()
	if len(h.term.navigations) != 1 || h.term.navigations[0] != "/dashboard" {
		t.Errorf("navigations = %v", h.term.navigations)
	}

	if err := h.ctl.OnActionResult("verify", "bogus"); !errors.Is(err, voice.ErrUnknownActionResult) {
		t.Errorf("unknown status: got %v", err)
	}
}

func TestController_HandleMessage(t *testing.T) {
	h := newHarness(t, inboxContext())

	tests := []struct {
		name string
		msg  voice.ClientMessage
		want error
	}{
		{"unknown type", voice.ClientMessage{Type: "dance"}, voice.ErrUnknownMessageType},
		{"context without payload", voice.ClientMessage{Type: voice.ClientContext}, voice.ErrInvalidMessage},
		{"context with bad page", voice.ClientMessage{
			Type:    voice.ClientContext,
			Context: &nlp.PageContext{Page: "nowhere"},
		}, voice.ErrInvalidPage},
		{"arm", voice.ClientMessage{Type: voice.ClientArm}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.ctl.HandleMessage(tt.msg)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestController_ContextChangeStopsReading(t *testing.T) {
	h := newHarness(t, readMailContext()).armed()
	h.say("read")
	h.finishSpeech()

	if err := h.ctl.OnContext(inboxContext()); err != nil {
		t.Fatal(err)
	}
	if h.ctl.Reader().Active() {
		t.Error("expected reading to stop on page change")
	}
}

func TestController_RunProcessesPostedEvents(t *testing.T) {
	h := newHarness(t, inboxContext())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- h.ctl.Run(ctx) }()

	ran := make(chan struct{})
	if !h.ctl.Post(func() { close(ran) }) {
		t.Fatal("Post rejected before Close")
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("posted event did not run")
	}

	h.ctl.Close()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	if h.ctl.Post(func() {}) {
		t.Error("Post accepted after Close")
	}
}
