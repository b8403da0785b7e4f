package speech

import (
	"reflect"
	"testing"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two sentences", "Hello. How are you?", []string{"Hello.", " How are you?"}},
		{"no terminator", "Hello there", []string{"Hello there"}},
		{"trailing remainder", "Hi! See you", []string{"Hi!", " See you"}},
		{"grouped punctuation", "Wait... what?!", []string{"Wait...", " what?!"}},
		{"whitespace remainder dropped", "Done.  ", []string{"Done."}},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitChunks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitChunks(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func newTestReader() (*Reader, *Sequencer, *fakeSynth) {
	synth := &fakeSynth{}
	seq := NewSequencer(synth, &fakeListener{}, quietLogger())
	return NewReader(seq), seq, synth
}

// playAll completes utterances until nothing is outstanding.
func playAll(seq *Sequencer) {
	for u := seq.Current(); u != nil; u = seq.Current() {
		seq.Complete(u.ID)
	}
}

func TestReader_ReadsChunksInOrder(t *testing.T) {
	r, seq, synth := newTestReader()

	finished := false
	r.OnFinish(func() { finished = true })
	r.Start("Hello. How are you?")

	if r.State() != ReadingPlaying {
		t.Fatalf("expected reading state, got %s", r.State())
	}
	playAll(seq)

	want := []string{"Hello.", " How are you?"}
	if !reflect.DeepEqual(synth.texts(), want) {
		t.Errorf("spoken %q, want %q", synth.texts(), want)
	}
	if r.Active() {
		t.Error("expected session to end after the last chunk")
	}
	if r.Cursor() != 0 {
		t.Errorf("expected cursor reset, got %d", r.Cursor())
	}
	if !finished {
		t.Error("expected finish hook to run")
	}
}

func TestReader_PauseResumeRepeatsSameChunk(t *testing.T) {
	r, seq, synth := newTestReader()

	r.Start("One. Two. Three.")
	seq.Complete(seq.Current().ID)

	before := synth.last().Text
	if !r.Pause() {
		t.Fatal("expected pause to apply")
	}
	if r.State() != ReadingPaused {
		t.Fatalf("expected paused, got %s", r.State())
	}
	if seq.Speaking() {
		t.Error("expected narration to be cancelled on pause")
	}
	if r.Cursor() != 1 {
		t.Errorf("expected cursor kept at 1, got %d", r.Cursor())
	}

	if !r.Resume() {
		t.Fatal("expected resume to apply")
	}
	after := synth.last().Text
	if before != after {
		t.Errorf("chunk before pause %q differs from chunk after resume %q", before, after)
	}

	playAll(seq)
	want := []string{"One.", " Two.", " Two.", " Three."}
	if !reflect.DeepEqual(synth.texts(), want) {
		t.Errorf("spoken %q, want %q", synth.texts(), want)
	}
}

func TestReader_PauseAndResumeGuards(t *testing.T) {
	r, _, _ := newTestReader()

	if r.Pause() {
		t.Error("pause without a session must not apply")
	}
	if r.Resume() {
		t.Error("resume without a session must not apply")
	}

	r.Start("One. Two.")
	if r.Resume() {
		t.Error("resume while playing must not apply")
	}
	r.Pause()
	if r.Pause() {
		t.Error("second pause must not apply")
	}
}

func TestReader_StopIsIdempotent(t *testing.T) {
	r, seq, synth := newTestReader()

	r.Start("One. Two.")
	r.Stop()
	if r.State() != ReadingNoSession || r.Cursor() != 0 || len(r.Chunks()) != 0 {
		t.Fatalf("expected cleared session, got %s cursor %d", r.State(), r.Cursor())
	}
	if seq.Speaking() {
		t.Error("expected speech to be cancelled")
	}

	cancels := synth.cancels
	r.Stop()
	if synth.cancels != cancels {
		t.Error("stop without a session must not cancel speech")
	}
}

func TestReader_StopWhilePaused(t *testing.T) {
	r, _, _ := newTestReader()

	r.Start("One. Two.")
	r.Pause()
	r.Stop()
	if r.Active() || r.Paused() {
		t.Error("expected both flags cleared")
	}
}

func TestReader_RestartReplacesSession(t *testing.T) {
	r, seq, synth := newTestReader()

	r.Start("Old one. Old two.")
	r.Start("New.")
	playAll(seq)

	want := []string{"Old one.", "New."}
	if !reflect.DeepEqual(synth.texts(), want) {
		t.Errorf("spoken %q, want %q", synth.texts(), want)
	}
}
